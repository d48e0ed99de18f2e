package util

import (
	"bytes"
	"io"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ThumbnailMaxSide 缩略图最长边
const ThumbnailMaxSide = 512

// MakeThumbnail 将图片等比缩放到最长边不超过 ThumbnailMaxSide，输出 JPEG
func MakeThumbnail(reader io.Reader) (*bytes.Buffer, error) {
	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	bounds := img.Bounds()
	if bounds.Dx() > ThumbnailMaxSide || bounds.Dy() > ThumbnailMaxSide {
		img = imaging.Fit(img, ThumbnailMaxSide, ThumbnailMaxSide, imaging.Lanczos)
	}

	buf := &bytes.Buffer{}
	if err = imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, errors.Wrap(err, "failed to encode thumbnail")
	}
	return buf, nil
}
