package minio

import (
	"murmur/internal/api/config"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

// UploadFile 上传文件到附件桶，返回对象键
func UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if Client == nil {
		return "", errors.New("minio client is not initialized")
	}

	uploadInfo, err := Client.PutObject(ctx, AttachmentBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to upload file")
	}

	return uploadInfo.Key, nil
}

// DeleteFile 删除附件桶中的文件
func DeleteFile(ctx context.Context, objectName string) error {
	if Client == nil {
		return errors.New("minio client is not initialized")
	}

	err := Client.RemoveObject(ctx, AttachmentBucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrap(err, "failed to delete file")
	}

	return nil
}

// GetPublicURL 获取文件的公共访问URL，external_endpoint 可以自带协议前缀
func GetPublicURL(objectName string) string {
	cfg := config.Cfg.MinIO

	endpoint := cfg.ExternalEndpoint
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	if strings.Contains(endpoint, "://") {
		return fmt.Sprintf("%s/%s/%s", endpoint, AttachmentBucket, objectName)
	}

	protocol := "http"
	if cfg.UseSSL {
		protocol = "https"
	}

	return fmt.Sprintf("%s://%s/%s/%s", protocol, endpoint, AttachmentBucket, objectName)
}

// ObjectNameFromURL 从公共访问 URL 还原对象键，非本桶地址返回空串
func ObjectNameFromURL(publicURL string) string {
	marker := "/" + AttachmentBucket + "/"
	idx := strings.Index(publicURL, marker)
	if idx < 0 {
		return ""
	}
	return publicURL[idx+len(marker):]
}
