package linkpreview

import (
	"murmur/internal/api/config"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Preview 链接预览元数据，取自目标页面的 Open Graph 标签
type Preview struct {
	URL   string
	Title string
	Image string
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Preview, error)
}

type fetcherImpl struct {
	client *resty.Client
}

func NewFetcher() Fetcher {
	timeout := 3 * time.Second
	if config.Cfg != nil && config.Cfg.LinkPreview.TimeoutMS > 0 {
		timeout = time.Duration(config.Cfg.LinkPreview.TimeoutMS) * time.Millisecond
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(3)).
		SetHeader("User-Agent", "Murmur-LinkPreview/1.0")

	return &fetcherImpl{client: client}
}

// Fetch 抓取页面并提取 og:title / og:image，缺失时回退 <title>
func (s *fetcherImpl) Fetch(ctx context.Context, url string) (*Preview, error) {
	resp, err := s.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch link")
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.StatusCode() >= 400 {
		return nil, errors.Errorf("link returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse link html")
	}

	preview := &Preview{URL: url}

	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		prop, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		switch prop {
		case "og:title":
			preview.Title = strings.TrimSpace(content)
		case "og:image":
			preview.Image = strings.TrimSpace(content)
		}
		return preview.Title == "" || preview.Image == ""
	})

	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if preview.Title == "" && preview.Image == "" {
		return nil, errors.New("no preview metadata found")
	}

	return preview, nil
}
