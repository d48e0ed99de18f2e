package minio

import (
	"murmur/internal/api/config"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// Client 全局 MinIO 客户端实例
	Client *minio.Client
	// AttachmentBucket 聊天附件与头像的存储桶
	AttachmentBucket string
)

// Init 初始化 MinIO 客户端并确保附件桶存在
func Init() error {
	cfg := config.Cfg.MinIO

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.AttachmentBucket)
	if err != nil {
		return fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.AttachmentBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create attachment bucket: %w", err)
		}
	}

	Client = client
	AttachmentBucket = cfg.AttachmentBucket
	return nil
}
