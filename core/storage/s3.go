package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/logger"
)

type s3Storage struct {
	client *s3.Client
	bucket string
	cfg    config.UploadConfig
}

func newS3Storage(cfg config.UploadConfig) (ObjectStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires a bucket")
	}

	opts := s3.Options{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	logger.Info("Storage:S3:Init", "bucket", cfg.Bucket, "region", cfg.Region)
	return &s3Storage{client: s3.New(opts), bucket: cfg.Bucket, cfg: cfg}, nil
}

func (s *s3Storage) Save(ctx context.Context, originalName string, contentType string, body io.Reader, size int64) (string, error) {
	name := generateObjectName(originalName, mustExt(originalName))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{"original-name": originalName},
	})
	if err != nil {
		logger.Error("Storage:S3:Save:Error", "error", err, "key", name)
		return "", fmt.Errorf("put object: %w", err)
	}
	return name, nil
}

func (s *s3Storage) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		logger.Error("Storage:S3:Delete:Error", "error", err, "key", name)
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *s3Storage) URL(name string) string {
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.cfg.Endpoint, s.bucket, name)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.cfg.Region, name)
}
