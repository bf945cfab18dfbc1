package upload

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/models"
)

// S3Uploader stores images in an S3-compatible bucket and hands out
// presigned GET URLs.
type S3Uploader struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewS3Uploader creates an uploader for an S3-compatible endpoint such as MinIO.
func NewS3Uploader(cfg *config.S3Config) (*S3Uploader, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: "us-east-1",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &S3Uploader{client: client, bucket: cfg.Bucket, expiry: expiry}, nil
}

// Name returns the uploader name.
func (u *S3Uploader) Name() string {
	return "s3"
}

// Upload stores the image under a random key and returns a presigned URL.
func (u *S3Uploader) Upload(ctx context.Context, img models.Image) (string, error) {
	object := objectName(img.Filename)

	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.client.PutObject(ctx, u.bucket, object, bytes.NewReader(img.Data), int64(len(img.Data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	signed, err := u.client.PresignedGetObject(ctx, u.bucket, object, u.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign image URL: %w", err)
	}
	return signed.String(), nil
}

func objectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return "uploads/" + uuid.New().String() + ext
}
