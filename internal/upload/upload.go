// Package upload publishes images at public URLs for reverse image search.
package upload

import (
	"context"
	"fmt"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/models"
)

// Uploader publishes an image and returns a URL that third parties can fetch.
type Uploader interface {
	Upload(ctx context.Context, img models.Image) (string, error)

	// Name returns the uploader name.
	Name() string
}

// New creates the uploader selected by configuration.
func New(cfg *config.UploadConfig) (Uploader, error) {
	switch cfg.Provider {
	case "", "imgbb":
		return NewImgBBUploader(cfg.ImgBBKey, cfg.ImgBBURL, cfg.Timeout)
	case "s3":
		return NewS3Uploader(&cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported upload provider: %s", cfg.Provider)
	}
}
