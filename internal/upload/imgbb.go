package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/factchecker/factlens/internal/httputil"
	"github.com/factchecker/factlens/internal/models"
)

// ImgBBUploader uploads images to imgbb.
type ImgBBUploader struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewImgBBUploader creates a new imgbb uploader.
func NewImgBBUploader(apiKey, endpoint string, timeout time.Duration) (*ImgBBUploader, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("imgbb API key is required")
	}
	if endpoint == "" {
		endpoint = "https://api.imgbb.com/1/upload"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ImgBBUploader{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the uploader name.
func (u *ImgBBUploader) Name() string {
	return "imgbb"
}

type imgbbResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload posts the image as multipart form data and returns its public URL.
func (u *ImgBBUploader) Upload(ctx context.Context, img models.Image) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	filename := img.Filename
	if filename == "" {
		filename = "image"
	}
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	endpoint := u.endpoint + "?key=" + url.QueryEscape(u.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body.Bytes()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := httputil.DoWithRetry(ctx, u.httpClient, req, 2)
	if err != nil {
		return "", fmt.Errorf("imgbb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httputil.ReadError("imgbb", resp)
	}

	var result imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode imgbb response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("imgbb error: %s", result.Error.Message)
	}
	if result.Data.URL == "" {
		return "", fmt.Errorf("imgbb returned no URL")
	}

	return result.Data.URL, nil
}
