package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/factchecker/factlens/internal/httputil"
	"github.com/factchecker/factlens/internal/models"
)

// OCRSpaceClient extracts text with the OCR.space API.
type OCRSpaceClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewOCRSpaceClient creates a new OCR.space client.
func NewOCRSpaceClient(apiKey, endpoint string, timeout time.Duration) (*OCRSpaceClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OCR.space API key is required")
	}
	if endpoint == "" {
		endpoint = "https://api.ocr.space/parse/image"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OCRSpaceClient{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// ExtractText returns all detected text regions joined by single spaces.
func (c *OCRSpaceClient) ExtractText(ctx context.Context, img models.Image) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, field := range [][2]string{{"language", "eng"}, {"scale", "true"}} {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return "", fmt.Errorf("failed to write form field %s: %w", field[0], err)
		}
	}

	filename := img.Filename
	if filename == "" {
		filename = "image.jpg"
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body.Bytes()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 2)
	if err != nil {
		return "", fmt.Errorf("OCR.space request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httputil.ReadError("OCR.space", resp)
	}

	var result ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode OCR.space response: %w", err)
	}
	if result.IsErroredOnProcessing {
		return "", fmt.Errorf("OCR.space error: %s", ocrErrorMessage(result.ErrorMessage))
	}

	regions := make([]string, 0, len(result.ParsedResults))
	for _, r := range result.ParsedResults {
		if t := strings.TrimSpace(r.ParsedText); t != "" {
			regions = append(regions, t)
		}
	}
	return strings.Join(regions, " "), nil
}

// ocrErrorMessage flattens ErrorMessage, which is a string or a list of strings.
func ocrErrorMessage(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return "unknown error"
}

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// CleanOCRText strips everything except ASCII letters, digits and
// whitespace, then collapses whitespace runs to one space.
func CleanOCRText(s string) string {
	s = nonAlphanumeric.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
