package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/factchecker/factlens/internal/httputil"
)

// HFClient calls the Hugging Face Inference API.
type HFClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewHFClient creates a new Hugging Face Inference API client.
func NewHFClient(apiKey, baseURL string, timeout time.Duration) (*HFClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Hugging Face API key is required")
	}
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/hf-inference/models/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HFClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// PostJSON sends a JSON payload to model and decodes the response into out.
func (c *HFClient) PostJSON(ctx context.Context, model string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.post(ctx, model, "application/json", body, out)
}

// PostBinary sends raw bytes (an image) to model and decodes the response into out.
func (c *HFClient) PostBinary(ctx context.Context, model, contentType string, data []byte, out any) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.post(ctx, model, contentType, data, out)
}

func (c *HFClient) post(ctx context.Context, model, contentType string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+model, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	// 503 means the model is still loading; DoWithRetry waits it out.
	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 3)
	if err != nil {
		return fmt.Errorf("Hugging Face request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httputil.ReadError("Hugging Face "+model, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", model, err)
	}
	return nil
}

// labelScore is one entry of a classification response.
type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// decodeLabelScores accepts both the flat [{...}] and the nested [[{...}]]
// shapes returned by classification endpoints.
func decodeLabelScores(raw json.RawMessage) ([]labelScore, error) {
	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("unexpected classification response: %w", err)
	}
	if len(nested) == 0 {
		return nil, nil
	}
	return nested[0], nil
}

func best(scores []labelScore) (labelScore, bool) {
	if len(scores) == 0 {
		return labelScore{}, false
	}
	top := scores[0]
	for _, s := range scores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}
	return top, true
}
