// Package llm provides a pluggable interface for generative text providers.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/httputil"
)

// Request is a single chat-style completion request.
type Request struct {
	System      string
	User        string
	Model       string // empty uses the provider default
	Temperature float64
	TopP        float64 // zero leaves the provider default
	MaxTokens   int
}

// ForTask returns a request carrying the generation settings of one task.
func ForTask(t config.TaskSettings, system, user string) Request {
	return Request{
		System:      system,
		User:        user,
		Model:       t.Model,
		Temperature: t.Temperature,
		TopP:        t.TopP,
		MaxTokens:   t.MaxTokens,
	}
}

// Provider defines the interface for generative text providers.
type Provider interface {
	// Complete returns the reply text. Timeouts and non-2xx responses are errors.
	Complete(ctx context.Context, req Request) (string, error)

	// Name returns the provider name.
	Name() string
}

const defaultMaxTokens = 1024

// NewProvider creates a new provider based on configuration.
func NewProvider(cfg *config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "groq":
		return NewOpenAIProvider(cfg)
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "gemini":
		return NewGeminiProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// postJSON sends body as JSON and decodes a 2xx response into out.
func postJSON(ctx context.Context, client *http.Client, service, url string, headers map[string]string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 2)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httputil.ReadError(service, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", service, err)
	}
	return nil
}
