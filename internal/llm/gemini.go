package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/factchecker/factlens/internal/config"
)

// geminiAPIBase is a variable so tests can point it at a local server.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models/"

// GeminiProvider implements Provider using the Google Gemini API.
type GeminiProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(cfg *config.LLMConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &GeminiProvider{
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: newHTTPClient(cfg.Timeout),
	}, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete generates content with the generateContent endpoint.
func (p *GeminiProvider) Complete(ctx context.Context, r Request) (string, error) {
	model := r.Model
	if model == "" {
		model = p.model
	}

	maxTokens := r.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: r.User}}, Role: "user"}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     r.Temperature,
			TopP:            r.TopP,
			MaxOutputTokens: maxTokens,
		},
	}
	if r.System != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: r.System}}}
	}

	endpoint := geminiAPIBase + url.PathEscape(model) + ":generateContent?key=" + url.QueryEscape(p.apiKey)

	var result geminiResponse
	if err := postJSON(ctx, p.httpClient, "Gemini", endpoint, nil, reqBody, &result); err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini returned no content")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
