package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/factchecker/factlens/internal/config"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIProvider implements Provider for OpenAI and OpenAI-compatible APIs
// such as Groq.
type OpenAIProvider struct {
	client *openai.Client
	name   string
	model  string
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(cfg *config.LLMConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", cfg.Provider)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.HTTPClient = newHTTPClient(cfg.Timeout)

	name := cfg.Provider
	if name == "" {
		name = "openai"
	}

	model := cfg.Model
	switch {
	case cfg.BaseURL != "":
		clientCfg.BaseURL = cfg.BaseURL
	case name == "groq":
		clientCfg.BaseURL = groqBaseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
		if name == "groq" {
			model = "llama3-8b-8192"
		}
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		name:   name,
		model:  model,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Complete generates a chat completion.
func (p *OpenAIProvider) Complete(ctx context.Context, r Request) (string, error) {
	model := r.Model
	if model == "" {
		model = p.model
	}

	messages := []openai.ChatCompletionMessage{}
	if r.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: r.User,
	})

	maxTokens := r.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(r.Temperature),
		TopP:        float32(r.TopP),
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}

	return resp.Choices[0].Message.Content, nil
}
