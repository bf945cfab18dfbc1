// Package verify runs the text and image verification pipelines.
package verify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/llm"
	"github.com/factchecker/factlens/internal/models"
)

const extractionSystemPrompt = `You are an expert fact-checking assistant. Extract every clear, concise and atomic factual claim from the provided text. A factual claim is a statement that can be proven true or false. Ignore opinions, questions and vague commentary.

Respond with ONLY the factual claims, one per line. Do not include introductory phrases, numbering or bullet points.`

// listMarker matches bullets and numbering models add despite instructions.
var listMarker = regexp.MustCompile(`^(?:[-*•]+|\(?\d+[.)])\s+`)

// ClaimExtractor splits text into atomic factual claims.
type ClaimExtractor struct {
	provider llm.Provider
	settings config.TaskSettings
}

// NewClaimExtractor creates a new claim extractor.
func NewClaimExtractor(provider llm.Provider, settings config.TaskSettings) *ClaimExtractor {
	return &ClaimExtractor{provider: provider, settings: settings}
}

// Extract returns the claims in the order the model listed them.
func (e *ClaimExtractor) Extract(ctx context.Context, text string) ([]models.Claim, error) {
	userPrompt := fmt.Sprintf("Text to analyze:\n---\n%s\n---", text)

	response, err := e.provider.Complete(ctx, llm.ForTask(e.settings, extractionSystemPrompt, userPrompt))
	if err != nil {
		return nil, fmt.Errorf("failed to extract claims: %w", err)
	}

	return parseClaims(response), nil
}

// parseClaims reads one claim per non-empty line, dropping list markers.
func parseClaims(response string) []models.Claim {
	claims := []models.Claim{}
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		claims = append(claims, line)
	}
	return claims
}
