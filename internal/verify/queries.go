package verify

import (
	"context"
	"fmt"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/llm"
	"github.com/factchecker/factlens/internal/models"
	"github.com/factchecker/factlens/internal/search"
)

const querySystemPrompt = `You are a search query generation expert. Given a factual claim, generate 3 diverse, search-engine-optimized queries to find evidence: one as a question, one focusing on keywords, and one as a direct rephrasing.

Return only the queries, one per line, without any extra text or numbering.`

// QueryGenerator expands a claim into web search queries.
type QueryGenerator struct {
	provider llm.Provider
	settings config.TaskSettings
}

// NewQueryGenerator creates a new query generator.
func NewQueryGenerator(provider llm.Provider, settings config.TaskSettings) *QueryGenerator {
	return &QueryGenerator{provider: provider, settings: settings}
}

// Generate returns the claim followed by the generated queries, without
// duplicates. On failure the claim alone is returned along with the error.
func (g *QueryGenerator) Generate(ctx context.Context, claim models.Claim) ([]string, error) {
	userPrompt := fmt.Sprintf("Factual claim:\n---\n%s\n---", claim)

	response, err := g.provider.Complete(ctx, llm.ForTask(g.settings, querySystemPrompt, userPrompt))
	if err != nil {
		return []string{claim}, fmt.Errorf("failed to generate queries: %w", err)
	}

	queries := append([]string{claim}, parseClaims(response)...)
	return search.Dedupe(queries), nil
}
