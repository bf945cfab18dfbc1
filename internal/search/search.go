// Package search provides web evidence retrieval and reverse image search.
package search

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/factchecker/factlens/internal/models"
)

// Searcher returns web result snippets for a single query.
type Searcher interface {
	// Snippets returns at most limit snippets for query.
	Snippets(ctx context.Context, query string, limit int) ([]string, error)

	// Name returns the source name.
	Name() string

	// Available returns whether this searcher is properly configured.
	Available() bool
}

// Retriever runs queries against a priority-ordered list of searchers. A
// query falls through to the next searcher only when the previous one fails.
type Retriever struct {
	searchers []Searcher
}

// NewRetriever creates a retriever over the available searchers.
func NewRetriever(searchers ...Searcher) *Retriever {
	available := make([]Searcher, 0, len(searchers))
	for _, s := range searchers {
		if s != nil && s.Available() {
			available = append(available, s)
		}
	}
	return &Retriever{searchers: available}
}

// HasSearchers returns whether any searcher is available.
func (r *Retriever) HasSearchers() bool {
	return len(r.searchers) > 0
}

type queryResult struct {
	snippets []string
	warnings []models.Warning
}

// Retrieve searches every query concurrently and returns the snippets in
// query order with duplicates removed. Failures are returned as warnings.
func (r *Retriever) Retrieve(ctx context.Context, queries []string, perQuery int) ([]string, []models.Warning) {
	if len(r.searchers) == 0 {
		return nil, []models.Warning{{Source: "search", Message: "No search sources configured"}}
	}

	results := make([]queryResult, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(idx int, query string) {
			defer wg.Done()
			results[idx] = r.searchOne(ctx, query, perQuery)
		}(i, q)
	}
	wg.Wait()

	var all []string
	var warnings []models.Warning
	for _, res := range results {
		all = append(all, res.snippets...)
		warnings = append(warnings, res.warnings...)
	}

	snippets := Dedupe(all)
	log.Debug().Int("queries", len(queries)).Int("snippets", len(snippets)).Msg("Evidence retrieved")
	return snippets, warnings
}

func (r *Retriever) searchOne(ctx context.Context, query string, limit int) queryResult {
	var res queryResult
	for _, s := range r.searchers {
		snippets, err := s.Snippets(ctx, query, limit)
		if err == nil {
			res.snippets = snippets
			return res
		}
		log.Warn().Err(err).Str("source", s.Name()).Str("query", query).Msg("Search failed")
		res.warnings = append(res.warnings, models.Warning{Source: s.Name(), Message: err.Error()})
	}
	return res
}

// Dedupe removes repeated snippets, keeping the first occurrence of each.
// Blank snippets are dropped.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
