// Package registry constructs every external adapter once at process start.
// An adapter that cannot be built is replaced by an inert stand-in that
// reports ErrUnavailable, so a missing key degrades a feature instead of
// stopping the process.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/inference"
	"github.com/factchecker/factlens/internal/llm"
	"github.com/factchecker/factlens/internal/models"
	"github.com/factchecker/factlens/internal/search"
	"github.com/factchecker/factlens/internal/upload"
)

// ErrUnavailable is returned by adapters that were not configured.
var ErrUnavailable = errors.New("adapter unavailable")

// SnippetRetriever runs web searches for a set of queries.
type SnippetRetriever interface {
	Retrieve(ctx context.Context, queries []string, perQuery int) ([]string, []models.Warning)
}

// ReverseSearcher finds where an image appears online.
type ReverseSearcher interface {
	FindSources(ctx context.Context, img models.Image) models.OnlineHistory
}

// Registry holds the adapters shared by all requests.
type Registry struct {
	LLM           llm.Provider
	Retriever     SnippetRetriever
	Stance        inference.StanceClassifier
	Captioner     inference.Captioner
	OCR           inference.TextExtractor
	Authenticity  inference.AuthenticityClassifier
	ReverseSearch ReverseSearcher

	// Status maps adapter name to "ok" or the reason it is unavailable.
	Status map[string]string
}

// Build creates the registry from configuration. It never fails.
func Build(cfg *config.Config) *Registry {
	r := &Registry{Status: make(map[string]string)}

	provider, err := llm.NewProvider(&cfg.LLM)
	if err != nil {
		r.LLM = unavailableLLM{err: r.fail("llm", err)}
	} else {
		r.LLM = provider
		r.ok("llm")
	}

	serp := search.NewSerpAPIClient(cfg.Search.SerpAPIKey, cfg.Search.SerpAPIURL, cfg.Search.Timeout)
	searchers := []search.Searcher{serp}
	if cfg.Search.DuckDuckGo {
		searchers = append(searchers, search.NewDuckDuckGoClient(cfg.Search.Timeout))
	}
	retriever := search.NewRetriever(searchers...)
	r.Retriever = retriever
	if retriever.HasSearchers() {
		r.ok("search")
	} else {
		r.fail("search", errors.New("no search source configured"))
	}

	hf, err := inference.NewHFClient(cfg.Vision.HuggingFaceKey, cfg.Vision.HuggingFaceURL, cfg.Vision.Timeout)
	if err != nil {
		reason := r.fail("huggingface", err)
		r.Stance = unavailableStance{err: reason}
		r.Captioner = unavailableCaptioner{err: reason}
		r.Authenticity = unavailableAuthenticity{err: reason}
	} else {
		r.ok("huggingface")
		r.Stance = inference.NewNLIClassifier(hf, cfg.Vision.NLIModel)
		r.Captioner = inference.NewHFCaptioner(hf, cfg.Vision.CaptionModel)
		r.Authenticity = inference.NewHFAuthenticityClassifier(hf, cfg.Vision.AuthenticityModel, inference.AuthenticityPolicy{
			Threshold: cfg.Vision.AuthenticityThreshold,
			RealLabel: cfg.Vision.RealLabel,
			FakeLabel: cfg.Vision.FakeLabel,
		})
	}

	ocr, err := inference.NewOCRSpaceClient(cfg.Vision.OCRSpaceKey, cfg.Vision.OCRSpaceURL, cfg.Vision.Timeout)
	if err != nil {
		r.OCR = unavailableOCR{err: r.fail("ocr", err)}
	} else {
		r.OCR = ocr
		r.ok("ocr")
	}

	host, err := upload.New(&cfg.Upload)
	switch {
	case err != nil:
		r.ReverseSearch = unavailableReverse{err: r.fail("reverse_search", err)}
	case !serp.Available():
		r.ReverseSearch = unavailableReverse{err: r.fail("reverse_search", errors.New("serpapi key not set"))}
	default:
		r.ReverseSearch = search.NewReverseImageSearch(host, serp, cfg.Search.VisualMatches)
		r.ok("reverse_search")
	}

	log.Info().Interface("adapters", r.Status).Msg("Adapter registry built")
	return r
}

// Unavailable returns the names of adapters that could not be built.
func (r *Registry) Unavailable() []string {
	var names []string
	for name, status := range r.Status {
		if status != "ok" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ok(name string) {
	r.Status[name] = "ok"
}

func (r *Registry) fail(name string, err error) error {
	r.Status[name] = err.Error()
	log.Warn().Err(err).Str("adapter", name).Msg("Adapter unavailable")
	return fmt.Errorf("%s: %w: %v", name, ErrUnavailable, err)
}

type unavailableLLM struct{ err error }

func (u unavailableLLM) Complete(context.Context, llm.Request) (string, error) { return "", u.err }
func (u unavailableLLM) Name() string                                         { return "unavailable" }

type unavailableStance struct{ err error }

func (u unavailableStance) Classify(context.Context, string, string) (models.StanceResult, error) {
	return models.StanceResult{}, u.err
}

type unavailableCaptioner struct{ err error }

func (u unavailableCaptioner) Caption(context.Context, models.Image) (string, error) {
	return "", u.err
}

type unavailableOCR struct{ err error }

func (u unavailableOCR) ExtractText(context.Context, models.Image) (string, error) {
	return "", u.err
}

type unavailableAuthenticity struct{ err error }

func (u unavailableAuthenticity) Classify(context.Context, models.Image) (models.AuthenticityReport, error) {
	return models.AuthenticityReport{}, u.err
}

type unavailableReverse struct{ err error }

func (u unavailableReverse) FindSources(context.Context, models.Image) models.OnlineHistory {
	return models.OnlineHistory{Error: u.err.Error()}
}
