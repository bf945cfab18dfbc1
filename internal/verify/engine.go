package verify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/inference"
	"github.com/factchecker/factlens/internal/models"
	"github.com/factchecker/factlens/internal/registry"
	"github.com/factchecker/factlens/internal/synthesis"
)

const (
	noEvidenceExplanation = "No relevant evidence was found online to verify this claim."
	narrationFailed       = "The narration model failed to respond, so no verdict could be reached."
	claimPanicked         = "Verification of this claim stopped unexpectedly."
)

// Engine orchestrates the text and image verification pipelines.
type Engine struct {
	extractor *ClaimExtractor
	queries   *QueryGenerator
	verifier  *ClaimVerifier
	synthesis *synthesis.Engine

	retriever    registry.SnippetRetriever
	stance       inference.StanceClassifier
	captioner    inference.Captioner
	ocr          inference.TextExtractor
	authenticity inference.AuthenticityClassifier
	reverse      registry.ReverseSearcher

	resultsPerQuery int
	concurrency     int
	maxThematic     int
}

// NewEngine creates a new verification engine over the adapters in reg.
func NewEngine(cfg *config.Config, reg *registry.Registry) *Engine {
	tasks := cfg.LLM.Tasks
	extractor := synthesis.NewSignalExtractor(synthesis.RulesFromConfig(cfg.Synthesis.ExtraRules)...)

	concurrency := cfg.Verify.ClaimConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Engine{
		extractor:       NewClaimExtractor(reg.LLM, tasks.Extraction),
		queries:         NewQueryGenerator(reg.LLM, tasks.Queries),
		verifier:        NewClaimVerifier(reg.LLM, tasks.Narration),
		synthesis:       synthesis.NewEngine(reg.LLM, tasks.Synthesis, extractor),
		retriever:       reg.Retriever,
		stance:          reg.Stance,
		captioner:       reg.Captioner,
		ocr:             reg.OCR,
		authenticity:    reg.Authenticity,
		reverse:         reg.ReverseSearch,
		resultsPerQuery: cfg.Search.ResultsPerQuery,
		concurrency:     concurrency,
		maxThematic:     cfg.Verify.MaxThematicSnippets,
	}
}

// VerifyText extracts the claims in text and verifies each one. It never
// fails; degraded steps are reported as warnings.
func (e *Engine) VerifyText(ctx context.Context, text string) *models.TextReport {
	startTime := time.Now()
	report := &models.TextReport{
		ID:        uuid.New().String(),
		Claims:    []models.ClaimVerdict{},
		CreatedAt: startTime,
	}

	if strings.TrimSpace(text) == "" {
		return report
	}

	log.Info().Msg("Step 1: Extracting claims")
	claims, err := e.extractor.Extract(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("Claim extraction failed")
		report.Warnings = append(report.Warnings, models.Warning{Source: "claim_extraction", Message: err.Error()})
	}
	log.Info().Int("count", len(claims)).Msg("Claims extracted")

	log.Info().Msg("Step 2: Verifying claims")
	report.Claims = e.verifyClaims(ctx, claims)
	report.ProcessingTimeMs = time.Since(startTime).Milliseconds()

	log.Info().
		Str("id", report.ID).
		Int("claims", len(report.Claims)).
		Int64("duration_ms", report.ProcessingTimeMs).
		Msg("Text verification complete")
	return report
}

// verifyClaims runs each claim's sub-pipeline with bounded parallelism.
// Results keep extraction order.
func (e *Engine) verifyClaims(ctx context.Context, claims []models.Claim) []models.ClaimVerdict {
	results := make([]models.ClaimVerdict, len(claims))
	semaphore := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i := range claims {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			claim := claims[idx]
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("claim", truncate(claim, 50)).Msg("Claim verification panicked")
					results[idx] = models.ClaimVerdict{
						Claim:       claim,
						Verdict:     models.VerdictNotEnoughInfo,
						Explanation: claimPanicked,
						Evidence:    []models.StanceResult{},
						Warnings:    []models.Warning{{Source: "verify", Message: fmt.Sprint(r)}},
					}
				}
			}()

			results[idx] = e.verifyClaim(ctx, claim)
		}(i)
	}

	wg.Wait()
	return results
}

func (e *Engine) verifyClaim(ctx context.Context, claim models.Claim) models.ClaimVerdict {
	v := models.ClaimVerdict{Claim: claim, Evidence: []models.StanceResult{}}

	queries, err := e.queries.Generate(ctx, claim)
	if err != nil {
		log.Warn().Err(err).Str("claim", truncate(claim, 50)).Msg("Query generation failed, searching for the claim only")
		v.Warnings = append(v.Warnings, models.Warning{Source: "query_generation", Message: err.Error()})
	}

	snippets, searchWarnings := e.retriever.Retrieve(ctx, queries, e.resultsPerQuery)
	v.Warnings = append(v.Warnings, searchWarnings...)

	if len(snippets) == 0 {
		log.Info().Str("claim", truncate(claim, 50)).Msg("No evidence found")
		v.Verdict = models.VerdictNotEnoughInfo
		v.Explanation = noEvidenceExplanation
		return v
	}

	evidence, stanceWarnings := e.classifyEvidence(ctx, claim, snippets)
	v.Evidence = evidence
	v.Warnings = append(v.Warnings, stanceWarnings...)
	v.CredibilityScore = CredibilityScore(evidence)

	verdict, explanation, err := e.verifier.Verify(ctx, claim, snippets)
	if err != nil {
		log.Error().Err(err).Str("claim", truncate(claim, 50)).Msg("Narration failed")
		v.Warnings = append(v.Warnings, models.Warning{Source: "narration", Message: err.Error()})
		verdict, explanation = models.VerdictNotEnoughInfo, narrationFailed
	}
	v.Verdict = verdict
	v.Explanation = explanation
	v.SignalsDisagree = v.Disagrees()
	return v
}

// classifyEvidence classifies every snippet in order. A snippet whose
// classification fails is left out and reported.
func (e *Engine) classifyEvidence(ctx context.Context, claim models.Claim, snippets []string) ([]models.StanceResult, []models.Warning) {
	results := make([]models.StanceResult, 0, len(snippets))
	var warnings []models.Warning
	for _, snippet := range snippets {
		r, err := e.stance.Classify(ctx, claim, snippet)
		if err != nil {
			log.Warn().Err(err).Msg("Stance classification failed")
			warnings = append(warnings, models.Warning{Source: "stance", Message: err.Error()})
			continue
		}
		results = append(results, r)
	}
	return results, warnings
}

// truncate shortens s to at most n runes for log fields.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
