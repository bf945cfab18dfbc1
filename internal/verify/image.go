package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/factchecker/factlens/internal/inference"
	"github.com/factchecker/factlens/internal/models"
	"github.com/factchecker/factlens/internal/search"
	"github.com/factchecker/factlens/internal/synthesis"
)

// imageEvidence collects the outputs of the independent image analysis steps.
type imageEvidence struct {
	caption      string
	ocrText      string
	authenticity models.AuthenticityReport
	history      models.OnlineHistory
	thematic     []string
	warnings     []models.Warning
}

// VerifyImage analyzes img, gathers its online history and news coverage
// for query, and synthesizes a final verdict. It never fails; a failed step
// is recorded in its own output field and as a warning.
func (e *Engine) VerifyImage(ctx context.Context, img models.Image, query string) *models.ImageReport {
	startTime := time.Now()
	report := &models.ImageReport{
		ID:        uuid.New().String(),
		UserQuery: query,
		CreatedAt: startTime,
	}

	log.Info().Msg("Step 1: Running image analysis")
	ev := e.analyzeImage(ctx, img)

	log.Info().Msg("Step 2: Searching for thematic coverage")
	var searchWarnings []models.Warning
	ev.thematic, searchWarnings = e.thematicSnippets(ctx, query, ev.caption)
	ev.warnings = append(ev.warnings, searchWarnings...)

	log.Info().Msg("Step 3: Synthesizing verdict")
	outcome := e.synthesis.Synthesize(ctx, synthesis.Case{
		Question: query,
		Analysis: models.ImageAnalysisReport{
			Caption:      ev.caption,
			OCRText:      ev.ocrText,
			Authenticity: ev.authenticity,
		},
		History:          ev.history,
		ThematicSnippets: ev.thematic,
	})
	if outcome.Verdict.Error != "" {
		ev.warnings = append(ev.warnings, models.Warning{Source: "synthesis", Message: outcome.Verdict.Error})
	}

	report.Intent = outcome.Intent
	report.ImageAnalysis = models.ImageAnalysisReport{
		Caption:      ev.caption,
		OCRText:      ev.ocrText,
		Authenticity: ev.authenticity,
	}
	report.OnlineHistory = ev.history
	report.ThematicSnippets = ev.thematic
	report.ProgrammaticSignals = outcome.Signals
	report.FinalVerdict = outcome.Verdict
	report.Warnings = ev.warnings
	report.ProcessingTimeMs = time.Since(startTime).Milliseconds()

	log.Info().
		Str("id", report.ID).
		Str("verdict", string(report.FinalVerdict.FinalVerdict)).
		Int("warnings", len(report.Warnings)).
		Int64("duration_ms", report.ProcessingTimeMs).
		Msg("Image verification complete")
	return report
}

// analyzeImage runs captioning, OCR, authenticity and reverse search
// concurrently. Each goroutine writes only its own fields.
func (e *Engine) analyzeImage(ctx context.Context, img models.Image) imageEvidence {
	var ev imageEvidence
	var captionErr, ocrErr, authErr, reverseErr error
	var wg sync.WaitGroup

	wg.Add(4)
	go func() {
		defer wg.Done()
		defer recoverStep("captioning", &captionErr)
		ev.caption, captionErr = e.captioner.Caption(ctx, img)
	}()
	go func() {
		defer wg.Done()
		defer recoverStep("ocr", &ocrErr)
		var raw string
		raw, ocrErr = e.ocr.ExtractText(ctx, img)
		ev.ocrText = inference.CleanOCRText(raw)
	}()
	go func() {
		defer wg.Done()
		defer recoverStep("authenticity", &authErr)
		ev.authenticity, authErr = e.authenticity.Classify(ctx, img)
	}()
	go func() {
		defer wg.Done()
		defer recoverStep("reverse_search", &reverseErr)
		ev.history = e.reverse.FindSources(ctx, img)
	}()
	wg.Wait()

	if captionErr != nil {
		log.Warn().Err(captionErr).Msg("Captioning failed")
		ev.caption = ""
		ev.warnings = append(ev.warnings, models.Warning{Source: "captioning", Message: captionErr.Error()})
	}
	if ocrErr != nil {
		log.Warn().Err(ocrErr).Msg("OCR failed")
		ev.ocrText = ""
		ev.warnings = append(ev.warnings, models.Warning{Source: "ocr", Message: ocrErr.Error()})
	}
	if authErr != nil {
		log.Warn().Err(authErr).Msg("Authenticity classification failed")
		ev.authenticity = models.AuthenticityReport{Error: authErr.Error()}
		ev.warnings = append(ev.warnings, models.Warning{Source: "authenticity", Message: authErr.Error()})
	}
	if reverseErr != nil {
		ev.history = models.OnlineHistory{Error: reverseErr.Error()}
	}
	if ev.history.Error != "" {
		ev.warnings = append(ev.warnings, models.Warning{Source: "reverse_search", Message: ev.history.Error})
	}
	return ev
}

// recoverStep turns a panic in an image analysis step into that step's error.
func recoverStep(step string, errp *error) {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Str("step", step).Msg("Image analysis step panicked")
		*errp = fmt.Errorf("%s panicked: %v", step, r)
	}
}

// thematicSnippets searches for news coverage of the question and the
// caption, capped at the configured number of snippets.
func (e *Engine) thematicSnippets(ctx context.Context, query, caption string) ([]string, []models.Warning) {
	queries := search.Dedupe([]string{query, caption})
	if len(queries) == 0 {
		return []string{}, nil
	}

	snippets, warnings := e.retriever.Retrieve(ctx, queries, e.resultsPerQuery)
	if snippets == nil {
		snippets = []string{}
	}
	if e.maxThematic > 0 && len(snippets) > e.maxThematic {
		snippets = snippets[:e.maxThematic]
	}
	return snippets, warnings
}
