package synthesis

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/llm"
	"github.com/factchecker/factlens/internal/models"
)

// Case is the evidence gathered for one image question.
type Case struct {
	Question         string
	Analysis         models.ImageAnalysisReport
	History          models.OnlineHistory
	ThematicSnippets []string
}

// Outcome is the synthesis result together with the intermediate
// deterministic findings that fed the prompt.
type Outcome struct {
	Intent         models.Intent
	Signals        []models.ProgrammaticSignal
	HistorySummary string
	Verdict        models.ImageVerdict
}

// Engine runs intent tagging, signal extraction and one guided generation.
type Engine struct {
	provider  llm.Provider
	settings  config.TaskSettings
	extractor *SignalExtractor
}

// NewEngine creates a synthesis engine.
func NewEngine(provider llm.Provider, settings config.TaskSettings, extractor *SignalExtractor) *Engine {
	if extractor == nil {
		extractor = NewSignalExtractor()
	}
	return &Engine{provider: provider, settings: settings, extractor: extractor}
}

// Synthesize produces the final verdict for c. A failed generative call
// yields an ERROR verdict; the reply is never parsed in that case.
func (e *Engine) Synthesize(ctx context.Context, c Case) Outcome {
	out := Outcome{Intent: ClassifyIntent(c.Question)}
	out.Signals, out.HistorySummary = e.extractor.Extract(c.History)

	prompt, err := BuildPrompt(c, out.Intent, out.Signals, out.HistorySummary)
	if err != nil {
		out.Verdict = errorVerdict(err)
		return out
	}

	start := time.Now()
	reply, err := e.provider.Complete(ctx, llm.ForTask(e.settings, systemPrompt, prompt))
	if err != nil {
		log.Error().Err(err).Str("provider", e.provider.Name()).Msg("Synthesis call failed")
		out.Verdict = errorVerdict(err)
		return out
	}

	out.Verdict = ParseVerdict(reply)
	log.Info().
		Str("intent", string(out.Intent)).
		Int("signals", len(out.Signals)).
		Str("verdict", string(out.Verdict.FinalVerdict)).
		Dur("duration", time.Since(start)).
		Msg("Image verdict synthesized")
	return out
}

func errorVerdict(err error) models.ImageVerdict {
	return models.ImageVerdict{
		EventTruthfulness: models.EventNA,
		ImageContext:      models.ContextNA,
		FinalVerdict:      models.FinalError,
		Explanation:       "The reasoning model failed to respond, so no verdict could be reached. Please try again.",
		Error:             err.Error(),
	}
}
