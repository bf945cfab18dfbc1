package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/llm"
	"github.com/factchecker/factlens/internal/models"
)

type fakeProvider struct {
	reply string
	err   error
	calls int
	last  llm.Request
}

func (f *fakeProvider) Complete(_ context.Context, r llm.Request) (string, error) {
	f.calls++
	f.last = r
	return f.reply, f.err
}

func (f *fakeProvider) Name() string { return "fake" }

func history(titles ...string) models.OnlineHistory {
	h := models.OnlineHistory{}
	for _, t := range titles {
		h.SourceResults = append(h.SourceResults, models.VisualMatch{Title: t, Link: "https://example.com"})
	}
	return h
}

const (
	hoaxSignal         = "CRITICAL: Online history contains strong evidence of a hoax or refutation."
	manipulationSignal = "NOTE: Online history suggests the image is a meme or has been photoshopped."
)

func TestExtractSignals(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		want   []models.ProgrammaticSignal
	}{
		{"hoax", []string{"Dead celebrity hoax debunked"}, []string{hoaxSignal}},
		{"manipulation only", []string{"funny photoshopped meme"}, []string{manipulationSignal}},
		{"nothing", []string{"breaking news report"}, []string{}},
		{"both in table order", []string{"Satire site posts parody", "Actor is NOT DEAD, says agent"}, []string{hoaxSignal, manipulationSignal}},
		{"no titles", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ExtractSignals(history(tt.titles...))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractSignalsSummary(t *testing.T) {
	_, summary := ExtractSignals(history("Eiffel Tower At Night", "Paris Travel Guide"))
	assert.Equal(t, "The image appears on pages with these titles: eiffel tower at night; paris travel guide", summary)

	_, summary = ExtractSignals(models.OnlineHistory{Note: "No visual matches found online."})
	assert.Equal(t, NoHistorySummary, summary)
}

func TestSignalExtractorExtraRules(t *testing.T) {
	extra := RulesFromConfig([]config.SignalRuleConfig{
		{Category: "satire-outlet", Keywords: []string{"The Onion"}, Signal: "NOTE: satirical outlet."},
	})
	got, _ := NewSignalExtractor(extra...).Extract(history("the onion: man bites dog"))
	assert.Equal(t, []string{"NOTE: satirical outlet."}, got)
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		question string
		want     models.Intent
	}{
		{"Is this photo real?", models.IntentImageAuthenticity},
		{"Is this AI-generated?", models.IntentImageAuthenticity},
		{"Was this picture doctored", models.IntentImageAuthenticity},
		{"Was this image faked?", models.IntentImageAuthenticity},
		{"Is this photograph authentic?", models.IntentImageAuthenticity},
		{"What did the minister say about AI?", models.IntentImageAuthenticity},
		{"What has the mayor said about the flood?", models.IntentNewsContent},
		{"Did the president say this?", models.IntentNewsContent},
		{"Did this celebrity die last week?", models.IntentNewsContent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyIntent(tt.question), tt.question)
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  models.ImageVerdict
	}{
		{
			name: "complete reply",
			reply: `EVENT TRUTHFULNESS: Event is Real
IMAGE CONTEXT: Accurate Context
OVERALL CONCLUSION: SUPPORTED
The tower appears on travel pages and the caption matches.`,
			want: models.ImageVerdict{
				EventTruthfulness: models.EventReal,
				ImageContext:      models.ContextAccurate,
				FinalVerdict:      models.FinalSupported,
				Explanation:       "The tower appears on travel pages and the caption matches.",
			},
		},
		{
			name: "missing image context",
			reply: `EVENT TRUTHFULNESS: Event is Fake
OVERALL CONCLUSION: REFUTED
Pages call it a hoax.`,
			want: models.ImageVerdict{
				EventTruthfulness: models.EventFake,
				ImageContext:      models.ContextUncertain,
				FinalVerdict:      models.FinalRefuted,
				Explanation:       "Pages call it a hoax.",
			},
		},
		{
			name:  "conclusion is case normalized",
			reply: "OVERALL CONCLUSION: supported",
			want: models.ImageVerdict{
				EventTruthfulness: models.EventUncertain,
				ImageContext:      models.ContextUncertain,
				FinalVerdict:      models.FinalSupported,
				Explanation:       Defaults.Explanation,
			},
		},
		{
			name: "markdown and lowercase labels",
			reply: `Here is my analysis.
**Event truthfulness:** event is real
- image context: **Misleading Context**
overall conclusion: MISLEADING - the photo is from 2015.
The photo is old.`,
			want: models.ImageVerdict{
				EventTruthfulness: models.EventReal,
				ImageContext:      models.ContextMisleading,
				FinalVerdict:      models.FinalMisleading,
				Explanation:       "Here is my analysis.\nThe photo is old.",
			},
		},
		{
			name: "trailing commentary after values",
			reply: `EVENT TRUTHFULNESS: Event is Real (confirmed by Reuters)
IMAGE CONTEXT: Misleading Context - the photo is from 2015
OVERALL CONCLUSION: MISLEADING - old photo
The flood happened but the photo is older.`,
			want: models.ImageVerdict{
				EventTruthfulness: models.EventReal,
				ImageContext:      models.ContextMisleading,
				FinalVerdict:      models.FinalMisleading,
				Explanation:       "The flood happened but the photo is older.",
			},
		},
		{
			name: "value must end on a word boundary",
			reply: `EVENT TRUTHFULNESS: Event is Realistic
IMAGE CONTEXT: N/A, no context given`,
			want: models.ImageVerdict{
				EventTruthfulness: models.EventUncertain,
				ImageContext:      models.ContextNA,
				FinalVerdict:      models.FinalUncertain,
				Explanation:       Defaults.Explanation,
			},
		},
		{
			name: "unknown values fall back",
			reply: `EVENT TRUTHFULNESS: probably
IMAGE CONTEXT: weird
OVERALL CONCLUSION: ERROR`,
			want: models.ImageVerdict{
				EventTruthfulness: models.EventUncertain,
				ImageContext:      models.ContextUncertain,
				FinalVerdict:      models.FinalUncertain,
				Explanation:       Defaults.Explanation,
			},
		},
		{
			name:  "empty reply",
			reply: "",
			want:  Defaults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVerdict(tt.reply))
		})
	}
}

func TestParseVerdictIgnoresLabelsMidLine(t *testing.T) {
	v := ParseVerdict("The analyst wrote OVERALL CONCLUSION: REFUTED in the notes.")
	assert.Equal(t, models.FinalUncertain, v.FinalVerdict)
	assert.Equal(t, "The analyst wrote OVERALL CONCLUSION: REFUTED in the notes.", v.Explanation)
}

func testCase() Case {
	return Case{
		Question: "Did this celebrity die last week?",
		Analysis: models.ImageAnalysisReport{
			Caption: "a man smiling on a red carpet",
			OCRText: "RIP 1970 2024",
			Authenticity: models.AuthenticityReport{
				Verdict: models.AuthenticityReal, Confidence: 0.88, RawScoreReal: 0.88, RawScoreFake: 0.12,
			},
		},
		History:          history("Celebrity death hoax spreads online"),
		ThematicSnippets: []string{"The actor's agent confirmed he is alive and well."},
	}
}

func TestEngineSynthesize(t *testing.T) {
	p := &fakeProvider{reply: "EVENT TRUTHFULNESS: Event is Fake\nIMAGE CONTEXT: Misleading Context\nOVERALL CONCLUSION: REFUTED\nThe death report is a hoax."}
	settings := config.TaskSettings{Temperature: 0.1, TopP: 0.1, MaxTokens: 1024}

	out := NewEngine(p, settings, nil).Synthesize(context.Background(), testCase())

	require.Equal(t, 1, p.calls)
	assert.Equal(t, models.IntentNewsContent, out.Intent)
	assert.Equal(t, []string{hoaxSignal}, out.Signals)
	assert.Equal(t, models.FinalRefuted, out.Verdict.FinalVerdict)
	assert.Equal(t, models.EventFake, out.Verdict.EventTruthfulness)
	assert.Empty(t, out.Verdict.Error)

	assert.Equal(t, 0.1, p.last.Temperature)
	assert.Equal(t, 0.1, p.last.TopP)
	assert.Contains(t, p.last.System, "fact-checking analyst")
	prompt := p.last.User
	assert.Contains(t, prompt, "Programmatic Signals (Most Important Evidence):\n- "+hoaxSignal)
	assert.Contains(t, prompt, "Question intent: NEWS_CONTENT")
	assert.Contains(t, prompt, "celebrity death hoax spreads online")
	assert.Contains(t, prompt, "- The actor's agent confirmed he is alive and well.")
	assert.Contains(t, prompt, `Text in image (OCR): "RIP 1970 2024"`)
	assert.Contains(t, prompt, "Classified as 'Real' with 0.88 confidence")
	for _, label := range []string{"EVENT TRUTHFULNESS:", "IMAGE CONTEXT:", "OVERALL CONCLUSION:"} {
		assert.Contains(t, prompt, label)
	}
	assert.Contains(t, prompt, "Step 4:")
}

func TestEngineSynthesizeGenerativeFailure(t *testing.T) {
	p := &fakeProvider{reply: "OVERALL CONCLUSION: SUPPORTED", err: errors.New("groq returned status 503")}

	out := NewEngine(p, config.TaskSettings{}, nil).Synthesize(context.Background(), testCase())

	assert.Equal(t, models.FinalError, out.Verdict.FinalVerdict)
	assert.Equal(t, models.EventNA, out.Verdict.EventTruthfulness)
	assert.Equal(t, models.ContextNA, out.Verdict.ImageContext)
	assert.Equal(t, "groq returned status 503", out.Verdict.Error)
	assert.NotEmpty(t, out.Verdict.Explanation)
	// Deterministic findings are still reported.
	assert.Equal(t, []string{hoaxSignal}, out.Signals)
}

func TestBuildPromptPlaceholders(t *testing.T) {
	c := Case{Question: "Is this photo real?"}
	prompt, err := BuildPrompt(c, ClassifyIntent(c.Question), nil, NoHistorySummary)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Programmatic Signals (Most Important Evidence):\n- None")
	assert.Contains(t, prompt, "- No related coverage found.")
	assert.Contains(t, prompt, `Image content (caption): "Unavailable"`)
	assert.Contains(t, prompt, "Pixel authenticity analysis: Unavailable")
	assert.True(t, strings.Contains(prompt, "whether the image itself is genuine"))
}
