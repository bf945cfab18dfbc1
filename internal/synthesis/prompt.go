package synthesis

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/factchecker/factlens/internal/models"
)

const systemPrompt = `You are a world-class multimodal fact-checking analyst. You receive a structured case file about an image and a user's question. Reason over the evidence and answer using the exact output template you are given. Never omit a labeled line.`

var casePromptTmpl = template.Must(template.New("case").Parse(`CASE FILE
User's question: "{{.Question}}"
Question intent: {{.Intent}}

Programmatic Signals (Most Important Evidence):
{{- if .Signals}}
{{- range .Signals}}
- {{.}}
{{- end}}
{{- else}}
- None
{{- end}}

Online history (reverse image search): {{.HistorySummary}}

Thematic search (news coverage of the topic):
{{- if .Thematic}}
{{- range .Thematic}}
- {{.}}
{{- end}}
{{- else}}
- No related coverage found.
{{- end}}

Image content (caption): "{{.Caption}}"
Text in image (OCR): "{{.OCRText}}"
Pixel authenticity analysis: {{.Authenticity}}

INSTRUCTIONS
Step 1: Read the Programmatic Signals first. They come from deterministic checks and override weaker evidence.
Step 2: Decide whether the event the user asks about actually happened, using the thematic search and online history.
Step 3: Decide whether this image is used in its original context. Compare the caption and OCR text with the online history and the authenticity analysis.
Step 4: Combine steps 2 and 3 into one overall conclusion that answers the user's question.{{if eq .Intent "IMAGE_AUTHENTICITY"}} The user mainly wants to know whether the image itself is genuine.{{else}} The user mainly wants to know whether the news the image carries is true.{{end}}

OUTPUT TEMPLATE (use these three lines exactly, then your explanation)
EVENT TRUTHFULNESS: <Event is Real | Event is Fake | Uncertain | N/A>
IMAGE CONTEXT: <Accurate Context | Misleading Context | Fabricated Image | Contextual Graphic | N/A>
OVERALL CONCLUSION: <SUPPORTED | REFUTED | MISLEADING | UNCERTAIN>
<A short explanation citing the evidence that decided the case.>
`))

type promptData struct {
	Question       string
	Intent         models.Intent
	Signals        []models.ProgrammaticSignal
	HistorySummary string
	Thematic       []string
	Caption        string
	OCRText        string
	Authenticity   string
}

// BuildPrompt renders the case file for one synthesis call.
func BuildPrompt(c Case, intent models.Intent, signals []models.ProgrammaticSignal, historySummary string) (string, error) {
	data := promptData{
		Question:       c.Question,
		Intent:         intent,
		Signals:        signals,
		HistorySummary: historySummary,
		Thematic:       c.ThematicSnippets,
		Caption:        orNone(c.Analysis.Caption, "Unavailable"),
		OCRText:        orNone(c.Analysis.OCRText, "None"),
		Authenticity:   describeAuthenticity(c.Analysis.Authenticity),
	}

	var buf bytes.Buffer
	if err := casePromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render synthesis prompt: %w", err)
	}
	return buf.String(), nil
}

func describeAuthenticity(a models.AuthenticityReport) string {
	if a.Error != "" {
		return "Unavailable (" + a.Error + ")"
	}
	if a.Verdict == "" {
		return "Unavailable"
	}
	return fmt.Sprintf("Classified as '%s' with %.2f confidence (real %.2f, synthetic %.2f).",
		a.Verdict, a.Confidence, a.RawScoreReal, a.RawScoreFake)
}

func orNone(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
