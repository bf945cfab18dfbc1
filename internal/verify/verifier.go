package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/llm"
	"github.com/factchecker/factlens/internal/models"
)

const narrationSystemPrompt = `You are a fact-checking assistant. Verify a factual claim using the provided evidence. Always respond with a clear VERDICT and a concise EXPLANATION.

Respond only in this format:
VERDICT: [SUPPORTED/REFUTED/NOT ENOUGH INFO]
EXPLANATION: <reasoning>`

const (
	verdictLabel     = "VERDICT:"
	explanationLabel = "EXPLANATION:"
)

// ClaimVerifier narrates a verdict for a claim from its evidence snippets.
type ClaimVerifier struct {
	provider llm.Provider
	settings config.TaskSettings
}

// NewClaimVerifier creates a new claim verifier.
func NewClaimVerifier(provider llm.Provider, settings config.TaskSettings) *ClaimVerifier {
	return &ClaimVerifier{provider: provider, settings: settings}
}

// Verify asks the model for a verdict on claim given snippets.
func (v *ClaimVerifier) Verify(ctx context.Context, claim models.Claim, snippets []string) (models.Verdict, string, error) {
	var evidence strings.Builder
	for i, s := range snippets {
		if i > 0 {
			evidence.WriteString("\n\n")
		}
		evidence.WriteString("- ")
		evidence.WriteString(s)
	}
	userPrompt := fmt.Sprintf("Claim:\n%s\n\nEvidence:\n%s", claim, evidence.String())

	response, err := v.provider.Complete(ctx, llm.ForTask(v.settings, narrationSystemPrompt, userPrompt))
	if err != nil {
		return models.VerdictNotEnoughInfo, "", fmt.Errorf("verification failed: %w", err)
	}

	verdict, explanation := parseNarration(response)
	return verdict, explanation, nil
}

// parseNarration reads the VERDICT and EXPLANATION lines. Labels match
// case-insensitively. The verdict defaults to NOT ENOUGH INFO; the
// explanation runs from its label to the end of the reply, or is the whole
// reply when the label is missing.
func parseNarration(reply string) (models.Verdict, string) {
	verdict := models.VerdictNotEnoughInfo
	explanation := ""
	found := false

	lines := strings.Split(reply, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(strings.TrimSpace(line), "*#_ ")
		switch {
		case hasLabel(trimmed, verdictLabel):
			verdict = normalizeVerdict(trimmed[len(verdictLabel):])
		case hasLabel(trimmed, explanationLabel) && !found:
			found = true
			rest := append([]string{trimmed[len(explanationLabel):]}, lines[i+1:]...)
			explanation = strings.TrimSpace(strings.Trim(strings.Join(rest, "\n"), "*_ "))
		}
	}

	if !found {
		explanation = strings.TrimSpace(reply)
	}
	return verdict, explanation
}

func hasLabel(line, label string) bool {
	return len(line) >= len(label) && strings.EqualFold(line[:len(label)], label)
}

// normalizeVerdict maps a verdict value onto the enum, tolerating brackets,
// emphasis and trailing commentary.
func normalizeVerdict(value string) models.Verdict {
	v := strings.ToUpper(strings.Trim(strings.TrimSpace(value), "*_[]`\"' "))
	for _, candidate := range []models.Verdict{models.VerdictNotEnoughInfo, models.VerdictSupported, models.VerdictRefuted} {
		if strings.HasPrefix(v, string(candidate)) {
			return candidate
		}
	}
	return models.VerdictNotEnoughInfo
}
