package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/factchecker/factlens/internal/models"
)

// NLIClassifier classifies stance with a natural-language-inference model.
// The evidence is the premise and the claim the hypothesis.
type NLIClassifier struct {
	client *HFClient
	model  string
}

// NewNLIClassifier creates a stance classifier backed by an NLI model.
func NewNLIClassifier(client *HFClient, model string) *NLIClassifier {
	return &NLIClassifier{client: client, model: model}
}

type nliInputs struct {
	Text     string `json:"text"`
	TextPair string `json:"text_pair"`
}

// Classify returns the stance of evidence toward claim.
func (c *NLIClassifier) Classify(ctx context.Context, claim, evidence string) (models.StanceResult, error) {
	payload := map[string]any{"inputs": nliInputs{Text: evidence, TextPair: claim}}

	var raw json.RawMessage
	if err := c.client.PostJSON(ctx, c.model, payload, &raw); err != nil {
		return models.StanceResult{}, err
	}

	scores, err := decodeLabelScores(raw)
	if err != nil {
		return models.StanceResult{}, err
	}
	top, ok := best(scores)
	if !ok {
		return models.StanceResult{}, fmt.Errorf("NLI model returned no labels")
	}

	return models.StanceResult{
		Evidence: evidence,
		Stance:   StanceFromLabel(top.Label),
		Score:    round2(top.Score),
	}, nil
}

// StanceFromLabel maps an NLI label to a stance. Unknown labels are neutral.
func StanceFromLabel(label string) models.Stance {
	switch strings.ToLower(label) {
	case "entailment":
		return models.StanceSupports
	case "contradiction":
		return models.StanceRefutes
	default:
		return models.StanceNeutral
	}
}
