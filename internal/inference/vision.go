package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/factchecker/factlens/internal/models"
)

// HFCaptioner captions images with an image-to-text model.
type HFCaptioner struct {
	client *HFClient
	model  string
}

// NewHFCaptioner creates a captioner backed by an image-to-text model.
func NewHFCaptioner(client *HFClient, model string) *HFCaptioner {
	return &HFCaptioner{client: client, model: model}
}

// Caption returns the generated caption for img.
func (c *HFCaptioner) Caption(ctx context.Context, img models.Image) (string, error) {
	var result []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := c.client.PostBinary(ctx, c.model, img.ContentType, img.Data, &result); err != nil {
		return "", err
	}
	if len(result) == 0 || strings.TrimSpace(result[0].GeneratedText) == "" {
		return "", fmt.Errorf("captioning model returned no text")
	}
	return strings.TrimSpace(result[0].GeneratedText), nil
}

// AuthenticityPolicy turns detector scores into a verdict.
type AuthenticityPolicy struct {
	Threshold float64
	RealLabel string
	FakeLabel string
}

// Decide picks the best-scoring label. Below the threshold the verdict is
// Uncertain; otherwise it is Real for the real label and Fake for any other.
func (p AuthenticityPolicy) Decide(scores map[string]float64) (models.AuthenticityReport, error) {
	if len(scores) == 0 {
		return models.AuthenticityReport{}, fmt.Errorf("detector returned no labels")
	}

	var bestLabel string
	bestScore := -1.0
	for label, score := range scores {
		// Ties resolve to the lexically smaller label so the result is stable.
		if score > bestScore || (score == bestScore && label < bestLabel) {
			bestLabel, bestScore = label, score
		}
	}

	confidence := round2(bestScore)
	verdict := models.AuthenticityFake
	switch {
	case confidence < p.Threshold:
		verdict = models.AuthenticityUncertain
	case bestLabel == p.RealLabel:
		verdict = models.AuthenticityReal
	}

	return models.AuthenticityReport{
		Verdict:      verdict,
		Confidence:   confidence,
		RawScoreReal: round2(scores[p.RealLabel]),
		RawScoreFake: round2(scores[p.FakeLabel]),
	}, nil
}

// HFAuthenticityClassifier detects synthetic images with an
// image-classification model.
type HFAuthenticityClassifier struct {
	client *HFClient
	model  string
	policy AuthenticityPolicy
}

// NewHFAuthenticityClassifier creates an authenticity classifier.
func NewHFAuthenticityClassifier(client *HFClient, model string, policy AuthenticityPolicy) *HFAuthenticityClassifier {
	policy.RealLabel = strings.ToLower(policy.RealLabel)
	policy.FakeLabel = strings.ToLower(policy.FakeLabel)
	return &HFAuthenticityClassifier{client: client, model: model, policy: policy}
}

// Classify returns the authenticity verdict for img.
func (c *HFAuthenticityClassifier) Classify(ctx context.Context, img models.Image) (models.AuthenticityReport, error) {
	var raw json.RawMessage
	if err := c.client.PostBinary(ctx, c.model, img.ContentType, img.Data, &raw); err != nil {
		return models.AuthenticityReport{}, err
	}

	labels, err := decodeLabelScores(raw)
	if err != nil {
		return models.AuthenticityReport{}, err
	}

	scores := make(map[string]float64, len(labels))
	for _, l := range labels {
		scores[strings.ToLower(l.Label)] = l.Score
	}
	return c.policy.Decide(scores)
}
