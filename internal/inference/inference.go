// Package inference provides adapters for hosted model inference: stance
// classification, image captioning, OCR and synthetic-image detection.
package inference

import (
	"context"
	"math"

	"github.com/factchecker/factlens/internal/models"
)

// StanceClassifier decides whether one evidence snippet supports, refutes or
// is neutral toward a claim.
type StanceClassifier interface {
	Classify(ctx context.Context, claim, evidence string) (models.StanceResult, error)
}

// Captioner produces a short natural-language description of an image.
type Captioner interface {
	Caption(ctx context.Context, img models.Image) (string, error)
}

// TextExtractor reads the text printed in an image.
type TextExtractor interface {
	ExtractText(ctx context.Context, img models.Image) (string, error)
}

// AuthenticityClassifier estimates whether an image is camera-captured or
// synthetic.
type AuthenticityClassifier interface {
	Classify(ctx context.Context, img models.Image) (models.AuthenticityReport, error)
}

// round2 rounds to two decimals, matching the precision scores are reported at.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
