package verify

import "github.com/factchecker/factlens/internal/models"

// CredibilityScore returns (supports - refutes) / (supports + refutes) over
// the classified evidence, or 0 when no snippet takes a side. The result is
// always in [-1, 1]; neutral snippets do not count.
func CredibilityScore(results []models.StanceResult) float64 {
	var supports, refutes int
	for _, r := range results {
		switch r.Stance {
		case models.StanceSupports:
			supports++
		case models.StanceRefutes:
			refutes++
		}
	}

	total := supports + refutes
	if total == 0 {
		return 0
	}
	return float64(supports-refutes) / float64(total)
}
