package synthesis

import (
	"regexp"
	"strings"

	"github.com/factchecker/factlens/internal/models"
)

// authenticityKeywords mark a question about the image itself rather than
// the news it shows. They match anywhere in the question, so "faked" and
// "photograph" count.
var authenticityKeywords = []string{"photo", "real", "fake", "photoshop", "generated", "doctored"}

// aiToken is matched on word boundaries so "said" does not count.
var aiToken = regexp.MustCompile(`\bai\b`)

// ClassifyIntent tags the user's question. The tag only steers the prompt.
func ClassifyIntent(question string) models.Intent {
	q := strings.ToLower(question)
	if aiToken.MatchString(q) {
		return models.IntentImageAuthenticity
	}
	for _, kw := range authenticityKeywords {
		if strings.Contains(q, kw) {
			return models.IntentImageAuthenticity
		}
	}
	return models.IntentNewsContent
}
