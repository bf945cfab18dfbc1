// Package synthesis turns image evidence into a final verdict: deterministic
// signals and intent tagging, one guided generation, and a strict parse of
// the labeled reply.
package synthesis

import (
	"strings"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/models"
)

// NoHistorySummary is the summary used when no titles are available.
const NoHistorySummary = "No significant online history found."

// Rule fires its Signal when any online-history title contains any keyword.
type Rule struct {
	Category string
	Keywords []string
	Signal   string
}

// DefaultRules are evaluated in order; hoax evidence outranks manipulation.
var DefaultRules = []Rule{
	{
		Category: "hoax",
		Keywords: []string{"didn't die", "not dead", "hoax", "awareness campaign", "fake death"},
		Signal:   "CRITICAL: Online history contains strong evidence of a hoax or refutation.",
	},
	{
		Category: "manipulation",
		Keywords: []string{"photoshop", "meme", "spam photo", "parody", "satire"},
		Signal:   "NOTE: Online history suggests the image is a meme or has been photoshopped.",
	},
}

// SignalExtractor applies a rule table to online-history titles.
type SignalExtractor struct {
	rules []Rule
}

// NewSignalExtractor returns an extractor over DefaultRules followed by extra.
func NewSignalExtractor(extra ...Rule) *SignalExtractor {
	rules := make([]Rule, 0, len(DefaultRules)+len(extra))
	rules = append(rules, DefaultRules...)
	rules = append(rules, extra...)
	return &SignalExtractor{rules: rules}
}

// RulesFromConfig converts configured rules.
func RulesFromConfig(cfgs []config.SignalRuleConfig) []Rule {
	rules := make([]Rule, 0, len(cfgs))
	for _, c := range cfgs {
		rules = append(rules, Rule{Category: c.Category, Keywords: c.Keywords, Signal: c.Signal})
	}
	return rules
}

// Extract returns the fired signals in rule order and a prompt-ready summary
// of the lowercased titles.
func (e *SignalExtractor) Extract(history models.OnlineHistory) ([]models.ProgrammaticSignal, string) {
	titles := make([]string, 0, len(history.SourceResults))
	for _, m := range history.SourceResults {
		titles = append(titles, strings.ToLower(m.Title))
	}

	signals := []models.ProgrammaticSignal{}
	if len(titles) == 0 {
		return signals, NoHistorySummary
	}

	for _, rule := range e.rules {
		if anyContains(titles, rule.Keywords) {
			signals = append(signals, rule.Signal)
		}
	}

	summary := "The image appears on pages with these titles: " + strings.Join(titles, "; ")
	return signals, summary
}

// ExtractSignals applies DefaultRules.
func ExtractSignals(history models.OnlineHistory) ([]models.ProgrammaticSignal, string) {
	return NewSignalExtractor().Extract(history)
}

func anyContains(titles, keywords []string) bool {
	for _, title := range titles {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(title, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}
