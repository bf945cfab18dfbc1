package synthesis

import (
	"strings"

	"github.com/factchecker/factlens/internal/models"
)

const (
	labelEvent      = "EVENT TRUTHFULNESS:"
	labelContext    = "IMAGE CONTEXT:"
	labelConclusion = "OVERALL CONCLUSION:"
)

// Defaults is the value each field takes when its labeled line is missing or
// holds something outside the field's vocabulary.
var Defaults = models.ImageVerdict{
	EventTruthfulness: models.EventUncertain,
	ImageContext:      models.ContextUncertain,
	FinalVerdict:      models.FinalUncertain,
	Explanation:       "The model did not provide an explanation.",
}

var eventValues = []models.EventTruthfulness{
	models.EventReal, models.EventFake, models.EventUncertain, models.EventNA,
}

var contextValues = []models.ImageContext{
	models.ContextAccurate, models.ContextMisleading, models.ContextFabricated,
	models.ContextGraphic, models.ContextUncertain, models.ContextNA,
}

// conclusionValues excludes ERROR, which is reserved for failed calls.
var conclusionValues = []models.FinalVerdict{
	models.FinalSupported, models.FinalRefuted, models.FinalUncertain, models.FinalMisleading,
}

// ParseVerdict reads the three labeled lines from a synthesis reply. Labels
// match case-insensitively at the start of a line, ignoring leading Markdown
// emphasis. The explanation is the reply with the labeled lines removed. It
// never fails; every missing field takes its value from Defaults.
func ParseVerdict(reply string) models.ImageVerdict {
	v := Defaults
	var rest []string

	for _, line := range strings.Split(reply, "\n") {
		label, value, ok := matchLabel(line)
		if !ok {
			rest = append(rest, line)
			continue
		}
		switch label {
		case labelEvent:
			if ev, ok := leadingValue(value, eventValues); ok {
				v.EventTruthfulness = ev
			}
		case labelContext:
			if ctx, ok := leadingValue(value, contextValues); ok {
				v.ImageContext = ctx
			}
		case labelConclusion:
			v.FinalVerdict = parseConclusion(value)
		}
	}

	if explanation := strings.TrimSpace(strings.Join(rest, "\n")); explanation != "" {
		v.Explanation = explanation
	}
	return v
}

// matchLabel returns the label a line starts with and the trimmed remainder.
func matchLabel(line string) (string, string, bool) {
	trimmed := strings.TrimLeft(strings.TrimSpace(line), "*#_>- ")
	for _, label := range []string{labelEvent, labelContext, labelConclusion} {
		if len(trimmed) >= len(label) && strings.EqualFold(trimmed[:len(label)], label) {
			value := trimmed[len(label):]
			return label, cleanValue(value), true
		}
	}
	return "", "", false
}

// cleanValue trims whitespace and the emphasis or bracket marks models put
// around a value.
func cleanValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), "*_`\"'<>[]. ")
}

// canonical returns the vocabulary entry equal to value, ignoring case.
func canonical[T ~string](value string, vocabulary []T) (T, bool) {
	for _, candidate := range vocabulary {
		if strings.EqualFold(value, string(candidate)) {
			return candidate, true
		}
	}
	var zero T
	return zero, false
}

// leadingValue returns the longest vocabulary entry the value starts with,
// ignoring case, so trailing commentary after the value is tolerated. The
// entry must end at a word boundary.
func leadingValue[T ~string](value string, vocabulary []T) (T, bool) {
	var found T
	ok := false
	for _, candidate := range vocabulary {
		c := string(candidate)
		if len(value) < len(c) || !strings.EqualFold(value[:len(c)], c) {
			continue
		}
		if len(value) > len(c) && isWordByte(value[len(c)]) {
			continue
		}
		if !ok || len(c) > len(found) {
			found, ok = candidate, true
		}
	}
	return found, ok
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// parseConclusion upper-cases the value and keeps its leading word, so
// "supported" and "SUPPORTED - the event is real" both read as SUPPORTED.
func parseConclusion(value string) models.FinalVerdict {
	upper := strings.ToUpper(value)
	end := strings.IndexFunc(upper, func(r rune) bool { return r < 'A' || r > 'Z' })
	if end >= 0 {
		upper = upper[:end]
	}
	if fv, ok := canonical(upper, conclusionValues); ok {
		return fv
	}
	return models.FinalUncertain
}
