package routing

import (
	"strings"
	"unicode"
)

// MatchResult is the per-scenario outcome of one routing call.
// It is created and discarded within a single Route invocation.
type MatchResult struct {
	ScenarioID string
	RawScore   float64
	GatePassed bool
}

// Normalize lowercases the input, replaces punctuation with spaces
// (digits are kept — INN/OGRN sequences are meaningful signals), and
// collapses runs of whitespace. It is idempotent.
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			// Punctuation and whitespace both act as separators.
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// Score evaluates one scenario against normalized text.
//
// If the scenario declares hard gates and none match, it is excluded
// immediately: GatePassed=false, RawScore=0. Otherwise every soft
// pattern that matches contributes its weight exactly once, no matter
// how many occurrences — a repeated keyword must not dominate.
func Score(s *Scenario, normalized string) MatchResult {
	if len(s.gates) > 0 {
		passed := false
		for _, gate := range s.gates {
			if gate.MatchString(normalized) {
				passed = true
				break
			}
		}
		if !passed {
			return MatchResult{ScenarioID: s.ID, RawScore: 0, GatePassed: false}
		}
	}

	return MatchResult{ScenarioID: s.ID, RawScore: s.softScore(normalized), GatePassed: true}
}

// softScore sums matched soft-pattern weights, ignoring gates.
// Patterns are walked in sorted source order, so the accumulated float
// is identical across calls.
func (s *Scenario) softScore(normalized string) float64 {
	var total float64
	for _, p := range s.soft {
		if p.re.MatchString(normalized) {
			total += p.weight
		}
	}
	return total
}
