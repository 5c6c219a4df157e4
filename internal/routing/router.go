package routing

import (
	"fmt"
	"sort"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
)

// DefaultConfidenceThreshold gates auto-routing: below it the router
// asks for clarification instead of guessing.
const DefaultConfidenceThreshold = 0.75

// DefaultMaxClarifications caps how many candidate scenarios a
// clarification reply offers.
const DefaultMaxClarifications = 3

// Router turns one user-supplied string into a RoutingDecision.
// It is stateless across calls and safe for concurrent use: the catalog
// is read-only after construction and Route performs no I/O.
type Router struct {
	catalog    *Catalog
	threshold  float64
	maxClarify int
}

// Option configures a Router.
type Option func(*Router)

// WithConfidenceThreshold overrides the 0.75 default.
func WithConfidenceThreshold(t float64) Option {
	return func(r *Router) {
		if t > 0 && t <= 1 {
			r.threshold = t
		}
	}
}

// WithMaxClarifications overrides the top-3 candidate cap.
func WithMaxClarifications(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxClarify = n
		}
	}
}

// New creates a router over an immutable catalog.
func New(catalog *Catalog, opts ...Option) *Router {
	r := &Router{
		catalog:    catalog,
		threshold:  DefaultConfidenceThreshold,
		maxClarify: DefaultMaxClarifications,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route classifies text. It never fails: every input, including empty
// or adversarial strings, maps to a well-formed decision.
func (r *Router) Route(text string) domain.RoutingDecision {
	normalized := Normalize(text)
	if normalized == "" {
		return domain.RoutingDecision{
			ScenarioID:          domain.ScenarioUndetermined,
			Confidence:          0.0,
			IsConfident:         false,
			ClarifyingQuestions: []string{"could you describe your request in a few words?"},
		}
	}

	scenarios := r.catalog.Scenarios()
	results := make([]MatchResult, 0, len(scenarios))
	for i := range scenarios {
		results = append(results, Score(&scenarios[i], normalized))
	}

	passing := make([]MatchResult, 0, len(results))
	var total float64
	for _, res := range results {
		if res.GatePassed {
			passing = append(passing, res)
			total += res.RawScore
		}
	}

	// No gate passed, or nothing scored: clarify from soft scores with
	// gates ignored, so the user still gets a useful hint.
	if len(passing) == 0 || total == 0 {
		return domain.RoutingDecision{
			ScenarioID:          domain.ScenarioUndetermined,
			Confidence:          0.0,
			IsConfident:         false,
			ClarifyingQuestions: r.gatelessHints(normalized),
		}
	}

	sortByScoreThenID(passing)
	best := passing[0]
	confidence := best.RawScore / total

	if confidence >= r.threshold {
		return domain.RoutingDecision{
			ScenarioID:          best.ScenarioID,
			Confidence:          confidence,
			IsConfident:         true,
			ClarifyingQuestions: []string{},
		}
	}

	questions := make([]string, 0, r.maxClarify)
	for _, res := range passing {
		if res.RawScore == 0 || len(questions) == r.maxClarify {
			break
		}
		questions = append(questions, r.didYouMean(res.ScenarioID))
	}

	return domain.RoutingDecision{
		ScenarioID:          domain.ScenarioUndetermined,
		Confidence:          confidence,
		IsConfident:         false,
		ClarifyingQuestions: questions,
	}
}

// gatelessHints builds clarifying questions from the highest soft
// scores with hard gates ignored. When every score is zero it falls
// back to listing all scenario labels.
func (r *Router) gatelessHints(normalized string) []string {
	scenarios := r.catalog.Scenarios()

	type hint struct {
		id    string
		score float64
	}
	hints := make([]hint, 0, len(scenarios))
	for i := range scenarios {
		hints = append(hints, hint{id: scenarios[i].ID, score: scenarios[i].softScore(normalized)})
	}
	sort.Slice(hints, func(i, j int) bool {
		if hints[i].score == hints[j].score {
			return hints[i].id < hints[j].id
		}
		return hints[i].score > hints[j].score
	})

	if hints[0].score == 0 {
		// Zero signal everywhere: offer the full menu.
		questions := make([]string, 0, len(hints))
		for _, h := range hints {
			questions = append(questions, r.didYouMean(h.id))
		}
		return questions
	}

	questions := make([]string, 0, r.maxClarify)
	for _, h := range hints {
		if h.score == 0 || len(questions) == r.maxClarify {
			break
		}
		questions = append(questions, r.didYouMean(h.id))
	}
	return questions
}

func (r *Router) didYouMean(scenarioID string) string {
	label := scenarioID
	if s, ok := r.catalog.Lookup(scenarioID); ok {
		label = s.Label
	}
	return fmt.Sprintf("did you mean %s?", label)
}

// sortByScoreThenID orders results by score descending; equal scores
// fall back to the lexicographically smaller id.
func sortByScoreThenID(results []MatchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].RawScore == results[j].RawScore {
			return results[i].ScenarioID < results[j].ScenarioID
		}
		return results[i].RawScore > results[j].RawScore
	})
}
