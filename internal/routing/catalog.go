// Package routing implements the deterministic scenario router: it maps
// free-form user text (Russian legal vocabulary) to one of a fixed set
// of legal workflows using layered rule evaluation — hard gates, weighted
// soft patterns, a confidence threshold, and clarification fallback —
// instead of an opaque model call.
package routing

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"

	"gopkg.in/yaml.v3"
)

// Scenario is one immutable catalog entry: a workflow id, a display
// label for clarification prompts, and the matching rule set.
//
// HardGates are opt-in precision filters: if a scenario declares any and
// none match, the scenario is excluded from the routing call regardless
// of soft score. SoftPatterns map pattern source to a positive weight;
// each pattern contributes its weight at most once per call.
type Scenario struct {
	ID           string             `yaml:"id"`
	Label        string             `yaml:"label"`
	HardGates    []string           `yaml:"hard_gates"`
	SoftPatterns map[string]float64 `yaml:"soft_patterns"`

	gates []*regexp.Regexp
	soft  []softPattern
}

// softPattern is a compiled soft rule. Compiled patterns are kept in
// sorted source order so score accumulation is order-stable.
type softPattern struct {
	source string
	re     *regexp.Regexp
	weight float64
}

// Catalog is the fixed, validated scenario set. It is immutable after
// construction and safe to share across concurrent Route calls.
type Catalog struct {
	scenarios []Scenario
}

// NewCatalog compiles and validates a scenario list.
// It returns *domain.ErrConfig on an empty list, duplicate ids, a
// scenario without soft patterns, a non-positive weight, or an
// uncompilable pattern.
func NewCatalog(scenarios []Scenario) (*Catalog, error) {
	if len(scenarios) == 0 {
		return nil, &domain.ErrConfig{Reason: "catalog has no scenarios"}
	}
	seen := make(map[string]bool, len(scenarios))

	compiled := make([]Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		if s.ID == "" {
			return nil, &domain.ErrConfig{Reason: "scenario with empty id"}
		}
		if seen[s.ID] {
			return nil, &domain.ErrConfig{Reason: fmt.Sprintf("duplicate scenario id %q", s.ID)}
		}
		seen[s.ID] = true

		if len(s.SoftPatterns) == 0 {
			return nil, &domain.ErrConfig{Reason: fmt.Sprintf("scenario %q has no soft patterns", s.ID)}
		}

		s.gates = make([]*regexp.Regexp, 0, len(s.HardGates))
		for _, src := range s.HardGates {
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, &domain.ErrConfig{Reason: fmt.Sprintf("scenario %q: bad hard gate %q: %v", s.ID, src, err)}
			}
			s.gates = append(s.gates, re)
		}

		s.soft = make([]softPattern, 0, len(s.SoftPatterns))
		for src, weight := range s.SoftPatterns {
			if weight <= 0 {
				return nil, &domain.ErrConfig{Reason: fmt.Sprintf("scenario %q: pattern %q has non-positive weight", s.ID, src)}
			}
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, &domain.ErrConfig{Reason: fmt.Sprintf("scenario %q: bad soft pattern %q: %v", s.ID, src, err)}
			}
			s.soft = append(s.soft, softPattern{source: src, re: re, weight: weight})
		}
		sort.Slice(s.soft, func(i, j int) bool { return s.soft[i].source < s.soft[j].source })

		compiled = append(compiled, s)
	}

	return &Catalog{scenarios: compiled}, nil
}

// Scenarios returns the catalog entries in declaration order.
func (c *Catalog) Scenarios() []Scenario {
	return c.scenarios
}

// Lookup returns the scenario with the given id.
func (c *Catalog) Lookup(id string) (*Scenario, bool) {
	for i := range c.scenarios {
		if c.scenarios[i].ID == id {
			return &c.scenarios[i], true
		}
	}
	return nil, false
}

// Len reports the number of scenarios.
func (c *Catalog) Len() int { return len(c.scenarios) }

// Hard gates for the company lookup scenario: a bare 10- or 12-digit
// sequence (INN of a legal entity or sole proprietor). Patterns run
// against normalized text, so digit runs are space-delimited.
const (
	innGate10 = `(^|[^0-9])[0-9]{10}([^0-9]|$)`
	innGate12 = `(^|[^0-9])[0-9]{12}([^0-9]|$)`
)

// DefaultCatalog returns the canonical ten-scenario catalog: nine legal
// workflows plus the gated company registry lookup.
//
// Pattern notes: matching runs on Normalize output (lowercase, spaced),
// so patterns are lowercase and use `(^| )`/`( |$)` where a word
// boundary matters — RE2's \b is ASCII-only and useless for Cyrillic.
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog([]Scenario{
		{
			ID:    domain.ScenarioLegalDocumentStructuring,
			Label: "Legal Document Structuring",
			SoftPatterns: map[string]float64{
				`структур`:              1.2,
				`оформ.{0,12}документ`:  1.5,
				`составь документ`:      2.0,
				`(^| )шаблон`:           1.0,
				`раздел.{0,10}документ`: 0.8,
			},
		},
		{
			ID:    domain.ScenarioDisputePreparation,
			Label: "Dispute Preparation",
			SoftPatterns: map[string]float64{
				`(^| )спор`:        1.2,
				`(^| )иск( |$)`:    1.0,
				`арбитраж`:         1.2,
				`позици.{0,10}суд`: 1.5,
				`досудебн`:         0.6,
			},
		},
		{
			ID:    domain.ScenarioLegalOpinion,
			Label: "Legal Opinion",
			SoftPatterns: map[string]float64{
				`заключени`:              1.5,
				`правов.{0,15}оценк`:     1.2,
				`законност`:              1.0,
				`юридическ.{0,15}оценк`:  1.2,
				`правомерн`:              1.0,
			},
		},
		{
			ID:    domain.ScenarioClientExplanation,
			Label: "Client Explanation",
			SoftPatterns: map[string]float64{
				`объясн`:          1.2,
				`разъясн`:         1.2,
				`простыми словами`: 2.0,
				`понятным языком`:  1.5,
			},
		},
		{
			ID:    domain.ScenarioClaimResponse,
			Label: "Claim Response",
			SoftPatterns: map[string]float64{
				`претензи`:          2.0,
				`ответ на претензи`: 2.5,
				`(^| )требовани`:    0.5,
			},
		},
		{
			ID:    domain.ScenarioBusinessContext,
			Label: "Business Context",
			SoftPatterns: map[string]float64{
				`бизнес`:     1.2,
				`коммерческ`: 1.0,
				`(^| )сделк`: 0.8,
				`партнер`:    0.6,
			},
		},
		{
			ID:    domain.ScenarioContractAgentRF,
			Label: "Contract Agent (RF)",
			SoftPatterns: map[string]float64{
				`договор`:             1.0,
				`контракт`:            0.9,
				`провер.{0,12}договор`: 1.5,
				`(^| )поставк`:        0.5,
				`агентск`:             0.8,
				`услови.{0,12}договор`: 1.2,
			},
		},
		{
			ID:    domain.ScenarioRiskTable,
			Label: "Risk Table Generation",
			SoftPatterns: map[string]float64{
				`таблиц.{0,12}риск`: 3.0,
				`риск`:              0.8,
				`митигац`:           0.6,
				`последстви`:        0.4,
			},
		},
		{
			ID:    domain.ScenarioCaseLawAnalytics,
			Label: "Case Law Analytics",
			SoftPatterns: map[string]float64{
				`судебн.{0,12}практик`: 2.5,
				`практик`:              0.8,
				`верховн.{0,10}суд`:    1.5,
				`постановлени`:         0.8,
			},
		},
		{
			ID:        domain.ScenarioDadataCard,
			Label:     "Company Registry Lookup",
			HardGates: []string{innGate10, innGate12},
			SoftPatterns: map[string]float64{
				`контрагент`:    1.5,
				`(^| )инн( |$)`: 1.5,
				`огрн`:          1.2,
				`провер`:        0.8,
				`карточк`:       1.0,
				`компани`:       0.4,
			},
		},
	})
}

// LoadCatalogFile reads a scenario catalog from a YAML file. The file
// replaces the built-in catalog wholesale; validation is identical.
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ErrConfig{Reason: fmt.Sprintf("read catalog file: %v", err)}
	}

	var doc struct {
		Scenarios []Scenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &domain.ErrConfig{Reason: fmt.Sprintf("parse catalog file: %v", err)}
	}
	if len(doc.Scenarios) == 0 {
		return nil, &domain.ErrConfig{Reason: "catalog file declares no scenarios"}
	}

	return NewCatalog(doc.Scenarios)
}
