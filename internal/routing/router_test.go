package routing_test

import (
	"reflect"
	"testing"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/routing"
)

func mustCatalog(t *testing.T, scenarios []routing.Scenario) *routing.Catalog {
	t.Helper()
	catalog, err := routing.NewCatalog(scenarios)
	if err != nil {
		t.Fatalf("expected valid catalog, got %v", err)
	}
	return catalog
}

func defaultRouter(t *testing.T) *routing.Router {
	t.Helper()
	catalog, err := routing.DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return routing.New(catalog)
}

func TestRoute_EmptyInput(t *testing.T) {
	r := defaultRouter(t)

	for _, input := range []string{"", "   ", "\t\n", "?!..."} {
		decision := r.Route(input)
		if decision.ScenarioID != domain.ScenarioUndetermined {
			t.Errorf("input %q: expected undetermined, got %q", input, decision.ScenarioID)
		}
		if decision.Confidence != 0.0 {
			t.Errorf("input %q: expected confidence 0.0, got %f", input, decision.Confidence)
		}
		if len(decision.ClarifyingQuestions) != 1 {
			t.Errorf("input %q: expected exactly one clarifying question, got %d", input, len(decision.ClarifyingQuestions))
		}
	}
}

func TestRoute_SingleStrongMatch(t *testing.T) {
	catalog := mustCatalog(t, []routing.Scenario{
		{
			ID:           "risk_table",
			Label:        "Risk Table Generation",
			SoftPatterns: map[string]float64{`таблиц.*риск`: 1.0},
		},
		{
			ID:           "legal_opinion",
			Label:        "Legal Opinion",
			SoftPatterns: map[string]float64{`заключени`: 1.0},
		},
	})
	r := routing.New(catalog)

	decision := r.Route("составь таблицу рисков по договору")
	if decision.ScenarioID != "risk_table" {
		t.Fatalf("expected risk_table, got %q", decision.ScenarioID)
	}
	if !decision.IsConfident {
		t.Error("expected confident decision")
	}
	if decision.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", decision.Confidence)
	}
	if len(decision.ClarifyingQuestions) != 0 {
		t.Errorf("confident decision must carry no clarifying questions, got %v", decision.ClarifyingQuestions)
	}
}

func TestRoute_Deterministic(t *testing.T) {
	r := defaultRouter(t)

	inputs := []string{
		"составь таблицу рисков по договору",
		"какие риски в этом договоре",
		"проверь контрагента 7707083893",
		"объясни простыми словами",
		"абракадабра",
	}
	for _, input := range inputs {
		first := r.Route(input)
		second := r.Route(input)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("input %q: decisions differ:\n%+v\n%+v", input, first, second)
		}
	}
}

func TestRoute_ConfidenceBounds(t *testing.T) {
	r := defaultRouter(t)

	inputs := []string{
		"", "риск", "договор претензия суд иск",
		"7707083893", "random english text", "инн огрн контрагент 500100732259",
	}
	for _, input := range inputs {
		decision := r.Route(input)
		if decision.Confidence < 0.0 || decision.Confidence > 1.0 {
			t.Errorf("input %q: confidence %f out of [0,1]", input, decision.Confidence)
		}
	}
}

func TestRoute_GateExclusivity(t *testing.T) {
	catalog := mustCatalog(t, []routing.Scenario{
		{
			ID:        "gated",
			Label:     "Gated",
			HardGates: []string{`[0-9]{10}`},
			// Huge soft weight: without the gate this would always win.
			SoftPatterns: map[string]float64{`договор`: 100.0},
		},
		{
			ID:           "open",
			Label:        "Open",
			SoftPatterns: map[string]float64{`договор`: 1.0},
		},
	})
	r := routing.New(catalog)

	decision := r.Route("проверь договор поставки")
	if decision.ScenarioID == "gated" {
		t.Fatal("gate-failed scenario must never be returned")
	}
	if decision.ScenarioID != "open" {
		t.Errorf("expected open, got %q", decision.ScenarioID)
	}
	if decision.Confidence != 1.0 {
		t.Errorf("sole gate-passing scenario should have confidence 1.0, got %f", decision.Confidence)
	}
}

func TestRoute_TieBreakLexicographic(t *testing.T) {
	catalog := mustCatalog(t, []routing.Scenario{
		{ID: "zed", Label: "Zed", SoftPatterns: map[string]float64{`договор`: 1.0}},
		{ID: "alpha", Label: "Alpha", SoftPatterns: map[string]float64{`договор`: 1.0}},
	})
	// Threshold 0.5 so the 50/50 split routes instead of clarifying.
	r := routing.New(catalog, routing.WithConfidenceThreshold(0.5))

	decision := r.Route("договор аренды")
	if decision.ScenarioID != "alpha" {
		t.Errorf("expected lexicographically smaller id 'alpha', got %q", decision.ScenarioID)
	}
}

func TestRoute_AmbiguousBelowThreshold(t *testing.T) {
	catalog := mustCatalog(t, []routing.Scenario{
		{ID: "risk_table", Label: "Risk Table Generation", SoftPatterns: map[string]float64{`риск`: 0.6}},
		{ID: "contract_agent_rf", Label: "Contract Agent (RF)", SoftPatterns: map[string]float64{`договор`: 0.4}},
	})
	r := routing.New(catalog)

	decision := r.Route("риски по договору")
	if decision.IsConfident {
		t.Fatal("expected low-confidence decision")
	}
	if decision.ScenarioID != domain.ScenarioUndetermined {
		t.Errorf("expected undetermined, got %q", decision.ScenarioID)
	}

	want := []string{
		"did you mean Risk Table Generation?",
		"did you mean Contract Agent (RF)?",
	}
	if !reflect.DeepEqual(decision.ClarifyingQuestions, want) {
		t.Errorf("expected questions ordered by descending score:\nwant %v\ngot  %v", want, decision.ClarifyingQuestions)
	}
}

func TestRoute_GatedCompanyLookup(t *testing.T) {
	r := defaultRouter(t)

	decision := r.Route("проверь контрагента 7707083893")
	if decision.ScenarioID != domain.ScenarioDadataCard {
		t.Fatalf("expected dadata_card, got %q (confidence %f)", decision.ScenarioID, decision.Confidence)
	}
	if !decision.IsConfident {
		t.Errorf("expected confident routing, got confidence %f", decision.Confidence)
	}
}

func TestRoute_TwelveDigitINNPassesGate(t *testing.T) {
	r := defaultRouter(t)

	decision := r.Route("карточка контрагента инн 500100732259")
	if decision.ScenarioID != domain.ScenarioDadataCard {
		t.Fatalf("expected dadata_card for 12-digit INN, got %q", decision.ScenarioID)
	}
}

func TestRoute_NoGatePassedUsesGatelessHints(t *testing.T) {
	catalog := mustCatalog(t, []routing.Scenario{
		{
			ID:           "dadata_card",
			Label:        "Company Registry Lookup",
			HardGates:    []string{`[0-9]{10}`},
			SoftPatterns: map[string]float64{`контрагент`: 1.0},
		},
	})
	r := routing.New(catalog)

	// Soft pattern matches but the digit gate does not: the hint still
	// points at the gated scenario.
	decision := r.Route("проверь контрагента")
	if decision.ScenarioID != domain.ScenarioUndetermined {
		t.Fatalf("expected undetermined, got %q", decision.ScenarioID)
	}
	want := []string{"did you mean Company Registry Lookup?"}
	if !reflect.DeepEqual(decision.ClarifyingQuestions, want) {
		t.Errorf("expected %v, got %v", want, decision.ClarifyingQuestions)
	}
}

func TestRoute_ZeroSignalListsAllLabels(t *testing.T) {
	r := defaultRouter(t)

	decision := r.Route("hello there general kenobi")
	if decision.ScenarioID != domain.ScenarioUndetermined {
		t.Fatalf("expected undetermined, got %q", decision.ScenarioID)
	}
	if decision.Confidence != 0.0 {
		t.Errorf("expected confidence 0.0, got %f", decision.Confidence)
	}
	// Zero signal everywhere: the router offers the full scenario menu.
	if len(decision.ClarifyingQuestions) != 10 {
		t.Errorf("expected all 10 labels offered, got %d", len(decision.ClarifyingQuestions))
	}
}

func TestRoute_RussianCommands(t *testing.T) {
	r := defaultRouter(t)

	cases := []struct {
		input string
		want  string
	}{
		{"составь таблицу рисков по договору", domain.ScenarioRiskTable},
		{"нужно подготовить ответ на претензию", domain.ScenarioClaimResponse},
		{"проверь договор поставки", domain.ScenarioContractAgentRF},
		{"проверь ИНН 7707083893", domain.ScenarioDadataCard},
	}
	for _, tc := range cases {
		decision := r.Route(tc.input)
		if decision.ScenarioID != tc.want {
			t.Errorf("input %q: expected %s, got %s (confidence %f)",
				tc.input, tc.want, decision.ScenarioID, decision.Confidence)
		}
		if !decision.IsConfident {
			t.Errorf("input %q: expected confident routing, got %f", tc.input, decision.Confidence)
		}
	}
}

func TestRoute_CaseInsensitive(t *testing.T) {
	r := defaultRouter(t)

	upper := r.Route("ТАБЛИЦА РИСКОВ ПО ДОГОВОРУ")
	lower := r.Route("таблица рисков по договору")
	mixed := r.Route("Таблица Рисков по Договору")

	if upper.ScenarioID != lower.ScenarioID || lower.ScenarioID != mixed.ScenarioID {
		t.Errorf("routing must be case-insensitive: %q / %q / %q",
			upper.ScenarioID, lower.ScenarioID, mixed.ScenarioID)
	}
}

func TestRoute_ConfigurableThreshold(t *testing.T) {
	catalog := mustCatalog(t, []routing.Scenario{
		{ID: "a", Label: "A", SoftPatterns: map[string]float64{`договор`: 0.6}},
		{ID: "b", Label: "B", SoftPatterns: map[string]float64{`риск`: 0.4}},
	})

	text := "риски по договору"

	strict := routing.New(catalog)
	if strict.Route(text).IsConfident {
		t.Error("0.6 share must not pass the default 0.75 threshold")
	}

	relaxed := routing.New(catalog, routing.WithConfidenceThreshold(0.55))
	decision := relaxed.Route(text)
	if !decision.IsConfident || decision.ScenarioID != "a" {
		t.Errorf("expected confident routing to 'a' at threshold 0.55, got %+v", decision)
	}
}
