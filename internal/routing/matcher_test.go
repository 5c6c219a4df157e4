package routing_test

import (
	"testing"

	"github.com/ewabotjur/legal-assistant-go/internal/routing"
)

func TestNormalize_LowercasesAndStripsPunctuation(t *testing.T) {
	got := routing.Normalize("Проверь, Договор!!! Поставки...")
	want := "проверь договор поставки"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_KeepsDigitSequences(t *testing.T) {
	got := routing.Normalize("ИНН: 7707083893.")
	want := "инн 7707083893"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	got := routing.Normalize("  таблица \t\n  рисков  ")
	want := "таблица рисков"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Проверь ИНН 7707083893!",
		"составь ТАБЛИЦУ рисков, по договору",
		"?!.,;:",
	}
	for _, in := range inputs {
		once := routing.Normalize(in)
		twice := routing.Normalize(once)
		if once != twice {
			t.Errorf("normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestScore_GateExcludesRegardlessOfSoftScore(t *testing.T) {
	catalog, err := routing.NewCatalog([]routing.Scenario{
		{
			ID:        "gated",
			Label:     "Gated",
			HardGates: []string{`[0-9]{10}`},
			SoftPatterns: map[string]float64{
				`договор`: 10.0,
			},
		},
	})
	if err != nil {
		t.Fatalf("expected valid catalog, got %v", err)
	}

	s := catalog.Scenarios()
	res := routing.Score(&s[0], "проверь договор")
	if res.GatePassed {
		t.Error("expected gate to fail without a digit sequence")
	}
	if res.RawScore != 0 {
		t.Errorf("expected raw score 0 for gate-failed scenario, got %f", res.RawScore)
	}
}

func TestScore_PatternCountsOnce(t *testing.T) {
	catalog, err := routing.NewCatalog([]routing.Scenario{
		{
			ID:    "risk_table",
			Label: "Risk Table Generation",
			SoftPatterns: map[string]float64{
				`риск`: 1.0,
			},
		},
	})
	if err != nil {
		t.Fatalf("expected valid catalog, got %v", err)
	}

	s := catalog.Scenarios()
	res := routing.Score(&s[0], "риск риск риск риск")
	if res.RawScore != 1.0 {
		t.Errorf("expected repeated keyword to score 1.0, got %f", res.RawScore)
	}
}

func TestScore_SumsDistinctPatterns(t *testing.T) {
	catalog, err := routing.NewCatalog([]routing.Scenario{
		{
			ID:    "risk_table",
			Label: "Risk Table Generation",
			SoftPatterns: map[string]float64{
				`риск`:   1.0,
				`таблиц`: 0.5,
			},
		},
	})
	if err != nil {
		t.Fatalf("expected valid catalog, got %v", err)
	}

	s := catalog.Scenarios()
	res := routing.Score(&s[0], "таблица рисков")
	if res.RawScore != 1.5 {
		t.Errorf("expected 1.5, got %f", res.RawScore)
	}
	if !res.GatePassed {
		t.Error("scenario without gates must always pass the gate")
	}
}
