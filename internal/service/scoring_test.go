package service_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/service"
)

var scoringNow = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func TestScoreCompany_CleanProfileIsLow(t *testing.T) {
	result := service.ScoreCompany(activeProfile(), scoringNow)

	if result.RiskLevel != domain.RiskLow {
		t.Errorf("expected LOW, got %s", result.RiskLevel)
	}
	if len(result.Reasons) != 1 || !strings.Contains(result.Reasons[0], "не выявлено") {
		t.Errorf("clean profile should carry the no-findings reason, got %v", result.Reasons)
	}
}

func TestScoreCompany_InactiveStatusIsHigh(t *testing.T) {
	profile := activeProfile()
	profile.Status = "LIQUIDATING"

	result := service.ScoreCompany(profile, scoringNow)
	if result.RiskLevel != domain.RiskHigh {
		t.Errorf("expected HIGH for non-ACTIVE status, got %s", result.RiskLevel)
	}
}

func TestScoreCompany_MassAddressIsHigh(t *testing.T) {
	profile := activeProfile()
	profile.MassAddress = true

	result := service.ScoreCompany(profile, scoringNow)
	if result.RiskLevel != domain.RiskHigh {
		t.Errorf("expected HIGH for mass address, got %s", result.RiskLevel)
	}
}

func TestScoreCompany_MassDirectorIsMedium(t *testing.T) {
	profile := activeProfile()
	profile.MassDirector = true

	result := service.ScoreCompany(profile, scoringNow)
	if result.RiskLevel != domain.RiskMedium {
		t.Errorf("expected MEDIUM for mass director, got %s", result.RiskLevel)
	}
}

func TestScoreCompany_YoungCompanyIsMedium(t *testing.T) {
	profile := activeProfile()
	profile.RegistrationDate = scoringNow.Add(-90 * 24 * time.Hour).Format("2006-01-02")

	result := service.ScoreCompany(profile, scoringNow)
	if result.RiskLevel != domain.RiskMedium {
		t.Errorf("expected MEDIUM for young company, got %s", result.RiskLevel)
	}
}

func TestScoreCompany_MissingFieldsIsMedium(t *testing.T) {
	profile := activeProfile()
	profile.Director = ""
	profile.Address = ""

	result := service.ScoreCompany(profile, scoringNow)
	if result.RiskLevel != domain.RiskMedium {
		t.Errorf("expected MEDIUM for missing fields, got %s", result.RiskLevel)
	}

	var found bool
	for _, r := range result.Reasons {
		if strings.Contains(r, "адрес") && strings.Contains(r, "руководитель") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing-field reason should name the fields, got %v", result.Reasons)
	}
}

func TestScoreCompany_MediumNeverLowersHigh(t *testing.T) {
	profile := activeProfile()
	profile.Status = "LIQUIDATED"
	profile.MassDirector = true
	profile.Director = ""

	result := service.ScoreCompany(profile, scoringNow)
	if result.RiskLevel != domain.RiskHigh {
		t.Errorf("MEDIUM reasons must not lower HIGH, got %s", result.RiskLevel)
	}
}

func TestScoreCompany_UnparseableDateIgnored(t *testing.T) {
	profile := activeProfile()
	profile.RegistrationDate = "вчера"

	result := service.ScoreCompany(profile, scoringNow)
	if result.RiskLevel != domain.RiskLow {
		t.Errorf("unparseable date must not raise risk, got %s", result.RiskLevel)
	}
}

func TestScoreCompany_Deterministic(t *testing.T) {
	profile := activeProfile()
	profile.MassDirector = true
	profile.Director = ""

	first := service.ScoreCompany(profile, scoringNow)
	second := service.ScoreCompany(profile, scoringNow)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("scoring must be deterministic:\n%+v\n%+v", first, second)
	}
}
