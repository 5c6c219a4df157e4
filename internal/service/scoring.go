package service

import (
	"strings"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
)

// youngCompanyAge is the registration-age cutoff below which a company
// is flagged as recently created.
const youngCompanyAge = 180 * 24 * time.Hour

// ScoreCompany computes a deterministic risk verdict from registry
// fields alone. Same profile in, same verdict out; no network, no model.
//
// Level escalation is one-way: HIGH beats MEDIUM beats LOW, and a
// reason never lowers an already raised level.
func ScoreCompany(profile *domain.CompanyProfile, now time.Time) *domain.ScoreResult {
	var reasons []string
	level := domain.RiskLow

	if profile.Status != "" && profile.Status != "ACTIVE" {
		reasons = append(reasons, "Статус компании: "+profile.Status)
		level = domain.RiskHigh
	}

	if profile.MassAddress {
		reasons = append(reasons, "Отмечен признак массового адреса")
		level = domain.RiskHigh
	}

	if profile.MassDirector {
		reasons = append(reasons, "Отмечен признак массового руководителя")
		level = raiseLevel(level, domain.RiskMedium)
	}

	if tooYoung(profile.RegistrationDate, now) {
		reasons = append(reasons, "Компания зарегистрирована менее 6 месяцев назад")
		level = raiseLevel(level, domain.RiskMedium)
	}

	if missing := missingCriticalFields(profile); len(missing) > 0 {
		reasons = append(reasons, "Отсутствуют критичные поля: "+strings.Join(missing, ", "))
		level = raiseLevel(level, domain.RiskMedium)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Критичных факторов риска не выявлено")
	}

	return &domain.ScoreResult{RiskLevel: level, Reasons: reasons}
}

var riskOrder = map[string]int{
	domain.RiskLow:    1,
	domain.RiskMedium: 2,
	domain.RiskHigh:   3,
}

func raiseLevel(current, candidate string) string {
	if riskOrder[candidate] > riskOrder[current] {
		return candidate
	}
	return current
}

// tooYoung parses the ISO registration date; unparseable or absent
// dates do not count against the company.
func tooYoung(registrationDate string, now time.Time) bool {
	if registrationDate == "" {
		return false
	}
	created, err := time.Parse("2006-01-02", registrationDate)
	if err != nil {
		return false
	}
	return created.After(now.Add(-youngCompanyAge))
}

func missingCriticalFields(profile *domain.CompanyProfile) []string {
	var missing []string
	for _, f := range []struct {
		label string
		value string
	}{
		{"название", profile.Name},
		{"ИНН", profile.INN},
		{"ОГРН", profile.OGRN},
		{"адрес", profile.Address},
		{"руководитель", profile.Director},
	} {
		if f.value == "" {
			missing = append(missing, f.label)
		}
	}
	return missing
}
