package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
)

// minContractTextLength is the shortest input the keyword analysis will
// accept; anything shorter gets a placeholder row plus a list of what
// to supply.
const minContractTextLength = 200

// RiskAnalysis is a deterministic contract risk table plus the inputs
// still needed when the text was too short to analyze.
type RiskAnalysis struct {
	Rows               []domain.RiskRow `json:"rows"`
	MissingInformation []string         `json:"missing_information,omitempty"`
}

type riskRule struct {
	pattern *regexp.Regexp
	row     domain.RiskRow
}

// riskRules maps contract vocabulary to canned risk rows. Rules fire at
// most once each and in declaration order, so the table is stable for a
// given text.
var riskRules = []riskRule{
	{
		pattern: regexp.MustCompile(`(?i)неустойк|штраф|пени`),
		row: domain.RiskRow{
			Risk:         "Высокие штрафные санкции",
			Consequences: "Рост финансовых потерь при нарушении обязательств",
			Probability:  "Средняя",
			Impact:       "Высокое",
			Mitigation:   "Уточнить лимиты штрафов и предусмотреть сроки устранения нарушений",
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)односторонн`),
		row: domain.RiskRow{
			Risk:         "Одностороннее расторжение",
			Consequences: "Контрагент может прекратить договор без компенсаций",
			Probability:  "Средняя",
			Impact:       "Среднее",
			Mitigation:   "Согласовать условия уведомления и компенсации",
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)конфиденциал|персональн|gdpr|152-фз`),
		row: domain.RiskRow{
			Risk:         "Нарушение конфиденциальности/ПДн",
			Consequences: "Штрафы регуляторов и репутационные потери",
			Probability:  "Низкая",
			Impact:       "Высокое",
			Mitigation:   "Прописать меры защиты и ответственность сторон",
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)срок|deadline|этап`),
		row: domain.RiskRow{
			Risk:         "Нереалистичные сроки исполнения",
			Consequences: "Срывы обязательств и штрафы",
			Probability:  "Средняя",
			Impact:       "Среднее",
			Mitigation:   "Согласовать реалистичный график и порядок изменения сроков",
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)оплат|аванс|предоплат`),
		row: domain.RiskRow{
			Risk:         "Риск невозврата предоплаты",
			Consequences: "Потеря денежных средств при расторжении",
			Probability:  "Средняя",
			Impact:       "Среднее",
			Mitigation:   "Определить условия возврата и этапы приемки",
		},
	},
}

// AnalyzeContractRisks builds a risk table from contract text using the
// keyword rule set. The output is deterministic: same text, same table.
func AnalyzeContractRisks(text string) *RiskAnalysis {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minContractTextLength {
		return &RiskAnalysis{
			Rows: []domain.RiskRow{{
				Index: 1, Risk: "TBD", Consequences: "TBD",
				Probability: "TBD", Impact: "TBD", Mitigation: "TBD",
			}},
			MissingInformation: []string{
				"полный текст договора",
				"сведения о сторонах",
				"предмет договора",
				"условия оплаты",
				"сроки исполнения",
			},
		}
	}

	var rows []domain.RiskRow
	for _, rule := range riskRules {
		if rule.pattern.MatchString(trimmed) {
			row := rule.row
			row.Index = len(rows) + 1
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		rows = append(rows, domain.RiskRow{
			Index:        1,
			Risk:         "Недостаточно явных рисковых условий",
			Consequences: "Нужно подтверждение ключевых условий договора",
			Probability:  "TBD",
			Impact:       "TBD",
			Mitigation:   "Уточнить предмет, оплату, сроки и ответственность",
		})
	}

	return &RiskAnalysis{Rows: rows}
}

// FormatRiskTable renders the analysis as a Markdown table for chat
// delivery.
func FormatRiskTable(analysis *RiskAnalysis) string {
	var b strings.Builder
	b.WriteString("| № | Риск | Последствия | Вероятность | Влияние | Меры реагирования |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, row := range analysis.Rows {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			row.Index, row.Risk, row.Consequences, row.Probability, row.Impact, row.Mitigation)
	}
	if len(analysis.MissingInformation) > 0 {
		b.WriteString("\nНе хватает данных: ")
		b.WriteString(strings.Join(analysis.MissingInformation, ", "))
		b.WriteString(".")
	}
	return strings.TrimRight(b.String(), "\n")
}
