package domain

// RiskRow is one row of the deterministic contract risk table.
type RiskRow struct {
	Index        int    `json:"index"`
	Risk         string `json:"risk"`
	Consequences string `json:"consequences"`
	Probability  string `json:"probability"`
	Impact       string `json:"impact"`
	Mitigation   string `json:"mitigation"`
}
