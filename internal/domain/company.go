package domain

// CompanyProfile is the structured company card fetched from DaData
// (ЕГРЮЛ registry data) by INN.
type CompanyProfile struct {
	Name             string `json:"name"`
	INN              string `json:"inn"`
	OGRN             string `json:"ogrn"`
	KPP              string `json:"kpp"`
	Address          string `json:"address"`
	Director         string `json:"director"`
	Status           string `json:"status"`
	RegistrationDate string `json:"registration_date"`
	MassAddress      bool   `json:"mass_address"`
	MassDirector     bool   `json:"mass_director"`
}

// Risk levels produced by deterministic company scoring.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// ScoreResult is the deterministic risk verdict for a company profile.
type ScoreResult struct {
	RiskLevel string   `json:"risk_level"`
	Reasons   []string `json:"reasons"`
}

// CompanyCard bundles the registry profile and its score, as returned
// by GET /v1/company/{inn} and rendered into chat replies.
type CompanyCard struct {
	Profile *CompanyProfile `json:"profile"`
	Score   *ScoreResult    `json:"score"`
}
