package domain

// Scenario identifiers for the canonical legal-workflow catalog.
// These are stable keys: downstream prompt selection and persisted case
// records reference them, so renaming one is a breaking change.
const (
	ScenarioLegalDocumentStructuring = "legal_document_structuring"
	ScenarioDisputePreparation       = "dispute_preparation"
	ScenarioLegalOpinion             = "legal_opinion"
	ScenarioClientExplanation        = "client_explanation"
	ScenarioClaimResponse            = "claim_response"
	ScenarioBusinessContext          = "business_context"
	ScenarioContractAgentRF          = "contract_agent_rf"
	ScenarioRiskTable                = "risk_table"
	ScenarioCaseLawAnalytics         = "case_law_analytics"
	ScenarioDadataCard               = "dadata_card"

	// ScenarioUndetermined is the sentinel returned when no scenario
	// reaches the confidence threshold.
	ScenarioUndetermined = "undetermined"
)

// RoutingDecision is the router's output contract.
//
// Invariants: if ScenarioID is "undetermined", ClarifyingQuestions is
// non-empty; if IsConfident is true, ClarifyingQuestions is empty.
type RoutingDecision struct {
	ScenarioID          string   `json:"scenario_id"`
	Confidence          float64  `json:"confidence"`
	IsConfident         bool     `json:"is_confident"`
	ClarifyingQuestions []string `json:"clarifying_questions"`
}
