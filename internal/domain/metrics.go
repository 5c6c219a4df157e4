package domain

// RoutingMetrics is the cumulative ops snapshot served by the admin
// metrics endpoint.
type RoutingMetrics struct {
	TotalRequests       int64            `json:"total_requests"`
	ErrorRate           float64          `json:"error_rate"`
	ClarifyRate         float64          `json:"clarify_rate"`
	DecisionsByScenario map[string]int64 `json:"decisions_by_scenario"`
	PromptTokens        int64            `json:"prompt_tokens"`
	CompletionTokens    int64            `json:"completion_tokens"`
	CacheHitRate        float64          `json:"cache_hit_rate"`
	Period              string           `json:"period"`
}
