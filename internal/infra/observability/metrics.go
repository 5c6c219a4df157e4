package observability

import (
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the assistant.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	tokensUsed       *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	routingDecisions *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jurbot_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jurbot_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jurbot_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jurbot_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jurbot_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jurbot_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		routingDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jurbot_routing_decisions_total",
				Help: "Routing decisions by scenario and outcome.",
			},
			[]string{"scenario", "outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// RecordRoutingDecision counts one router verdict. Outcome is
// "confident" or "clarify".
func (m *Metrics) RecordRoutingDecision(decision domain.RoutingDecision) {
	outcome := "clarify"
	if decision.IsConfident {
		outcome = "confident"
	}
	m.routingDecisions.WithLabelValues(decision.ScenarioID, outcome).Inc()
}

// GetRoutingSnapshot returns cumulative routing and model-usage figures
// for the GET /v1/admin/metrics endpoint.
func (m *Metrics) GetRoutingSnapshot(scenarioIDs []string) *domain.RoutingMetrics {
	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "company")
	cacheMisses := getCounterValue(m.cacheMisses, "company")

	byScenario := make(map[string]int64, len(scenarioIDs))
	var confident, clarify float64
	for _, id := range scenarioIDs {
		c := getCounterValue(m.routingDecisions, id, "confident")
		byScenario[id] = int64(c)
		confident += c
	}
	clarify = getCounterValue(m.routingDecisions, domain.ScenarioUndetermined, "clarify")

	errorRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}
	clarifyRate := float64(0)
	if confident+clarify > 0 {
		clarifyRate = clarify / (confident + clarify)
	}

	return &domain.RoutingMetrics{
		TotalRequests:       int64(totalRequests),
		ErrorRate:           errorRate,
		ClarifyRate:         clarifyRate,
		DecisionsByScenario: byScenario,
		PromptTokens:        int64(promptTokens),
		CompletionTokens:    int64(completionTokens),
		CacheHitRate:        cacheHitRate,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
