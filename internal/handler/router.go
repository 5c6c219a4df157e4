package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/infra/client"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/observability"
	"github.com/ewabotjur/legal-assistant-go/internal/port"
	"github.com/ewabotjur/legal-assistant-go/internal/routing"
	"github.com/ewabotjur/legal-assistant-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps carries everything the HTTP layer needs. Bitrix and DB may be
// nil when the corresponding integration is not configured; the routes
// then answer 503 instead of panicking.
type Deps struct {
	Assistant      *service.Assistant
	Catalog        *routing.Catalog
	Telegram       TelegramConfig
	TelegramSender port.TelegramSender
	Bitrix         *client.BitrixClient
	BitrixSender   port.BitrixSender
	DB             *sql.DB
	Metrics        *observability.Metrics
	AdminSecret    []byte
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(deps Deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(deps.DB))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- Chat transports ---
	r.Post("/telegram/webhook", telegramWebhookHandler(deps.Assistant, deps.TelegramSender, deps.Telegram, logger))

	r.Route("/bitrix", func(r chi.Router) {
		if deps.Bitrix == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "bitrix integration not configured")
			}))
			return
		}
		r.Get("/oauth/install", bitrixInstallHandler(deps.Bitrix))
		r.Get("/oauth/callback", bitrixCallbackHandler(deps.Bitrix, logger))
		r.Post("/events", bitrixEventsHandler(deps.Assistant, deps.BitrixSender, logger))
	})

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Post("/route", routeDebugHandler(deps.Assistant, logger))
		r.Get("/company/{inn}", companyLookupHandler(deps.Assistant, logger))

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(deps.AdminSecret, logger))
			r.Get("/admin/cases", adminCasesHandler(deps.Assistant, logger))
			r.Get("/admin/metrics", adminMetricsHandler(deps.Metrics, deps.Catalog))
		})
	})

	return r
}

// ============================================================
// Probes
// ============================================================

func healthzHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		components := map[string]string{"api": "healthy"}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				components["postgres"] = "unhealthy"
				status = "degraded"
			} else {
				components["postgres"] = "healthy"
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":     status,
			"components": components,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Routing debug — POST /v1/route
// ============================================================

// routeDebugHandler exposes the raw routing decision so operators can
// see why a message landed in a scenario without involving the LLM.
func routeDebugHandler(svc *service.Assistant, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/route")
		defer span.End()

		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		decision := svc.Route(req.Text)
		span.SetAttributes(
			attribute.String("routing.scenario", decision.ScenarioID),
			attribute.Float64("routing.confidence", decision.Confidence),
		)
		writeJSON(w, http.StatusOK, decision)
	}
}

// ============================================================
// Company card — GET /v1/company/{inn}
// ============================================================

func companyLookupHandler(svc *service.Assistant, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/company/{inn}")
		defer span.End()

		inn := chi.URLParam(r, "inn")
		span.SetAttributes(attribute.String("company.inn", inn))

		card, err := svc.LookupCompany(ctx, inn)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

// ============================================================
// Admin API
// ============================================================

func adminCasesHandler(svc *service.Assistant, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/cases")
		defer span.End()

		since := time.Time{}
		if s := r.URL.Query().Get("since"); s != "" {
			parsed, err := time.Parse(time.RFC3339, s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "since must be RFC3339")
				return
			}
			since = parsed
		}

		limit := 100
		if l := r.URL.Query().Get("limit"); l != "" {
			parsed, err := strconv.Atoi(l)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}

		cases, err := svc.ListCases(ctx, since, limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cases": cases})
	}
}

func adminMetricsHandler(metrics *observability.Metrics, catalog *routing.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := make([]string, 0, catalog.Len())
		for _, s := range catalog.Scenarios() {
			ids = append(ids, s.ID)
		}
		writeJSON(w, http.StatusOK, metrics.GetRoutingSnapshot(ids))
	}
}
