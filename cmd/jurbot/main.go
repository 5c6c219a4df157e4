package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/config"
	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/handler"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/cache"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/client"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/observability"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/postgres"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/resilience"
	"github.com/ewabotjur/legal-assistant-go/internal/port"
	"github.com/ewabotjur/legal-assistant-go/internal/routing"
	"github.com/ewabotjur/legal-assistant-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Float64("confidence_threshold", cfg.ConfidenceThreshold),
		zap.Bool("bitrix_enabled", cfg.BitrixDomain != ""),
		zap.Bool("postgres_enabled", cfg.DatabaseURL != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "jurbot")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Scenario catalog & router ---
	catalog, err := routing.DefaultCatalog()
	if cfg.CatalogFile != "" {
		catalog, err = routing.LoadCatalogFile(cfg.CatalogFile)
	}
	if err != nil {
		logger.Fatal("failed to load scenario catalog", zap.Error(err))
	}
	router := routing.New(catalog, routing.WithConfidenceThreshold(cfg.ConfidenceThreshold))

	// --- Cache ---
	companyCache := cache.New[*domain.CompanyCard](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Postgres (optional, the bot degrades to stateless) ---
	var memoryStore port.MemoryStore
	var caseStore port.CaseStore
	var tokenStore port.TokenStore
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		handle, openErr := postgres.Open(ctx, cfg.DatabaseURL)
		if openErr == nil {
			openErr = postgres.EnsureSchema(ctx, handle)
		}
		cancel()
		if openErr != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(openErr))
		}
		db = handle
		defer db.Close()

		memoryStore = postgres.NewMemoryStore(db)
		caseStore = postgres.NewCaseStore(db)
		tokenStore = postgres.NewTokenStore(db)
		logger.Info("postgres connected")
	} else {
		logger.Warn("DATABASE_URL not set: chat memory, case log and bitrix tokens are disabled")
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	dadataClient := client.NewDadataClient(httpClient, cfg.DadataBaseURL, cfg.DadataAPIKey, cfg.DadataSecretKey, cb, resilienceCfg)
	openaiClient := client.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cb, resilienceCfg)
	telegramClient := client.NewTelegramClient(httpClient, cfg.TelegramAPIURL, cfg.TelegramBotToken, cb, resilienceCfg)

	var bitrixClient *client.BitrixClient
	if cfg.BitrixDomain != "" {
		bitrixClient = client.NewBitrixClient(
			httpClient,
			cfg.BitrixDomain,
			cfg.BitrixClientID,
			cfg.BitrixClientSecret,
			cfg.BitrixRedirectURL,
			tokenStore,
			cb,
			resilienceCfg,
			logger,
		)
	} else {
		logger.Warn("BITRIX_DOMAIN not set: bitrix routes unavailable")
	}

	// --- Services ---
	companySvc := service.NewCompany(dadataClient, companyCache, metrics, logger)
	assistantSvc := service.NewAssistant(router, companySvc, openaiClient, memoryStore, caseStore, metrics, logger)

	allowed := make(map[int64]bool, len(cfg.AllowedTelegramIDs))
	for _, id := range cfg.AllowedTelegramIDs {
		allowed[id] = true
	}

	// --- Router ---
	deps := handler.Deps{
		Assistant: assistantSvc,
		Catalog:   catalog,
		Telegram: handler.TelegramConfig{
			WebhookSecret:  cfg.TelegramWebhookSecret,
			AllowedUserIDs: allowed,
		},
		TelegramSender: telegramClient,
		DB:             db,
		Metrics:        metrics,
		AdminSecret:    []byte(cfg.AdminJWTSecret),
	}
	if bitrixClient != nil {
		deps.Bitrix = bitrixClient
		deps.BitrixSender = bitrixClient
	}
	httpHandler := handler.NewRouter(deps, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      httpHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
