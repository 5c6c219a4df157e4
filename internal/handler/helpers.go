package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var external *domain.ErrExternalService
	var config *domain.ErrConfig

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &config):
		logger.Error("configuration error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "service misconfigured")
	case errors.As(err, &external):
		logger.Error("external service error",
			zap.String("service", external.Service),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
