package handler

import (
	"context"
	"log"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports service liveness and database reachability.
type HealthHandler struct {
	Ping   func(ctx context.Context) error
	Logger *log.Logger

	ErrorHandler   *ErrorHandler
	ResponseHelper *ResponseHelper
}

// NewHealthHandler creates a HealthHandler. A nil ping skips the database check.
func NewHealthHandler(ping func(ctx context.Context) error, logger *log.Logger) *HealthHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &HealthHandler{
		Ping:           ping,
		Logger:         logger,
		ErrorHandler:   NewErrorHandler(logger),
		ResponseHelper: NewResponseHelper(),
	}
}

// ServeHTTP answers 200 when healthy and 503 when the database is unreachable.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status, code := "healthy", http.StatusOK

	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			h.Logger.Printf("Health check: database unreachable: %v", err)
			checks["database"] = "unreachable"
			status, code = "unhealthy", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	h.ErrorHandler.SendSuccessResponse(w, code, "Service is "+status, h.ResponseHelper.CreateHealthCheckData(status, checks))
}
