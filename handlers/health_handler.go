package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/tenant-access-gate/utils"
	"go.uber.org/zap"
)

// Pinger is an optional dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseChecker verifies the registry database answers queries
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     DatabaseChecker
	ledger Pinger
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. ledger may be nil.
func NewHealthHandler(db DatabaseChecker, ledger Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		ledger: ledger,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: returns 200 whenever the process is serving.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, utils.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
// The registry database is required; the delivery ledger is reported but optional.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if h.db == nil {
		checks["database"] = "not_initialized"
		ready = false
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		ready = false
	} else {
		checks["database"] = "healthy"
	}

	if h.ledger != nil {
		if err := h.ledger.Ping(ctx); err != nil {
			h.logger.Warn("delivery ledger health check failed", zap.Error(err))
			checks["delivery_ledger"] = "degraded"
		} else {
			checks["delivery_ledger"] = "healthy"
		}
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !ready {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, httpStatus, utils.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

