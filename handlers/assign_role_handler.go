package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/tenant-access-gate/internal/observability"
	"github.com/upb/tenant-access-gate/middleware"
	"github.com/upb/tenant-access-gate/services"
	"github.com/upb/tenant-access-gate/services/roleassign"
	"github.com/upb/tenant-access-gate/utils"
	"go.uber.org/zap"
)

// maxAssignForm bounds the form body of an assignment request
const maxAssignForm = 64 << 10

// RoleAssigner performs a role assignment for a caller
type RoleAssigner interface {
	Assign(ctx context.Context, callerClerkID, email, role string) (*roleassign.Assignment, error)
}

// AssignRoleHandler handles POST /api/admin/assign-role
type AssignRoleHandler struct {
	assigner RoleAssigner
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewAssignRoleHandler creates a new AssignRoleHandler
func NewAssignRoleHandler(assigner RoleAssigner, logger *zap.Logger, metrics *observability.Metrics) *AssignRoleHandler {
	return &AssignRoleHandler{
		assigner: assigner,
		logger:   logger,
		metrics:  metrics,
	}
}

// ServeHTTP reads the caller from the session the route gate attached and the
// target from the form fields email and role.
func (h *AssignRoleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With(zap.String("request_id", middleware.GetRequestIDFromContext(ctx)))

	var callerID string
	if session := middleware.GetSessionFromContext(ctx); session != nil {
		callerID = session.UserID
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAssignForm)
	if err := parseAssignForm(r); err != nil {
		logger.Debug("failed to parse assignment form", zap.Error(err))
	}

	assignment, err := h.assigner.Assign(ctx, callerID, r.PostFormValue("email"), r.PostFormValue("role"))
	if err != nil {
		HandleServiceError(w, err, logger)
		outcome := string(services.GetErrorType(err))
		if outcome == "" {
			outcome = string(services.ErrorTypeInternal)
		}
		h.metrics.ObserveAssignment(outcome)
		return
	}

	h.metrics.ObserveAssignment("ok")
	if err := utils.WriteAssigned(w, assignment.Email, assignment.Role.String()); err != nil {
		logger.Error("failed to write assignment response", zap.Error(err))
	}
}

// parseAssignForm accepts both url-encoded and multipart bodies
func parseAssignForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxAssignForm)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}
