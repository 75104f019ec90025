package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/upb/tenant-access-gate/middleware"
	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/utils"
	"go.uber.org/zap"
)

// RoleHistoryReader lists recorded role assignments for a caller
type RoleHistoryReader interface {
	History(ctx context.Context, callerClerkID, email string, limit int) ([]*models.AuditLog, error)
}

// RoleHistoryHandler handles GET /api/admin/role-history?email=&limit=
type RoleHistoryHandler struct {
	reader RoleHistoryReader
	logger *zap.Logger
}

// NewRoleHistoryHandler creates a new RoleHistoryHandler
func NewRoleHistoryHandler(reader RoleHistoryReader, logger *zap.Logger) *RoleHistoryHandler {
	return &RoleHistoryHandler{reader: reader, logger: logger}
}

func (h *RoleHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With(zap.String("request_id", middleware.GetRequestIDFromContext(ctx)))

	var callerID string
	if session := middleware.GetSessionFromContext(ctx); session != nil {
		callerID = session.UserID
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	email := query.Get("email")

	entries, err := h.reader.History(ctx, callerID, email, limit)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}

	if err := utils.WriteJSON(w, http.StatusOK, utils.RoleHistoryResponse{
		OK:      true,
		Email:   email,
		Entries: entries,
	}); err != nil {
		logger.Error("failed to write role history response", zap.Error(err))
	}
}
