package roleassign

import (
	"context"
	"errors"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/repositories"
	"github.com/upb/tenant-access-gate/services"
	"github.com/upb/tenant-access-gate/utils"
	"go.uber.org/zap"
)

// maxHistory caps the entries History returns
const maxHistory = 50

// Assignment is the outcome of a successful role assignment
type Assignment struct {
	Email        string
	Role         models.Role
	TenantID     uuid.UUID
	TargetUserID uuid.UUID
	PreviousRole models.Role // empty when the target held no role
}

// Request is the normalized assignment input
type Request struct {
	Email string `validate:"required"`
	Role  string `validate:"required,role"`
}

// validateRequest reports a missing email before an unknown role
func validateRequest(req *Request) error {
	err := utils.ValidateStruct(req)
	if err == nil {
		return nil
	}
	var vErr *utils.ValidationError
	if errors.As(err, &vErr) && vErr.HasField("Email") {
		return services.ErrMissingEmail.Wrap(err)
	}
	return services.ErrInvalidRole.Wrap(err)
}

// Service assigns tenant roles on behalf of a SuperAdmin caller
type Service struct {
	repos    *repositories.Repositories
	txMgr    repositories.TransactionManager
	tenantID uuid.UUID
	logger   *zap.Logger
}

// NewService creates a new role assignment service. tenantID may be uuid.Nil,
// in which case every assignment fails with a configuration error.
func NewService(repos *repositories.Repositories, txMgr repositories.TransactionManager, tenantID uuid.UUID, logger *zap.Logger) *Service {
	return &Service{
		repos:    repos,
		txMgr:    txMgr,
		tenantID: tenantID,
		logger:   logger,
	}
}

// Assign sets the role of the registered user identified by email.
// Checks run in a fixed order: caller, input, configuration, caller registry row,
// caller role, target. Nothing is written unless all of them pass.
func (s *Service) Assign(ctx context.Context, callerClerkID, email, role string) (*Assignment, error) {
	if callerClerkID == "" {
		return nil, services.ErrUnauthorized
	}

	req := Request{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Role:  strings.TrimSpace(role),
	}
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	email, targetRole := req.Email, models.Role(req.Role)

	caller, err := s.authorizeCaller(ctx, callerClerkID)
	if err != nil {
		return nil, err
	}

	target, err := s.lookupTarget(ctx, email)
	if err != nil {
		return nil, err
	}

	assignment, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*Assignment, error) {
		previous, err := s.repos.Roles.GetRole(ctx, s.tenantID, target.ID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrRoleUpsertFailed.Wrap(err)
		}

		if err := s.repos.Roles.Upsert(ctx, models.NewTenantUserRole(s.tenantID, target.ID, targetRole)); err != nil {
			return nil, services.ErrRoleUpsertFailed.Wrap(err)
		}

		entry := models.NewAuditLog(s.tenantID, models.AuditActionRoleAssigned).
			WithActor(caller.ID).
			WithTarget(target.ID).
			WithDetails(map[string]string{
				"email":         email,
				"role":          targetRole.String(),
				"previous_role": previous.String(),
			}).
			WithRequest(middleware.GetReqID(ctx))
		if err := s.repos.AuditLogs.Insert(ctx, entry); err != nil {
			return nil, services.ErrRoleUpsertFailed.Wrap(err)
		}

		return &Assignment{
			Email:        email,
			Role:         targetRole,
			TenantID:     s.tenantID,
			TargetUserID: target.ID,
			PreviousRole: previous,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("role assigned",
		zap.String("caller_clerk_user_id", callerClerkID),
		zap.String("target_user_id", target.ID.String()),
		zap.String("role", targetRole.String()),
		zap.String("previous_role", assignment.PreviousRole.String()))
	return assignment, nil
}

// History returns the most recent role assignments recorded for the user
// identified by email, newest first. Only a SuperAdmin may read it.
func (s *Service) History(ctx context.Context, callerClerkID, email string, limit int) ([]*models.AuditLog, error) {
	if callerClerkID == "" {
		return nil, services.ErrUnauthorized
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, services.ErrMissingEmail
	}
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}

	if _, err := s.authorizeCaller(ctx, callerClerkID); err != nil {
		return nil, err
	}

	target, err := s.lookupTarget(ctx, email)
	if err != nil {
		return nil, err
	}

	entries, err := s.repos.AuditLogs.ListByTarget(ctx, s.tenantID, target.ID, limit)
	if err != nil {
		return nil, services.ErrInternal.Wrap(err)
	}
	return entries, nil
}

// authorizeCaller resolves the caller's registry row and requires SuperAdmin
// in the default tenant.
func (s *Service) authorizeCaller(ctx context.Context, callerClerkID string) (*models.User, error) {
	if s.tenantID == uuid.Nil {
		return nil, services.ErrMissingDefaultTenant
	}

	caller, err := s.repos.Users.GetByClerkID(ctx, callerClerkID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrCallerNotSynced.Wrap(err)
		}
		return nil, services.ErrInternal.Wrap(err)
	}
	if caller.IsDeleted() {
		return nil, services.ErrCallerNotSynced
	}

	callerRole, err := s.repos.Roles.GetRole(ctx, s.tenantID, caller.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrForbidden.Wrap(err)
		}
		return nil, services.ErrInternal.Wrap(err)
	}
	if callerRole != models.RoleSuperAdmin {
		return nil, services.ErrForbidden
	}
	return caller, nil
}

func (s *Service) lookupTarget(ctx context.Context, email string) (*models.User, error) {
	target, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrTargetNotFound.Wrap(err)
		}
		return nil, services.ErrInternal.Wrap(err)
	}
	if target.IsDeleted() {
		return nil, services.ErrTargetNotFound
	}
	return target, nil
}
