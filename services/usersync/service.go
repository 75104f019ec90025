package usersync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/tenant-access-gate/clerk"
	"github.com/upb/tenant-access-gate/config"
	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/repositories"
	"github.com/upb/tenant-access-gate/services"
	"go.uber.org/zap"
)

// Audience identifies which webhook endpoint an event arrived on
type Audience string

const (
	AudienceStaff   Audience = "staff"
	AudienceStudent Audience = "student"
)

// UserType returns the registry user type synchronized users get for this audience
func (a Audience) UserType() models.UserType {
	if a == AudienceStudent {
		return models.UserTypeStudent
	}
	return models.UserTypeStaff
}

// Action describes what Apply did with an event
type Action string

const (
	ActionUpserted Action = "upserted"
	ActionDeleted  Action = "deleted"
	ActionIgnored  Action = "ignored"
)

// Result reports the outcome of applying one event
type Result struct {
	Action   Action
	UserID   uuid.UUID   // zero for deletions and ignored events
	TenantID uuid.UUID   // set when a role was written
	Role     models.Role // empty when no role was written
}

// Config controls synchronization defaults
type Config struct {
	TenantName       string
	StaffMode        string
	DefaultStaffRole models.Role
}

// ConfigFromApp extracts the synchronizer settings from application config
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		TenantName:       cfg.Tenant.DefaultName,
		StaffMode:        cfg.Sync.StaffMode,
		DefaultStaffRole: cfg.Sync.DefaultStaffRole,
	}
}

// Service mirrors identity provider user events into the registry
type Service struct {
	repos  *repositories.Repositories
	txMgr  repositories.TransactionManager
	cfg    Config
	logger *zap.Logger
}

// NewService creates a new synchronizer
func NewService(repos *repositories.Repositories, txMgr repositories.TransactionManager, cfg Config, logger *zap.Logger) *Service {
	if cfg.StaffMode == "" {
		cfg.StaffMode = config.StaffModeInviteOnly
	}
	if cfg.DefaultStaffRole == "" {
		cfg.DefaultStaffRole = models.RoleSuperAdmin
	}
	return &Service{
		repos:  repos,
		txMgr:  txMgr,
		cfg:    cfg,
		logger: logger,
	}
}

// Apply writes the effect of a verified event. Every write path is an upsert or a
// conditional update, so replaying the same event leaves the registry unchanged.
func (s *Service) Apply(ctx context.Context, audience Audience, event *clerk.Event) (*Result, error) {
	if event == nil || !event.IsUserEvent() {
		return &Result{Action: ActionIgnored}, nil
	}
	if event.Data.ID == "" {
		return nil, services.ErrMalformedEvent
	}

	if event.IsDeletion() {
		return s.softDelete(ctx, audience, event.Data.ID)
	}
	return s.upsert(ctx, audience, event.Data)
}

func (s *Service) softDelete(ctx context.Context, audience Audience, clerkUserID string) (*Result, error) {
	matched, err := s.repos.Users.SoftDeleteByClerkID(ctx, clerkUserID)
	if err != nil {
		return nil, services.ErrInternal.Wrap(err)
	}

	s.logger.Info("user soft deleted",
		zap.String("audience", string(audience)),
		zap.String("clerk_user_id", clerkUserID),
		zap.Bool("matched", matched))
	return &Result{Action: ActionDeleted}, nil
}

func (s *Service) upsert(ctx context.Context, audience Audience, data clerk.UserData) (*Result, error) {
	email := data.EmailOrPlaceholder()
	if data.PrimaryEmail() == "" {
		s.logger.Warn("user has no email address, using placeholder",
			zap.String("clerk_user_id", data.ID),
			zap.String("email", email))
	}

	role, assignRole := s.roleFor(audience)

	result, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*Result, error) {
		user := models.NewUser(data.ID, email, data.FullName(), audience.UserType())
		if err := s.repos.Users.UpsertByClerkID(ctx, user); err != nil {
			return nil, services.ErrInternal.Wrap(err)
		}

		res := &Result{Action: ActionUpserted, UserID: user.ID}
		if !assignRole {
			return res, nil
		}

		tenant, err := s.repos.Tenants.GetByName(ctx, s.cfg.TenantName)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, services.ErrTenantNotFound.Wrap(fmt.Errorf("tenant %q: %w", s.cfg.TenantName, err))
			}
			return nil, services.ErrInternal.Wrap(err)
		}

		if err := s.repos.Roles.Upsert(ctx, models.NewTenantUserRole(tenant.ID, user.ID, role)); err != nil {
			return nil, services.ErrRoleUpsertFailed.Wrap(err)
		}

		res.TenantID = tenant.ID
		res.Role = role
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user synchronized",
		zap.String("audience", string(audience)),
		zap.String("clerk_user_id", data.ID),
		zap.String("user_id", result.UserID.String()),
		zap.String("role", string(result.Role)))
	return result, nil
}

// roleFor returns the role an audience grants on sync, if any.
// Staff in invite-only mode get none until an administrator assigns one.
func (s *Service) roleFor(audience Audience) (models.Role, bool) {
	switch {
	case audience == AudienceStudent:
		return models.RoleStudent, true
	case s.cfg.StaffMode == config.StaffModeBootstrap:
		return s.cfg.DefaultStaffRole, true
	default:
		return "", false
	}
}
