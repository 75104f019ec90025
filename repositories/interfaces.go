package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/tenant-access-gate/models"
)

// ErrNotFound is wrapped by repositories when a single-row select matches nothing
var ErrNotFound = errors.New("not found")

// TransactionManager runs a unit of work atomically. Repositories called with
// the ctx handed to fn take part in the transaction.
type TransactionManager interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository handles registry user rows
type UserRepository interface {
	// UpsertByClerkID inserts or updates the row keyed by identity provider id,
	// clearing deleted_at. The persisted row id is written back to user.ID.
	UpsertByClerkID(ctx context.Context, user *models.User) error

	// SoftDeleteByClerkID marks the row deleted. Reports whether a row matched.
	SoftDeleteByClerkID(ctx context.Context, clerkUserID string) (bool, error)

	// GetByClerkID retrieves a user by identity provider id
	GetByClerkID(ctx context.Context, clerkUserID string) (*models.User, error)

	// GetByEmail retrieves a user by email, case insensitive
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// TenantRepository handles tenant rows
type TenantRepository interface {

	// GetByName retrieves a tenant by company name
	GetByName(ctx context.Context, name string) (*models.Tenant, error)

	// EnsureByName returns the named tenant, creating it with id when absent.
	// A nil id generates a new one.
	EnsureByName(ctx context.Context, name string, id uuid.UUID) (*models.Tenant, error)
}

// TenantUserRoleRepository handles the (tenant, user) -> role mapping
type TenantUserRoleRepository interface {
	// Upsert sets the role for the pair, overwriting any prior role
	Upsert(ctx context.Context, assignment *models.TenantUserRole) error

	// GetRole returns the role the user holds in the tenant
	GetRole(ctx context.Context, tenantID, userID uuid.UUID) (models.Role, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// ListByTarget retrieves the most recent entries about a user
	ListByTarget(ctx context.Context, tenantID, targetUserID uuid.UUID, limit int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	Tenants   TenantRepository
	Roles     TenantUserRoleRepository
	AuditLogs AuditRepository
}
