// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/repositories"
)

// UserRepository is a mock implementation of repositories.UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) UpsertByClerkID(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) SoftDeleteByClerkID(ctx context.Context, clerkUserID string) (bool, error) {
	args := m.Called(ctx, clerkUserID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) GetByClerkID(ctx context.Context, clerkUserID string) (*models.User, error) {
	args := m.Called(ctx, clerkUserID)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// TenantRepository is a mock implementation of repositories.TenantRepository
type TenantRepository struct {
	mock.Mock
}

func (m *TenantRepository) GetByName(ctx context.Context, name string) (*models.Tenant, error) {
	args := m.Called(ctx, name)
	if tenant := args.Get(0); tenant != nil {
		return tenant.(*models.Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TenantRepository) EnsureByName(ctx context.Context, name string, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, name, id)
	if tenant := args.Get(0); tenant != nil {
		return tenant.(*models.Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

// TenantUserRoleRepository is a mock implementation of repositories.TenantUserRoleRepository
type TenantUserRoleRepository struct {
	mock.Mock
}

func (m *TenantUserRoleRepository) Upsert(ctx context.Context, assignment *models.TenantUserRole) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *TenantUserRoleRepository) GetRole(ctx context.Context, tenantID, userID uuid.UUID) (models.Role, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.Get(0).(models.Role), args.Error(1)
}

// AuditRepository is a mock implementation of repositories.AuditRepository
type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepository) ListByTarget(ctx context.Context, tenantID, targetUserID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, targetUserID, limit)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

// TransactionManager runs callbacks inline and records whether they committed.
// It does not use testify expectations so services can be exercised end to end.
type TransactionManager struct {
	BeginErr  error
	Commits   int
	Rollbacks int
}

func (m *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.BeginErr != nil {
		return m.BeginErr
	}
	if err := fn(ctx); err != nil {
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

// NewRepositories returns a Repositories set backed by fresh mocks
func NewRepositories() (*repositories.Repositories, *UserRepository, *TenantRepository, *TenantUserRoleRepository, *AuditRepository) {
	users := new(UserRepository)
	tenants := new(TenantRepository)
	roles := new(TenantUserRoleRepository)
	audit := new(AuditRepository)
	return &repositories.Repositories{
		Users:     users,
		Tenants:   tenants,
		Roles:     roles,
		AuditLogs: audit,
	}, users, tenants, roles, audit
}
