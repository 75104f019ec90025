package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/tenant-access-gate/config"
	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return NewRepositoryFactoryWithDB(db, logger), nil
}

// NewRepositoryFactoryWithDB creates a factory over an existing pool
func NewRepositoryFactoryWithDB(db *DB, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, logger: logger}
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:     NewUserRepository(f.db, f.logger),
		Tenants:   NewTenantRepository(f.db, f.logger),
		Roles:     NewTenantUserRoleRepository(f.db, f.logger),
		AuditLogs: NewAuditRepository(f.db, f.logger),
	}
}

// Bootstrap creates the schema when enabled and makes sure the default tenant exists
func (f *RepositoryFactory) Bootstrap(ctx context.Context, cfg *config.Config) (*models.Tenant, error) {
	if cfg.Database.AutoMigrate {
		if err := f.db.InitSchema(ctx); err != nil {
			return nil, err
		}
	}

	tenant, err := NewTenantRepository(f.db, f.logger).EnsureByName(ctx, cfg.Tenant.DefaultName, cfg.Tenant.DefaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to seed default tenant: %w", err)
	}
	if cfg.Tenant.DefaultID != uuid.Nil && tenant.ID != cfg.Tenant.DefaultID {
		f.logger.Warn("DEFAULT_TENANT_ID does not match the tenant named DEFAULT_TENANT_NAME",
			zap.String("configured_id", cfg.Tenant.DefaultID.String()),
			zap.String("existing_id", tenant.ID.String()))
	}

	f.logger.Info("default tenant ready",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("company_name", tenant.CompanyName))
	return tenant, nil
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
