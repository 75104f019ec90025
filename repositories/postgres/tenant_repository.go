package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/repositories"
	"go.uber.org/zap"
)

// TenantRepository implements the repositories.TenantRepository interface
type TenantRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB, logger *zap.Logger) repositories.TenantRepository {
	return &TenantRepository{
		db:     db,
		logger: logger,
	}
}

// GetByName retrieves a tenant by company name
func (r *TenantRepository) GetByName(ctx context.Context, name string) (*models.Tenant, error) {
	query := `
		SELECT id, company_name, created_at
		FROM tenants
		WHERE company_name = $1
	`

	tenant := &models.Tenant{}
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, name).Scan(
		&tenant.ID,
		&tenant.CompanyName,
		&tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant %q: %w", name, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return tenant, nil
}

// EnsureByName returns the named tenant, inserting it when absent
func (r *TenantRepository) EnsureByName(ctx context.Context, name string, id uuid.UUID) (*models.Tenant, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO tenants (id, company_name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_name) DO UPDATE SET company_name = EXCLUDED.company_name
		RETURNING id, company_name, created_at
	`

	tenant := &models.Tenant{}
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id, name, time.Now().UTC()).Scan(
		&tenant.ID,
		&tenant.CompanyName,
		&tenant.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure tenant: %w", err)
	}

	r.logger.Debug("tenant ensured", zap.String("id", tenant.ID.String()), zap.String("company_name", name))
	return tenant, nil
}
