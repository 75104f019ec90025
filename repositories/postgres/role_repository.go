package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/repositories"
	"go.uber.org/zap"
)

// TenantUserRoleRepository implements the repositories.TenantUserRoleRepository interface
type TenantUserRoleRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTenantUserRoleRepository creates a new role repository
func NewTenantUserRoleRepository(db *DB, logger *zap.Logger) repositories.TenantUserRoleRepository {
	return &TenantUserRoleRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert sets the role for (tenant, user), replacing any previous one
func (r *TenantUserRoleRepository) Upsert(ctx context.Context, assignment *models.TenantUserRole) error {
	query := `
		INSERT INTO tenant_user_roles (tenant_id, user_id, role, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		assignment.TenantID,
		assignment.UserID,
		assignment.Role,
		assignment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert role: %w", err)
	}

	r.logger.Debug("role upserted",
		zap.String("tenant_id", assignment.TenantID.String()),
		zap.String("user_id", assignment.UserID.String()),
		zap.String("role", assignment.Role.String()))
	return nil
}

// GetRole returns the role a user holds in a tenant
func (r *TenantUserRoleRepository) GetRole(ctx context.Context, tenantID, userID uuid.UUID) (models.Role, error) {
	query := `
		SELECT role
		FROM tenant_user_roles
		WHERE tenant_id = $1 AND user_id = $2
	`

	var role models.Role
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("role for user %s in tenant %s: %w", userID, tenantID, repositories.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get role: %w", err)
	}

	return role, nil
}
