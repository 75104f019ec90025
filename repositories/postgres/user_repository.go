package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/repositories"
	"go.uber.org/zap"
)

const userColumns = `id, clerk_user_id, email, full_name, user_type, deleted_at, created_at, updated_at`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertByClerkID inserts the user or refreshes the existing row for the same identity provider id.
// A re-appearing user is un-deleted.
func (r *UserRepository) UpsertByClerkID(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, clerk_user_id, email, full_name, user_type, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6, $7)
		ON CONFLICT (clerk_user_id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			user_type = EXCLUDED.user_type,
			deleted_at = NULL,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		user.ID,
		user.ClerkUserID,
		user.Email,
		user.FullName,
		user.UserType,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	user.DeletedAt = nil

	r.logger.Debug("user upserted",
		zap.String("id", user.ID.String()),
		zap.String("clerk_user_id", user.ClerkUserID),
		zap.String("user_type", string(user.UserType)))
	return nil
}

// SoftDeleteByClerkID stamps deleted_at on an active row. Already deleted or unknown users are left alone.
func (r *UserRepository) SoftDeleteByClerkID(ctx context.Context, clerkUserID string) (bool, error) {
	query := `
		UPDATE users
		SET deleted_at = $2, updated_at = $2
		WHERE clerk_user_id = $1 AND deleted_at IS NULL
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, clerkUserID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to soft delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Debug("user soft delete", zap.String("clerk_user_id", clerkUserID), zap.Int64("rows", rows))
	return rows > 0, nil
}

// GetByClerkID retrieves a user by identity provider id
func (r *UserRepository) GetByClerkID(ctx context.Context, clerkUserID string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE clerk_user_id = $1
	`

	user, err := scanUser(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, clerkUserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user for clerk_user_id %s: %w", clerkUserID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email. Active rows win over deleted ones sharing an address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)
		ORDER BY deleted_at IS NULL DESC, updated_at DESC
		LIMIT 1
	`

	user, err := scanUser(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user for email %s: %w", email, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.ClerkUserID,
		&user.Email,
		&user.FullName,
		&user.UserType,
		&user.DeletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
