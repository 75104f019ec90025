package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, tenant_id, actor_user_id, target_user_id, action, details, request_id, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		log.ID,
		log.TenantID,
		log.ActorUserID,
		log.TargetUserID,
		log.Action,
		string(log.Details),
		log.RequestID,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.Action)))
	return nil
}

// ListByTarget retrieves the most recent entries about a user in a tenant
func (r *AuditRepository) ListByTarget(ctx context.Context, tenantID, targetUserID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, tenant_id, actor_user_id, target_user_id, action, details, request_id, timestamp
		FROM audit_logs
		WHERE tenant_id = $1 AND target_user_id = $2
		ORDER BY timestamp DESC
		LIMIT $3
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, targetUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		log := &models.AuditLog{}
		var details []byte
		var requestID *string
		if err := rows.Scan(
			&log.ID,
			&log.TenantID,
			&log.ActorUserID,
			&log.TargetUserID,
			&log.Action,
			&details,
			&requestID,
			&log.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		log.Details = details
		if requestID != nil {
			log.RequestID = *requestID
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}

	return logs, nil
}
