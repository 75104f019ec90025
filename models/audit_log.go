package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionRoleAssigned AuditAction = "role_assigned"
)

// AuditLog represents an audit trail entry for privileged mutations
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	ActorUserID  *uuid.UUID      `json:"actor_user_id,omitempty" db:"actor_user_id"`
	TargetUserID *uuid.UUID      `json:"target_user_id,omitempty" db:"target_user_id"`
	Action       AuditAction     `json:"action" db:"action"`
	Details      json.RawMessage `json:"details" db:"details"` // JSONB for flexible metadata
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(tenantID uuid.UUID, action AuditAction) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Action:    action,
		Details:   json.RawMessage(`{}`),
		Timestamp: time.Now().UTC(),
	}
}

// WithActor sets the acting user ID
func (a *AuditLog) WithActor(userID uuid.UUID) *AuditLog {
	a.ActorUserID = &userID
	return a
}

// WithTarget sets the target user ID
func (a *AuditLog) WithTarget(userID uuid.UUID) *AuditLog {
	a.TargetUserID = &userID
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID string) *AuditLog {
	a.RequestID = requestID
	return a
}
