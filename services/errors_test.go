package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name:    "error with wrapped error",
			err:     ErrRoleUpsertFailed.Wrap(errors.New("db error")),
			wantMsg: "internal: Role upsert failed (db error)",
		},
		{
			name:    "error without wrapped error",
			err:     ErrMissingEmail,
			wantMsg: "validation: Missing email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Wrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := ErrInternal.Wrap(cause)

	assert.Equal(t, cause, errors.Unwrap(wrapped))
	assert.True(t, errors.Is(wrapped, ErrInternal))
	assert.Nil(t, ErrInternal.Err, "sentinel must not be mutated")
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "same sentinel", err: ErrForbidden, target: ErrForbidden, want: true},
		{name: "wrapped sentinel", err: fmt.Errorf("ctx: %w", ErrTargetNotFound.Wrap(nil)), target: ErrTargetNotFound, want: true},
		{name: "same type different message", err: ErrCallerNotSynced, target: ErrForbidden, want: false},
		{name: "different type", err: ErrMissingEmail, target: ErrTargetNotFound, want: false},
		{name: "not a domain error", err: ErrInternal, target: errors.New("regular error"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"not found", ErrTargetNotFound, ErrorTypeNotFound},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrTenantNotFound.Wrap(nil)), ErrorTypeNotFound},
		{"validation", ErrMissingEmail, ErrorTypeValidation},
		{"unauthorized", ErrUnauthorized, ErrorTypeUnauthorized},
		{"forbidden", ErrCallerNotSynced, ErrorTypeForbidden},
		{"configuration", ErrMissingDefaultTenant, ErrorTypeConfiguration},
		{"internal", ErrRoleUpsertFailed, ErrorTypeInternal},
		{"regular error", errors.New("regular"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestCallerFacingMessages(t *testing.T) {
	assert.Equal(t, "Unauthorized", ErrUnauthorized.Message)
	assert.Equal(t, "Missing email", ErrMissingEmail.Message)
	assert.Equal(t, "Invalid role", ErrInvalidRole.Message)
	assert.Equal(t, "Missing DEFAULT_TENANT_ID", ErrMissingDefaultTenant.Message)
	assert.Equal(t, "Your account is not synced to the registry yet.", ErrCallerNotSynced.Message)
	assert.Equal(t, "Forbidden", ErrForbidden.Message)
	assert.Equal(t, "User not found in registry (have they signed up yet?)", ErrTargetNotFound.Message)
	assert.Equal(t, "Role upsert failed", ErrRoleUpsertFailed.Message)
	assert.Equal(t, "Server error", ErrInternal.Message)
}
