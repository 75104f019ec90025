package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeUnauthorized  ErrorType = "unauthorized"
	ErrorTypeForbidden     ErrorType = "forbidden"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeInternal      ErrorType = "internal"
)

// DomainError represents a structured error with additional context.
// Message is safe to show to callers; Err is for logs only.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError with the same type and message
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// Wrap returns a copy of e carrying cause
func (e *DomainError) Wrap(cause error) *DomainError {
	return NewDomainError(e.Type, e.Message, cause)
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Domain error variables. Wrap them rather than mutating them.

var (
	// Not Found Errors
	ErrTargetNotFound = NewDomainError(ErrorTypeNotFound, "User not found in registry (have they signed up yet?)", nil)
	ErrTenantNotFound = NewDomainError(ErrorTypeNotFound, "Tenant not found", nil)

	// Validation Errors
	ErrMissingEmail   = NewDomainError(ErrorTypeValidation, "Missing email", nil)
	ErrInvalidRole    = NewDomainError(ErrorTypeValidation, "Invalid role", nil)
	ErrMalformedEvent = NewDomainError(ErrorTypeValidation, "Malformed event", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "Unauthorized", nil)

	// Permission Errors
	ErrForbidden       = NewDomainError(ErrorTypeForbidden, "Forbidden", nil)
	ErrCallerNotSynced = NewDomainError(ErrorTypeForbidden, "Your account is not synced to the registry yet.", nil)

	// Configuration Errors
	ErrMissingDefaultTenant = NewDomainError(ErrorTypeConfiguration, "Missing DEFAULT_TENANT_ID", nil)

	// Internal Errors
	ErrRoleUpsertFailed = NewDomainError(ErrorTypeInternal, "Role upsert failed", nil)
	ErrInternal         = NewDomainError(ErrorTypeInternal, "Server error", nil)
)

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}
