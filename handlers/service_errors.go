package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/tenant-access-gate/services"
	"github.com/upb/tenant-access-gate/utils"
	"go.uber.org/zap"
)

// StatusForError maps a domain error type to its HTTP status
func StatusForError(err error) int {
	switch services.GetErrorType(err) {
	case services.ErrorTypeValidation:
		return http.StatusBadRequest
	case services.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorTypeForbidden:
		return http.StatusForbidden
	case services.ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HandleServiceError writes the JSON envelope for err and returns the status written.
// Only the domain error's public message reaches the caller; the cause is logged.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) int {
	status := StatusForError(err)

	message := services.ErrInternal.Message
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("error_type", string(services.GetErrorType(err))),
			zap.Error(err))
	} else {
		logger.Debug("request rejected",
			zap.Int("status", status),
			zap.Error(err))
	}

	if werr := utils.WriteEnvelopeError(w, status, message); werr != nil {
		logger.Error("failed to write error response", zap.Error(werr))
	}
	return status
}
