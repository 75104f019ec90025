package utils

import (
	"encoding/json"
	"net/http"

	"github.com/upb/tenant-access-gate/models"
)

// AssignRoleResponse is the envelope returned by the role assignment endpoint
type AssignRoleResponse struct {
	OK    bool   `json:"ok"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Error string `json:"error,omitempty"`
}

// RoleHistoryResponse lists the audit entries recorded for one user
type RoleHistoryResponse struct {
	OK      bool               `json:"ok"`
	Email   string             `json:"email"`
	Entries []*models.AuditLog `json:"entries"`
}

// HealthResponse represents a health or readiness probe response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteAssigned writes a 200 envelope reporting the assigned role
func WriteAssigned(w http.ResponseWriter, email, role string) error {
	return WriteJSON(w, http.StatusOK, AssignRoleResponse{
		OK:    true,
		Email: email,
		Role:  role,
	})
}

// WriteEnvelopeError writes a failed envelope. message must be safe to show to the caller.
func WriteEnvelopeError(w http.ResponseWriter, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return WriteJSON(w, status, AssignRoleResponse{
		OK:    false,
		Error: message,
	})
}

// WriteText writes a plain text body
func WriteText(w http.ResponseWriter, status int, body string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	return err
}

// WriteOKText writes the bare "OK" acknowledgement webhook senders expect
func WriteOKText(w http.ResponseWriter) error {
	return WriteText(w, http.StatusOK, "OK")
}

// WriteBadRequestText writes a bare 400 without any detail
func WriteBadRequestText(w http.ResponseWriter) error {
	return WriteText(w, http.StatusBadRequest, "Bad Request")
}
