package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/tenant-access-gate/services"
	"github.com/upb/tenant-access-gate/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()
	storeErr := errors.New(`pq: duplicate key value violates unique constraint "users_pkey"`)

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "unauthorized",
			err:             services.ErrUnauthorized,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Unauthorized",
		},
		{
			name:            "missing email",
			err:             services.ErrMissingEmail,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Missing email",
		},
		{
			name:            "invalid role",
			err:             services.ErrInvalidRole.Wrap(errors.New(`unknown role "Wizard"`)),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid role",
		},
		{
			name:            "caller not synced",
			err:             services.ErrCallerNotSynced,
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Your account is not synced to the registry yet.",
		},
		{
			name:            "forbidden",
			err:             services.ErrForbidden,
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Forbidden",
		},
		{
			name:            "target not found",
			err:             services.ErrTargetNotFound,
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "User not found in registry (have they signed up yet?)",
		},
		{
			name:            "missing tenant configuration",
			err:             services.ErrMissingDefaultTenant,
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Missing DEFAULT_TENANT_ID",
		},
		{
			name:            "role upsert failure hides store text",
			err:             services.ErrRoleUpsertFailed.Wrap(storeErr),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Role upsert failed",
		},
		{
			name:            "unknown error",
			err:             storeErr,
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			status := HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "pq:")

			var response utils.AssignRoleResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.False(t, response.OK)
			assert.Equal(t, tt.expectedMessage, response.Error)
		})
	}
}

func TestStatusForError_NonDomainErrors(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusForError(assert.AnError))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(nil))
}
