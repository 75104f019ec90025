package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// User tests
func TestNewUser(t *testing.T) {
	name := "Ada Lovelace"
	user := NewUser("user_2abc", "ada@example.com", &name, UserTypeStaff)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "user_2abc", user.ClerkUserID)
	assert.Equal(t, "ada@example.com", user.Email)
	require.NotNil(t, user.FullName)
	assert.Equal(t, name, *user.FullName)
	assert.Equal(t, UserTypeStaff, user.UserType)
	assert.Nil(t, user.DeletedAt)
	assert.False(t, user.IsDeleted())
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUser_TableName(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
}

func TestUser_IsDeleted(t *testing.T) {
	user := NewUser("user_1", "a@b.com", nil, UserTypeStudent)
	now := time.Now()
	user.DeletedAt = &now
	assert.True(t, user.IsDeleted())
}

func TestUser_JSONOmitsNilFields(t *testing.T) {
	user := NewUser("user_1", "a@b.com", nil, UserTypeStudent)

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "full_name")
	assert.NotContains(t, string(data), "deleted_at")
	assert.Contains(t, string(data), `"user_type":"student"`)
}

func TestUserType_Valid(t *testing.T) {
	assert.True(t, UserTypeStaff.Valid())
	assert.True(t, UserTypeStudent.Valid())
	assert.False(t, UserType("guest").Valid())
	assert.False(t, UserType("").Valid())
}

// Tenant tests
func TestTenant_TableName(t *testing.T) {
	assert.Equal(t, "tenants", Tenant{}.TableName())
}

// Role tests
func TestRole_Valid(t *testing.T) {
	for _, role := range AllRoles {
		assert.True(t, role.Valid(), "role %s should be valid", role)
	}

	assert.Len(t, AllRoles, 9)
	assert.False(t, Role("Wizard").Valid())
	assert.False(t, Role("superadmin").Valid())
	assert.False(t, Role("").Valid())
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{name: "exact", input: "Instructor", want: RoleInstructor},
		{name: "surrounding whitespace", input: "  Examiner ", want: RoleExaminer},
		{name: "wrong case", input: "student", wantErr: true},
		{name: "unknown", input: "Wizard", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTenantUserRole(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	mapping := NewTenantUserRole(tenantID, userID, RoleStudent)

	assert.Equal(t, tenantID, mapping.TenantID)
	assert.Equal(t, userID, mapping.UserID)
	assert.Equal(t, RoleStudent, mapping.Role)
	assert.Equal(t, "tenant_user_roles", mapping.TableName())
}

// AuditLog tests
func TestNewAuditLog(t *testing.T) {
	tenantID := uuid.New()
	actor := uuid.New()
	target := uuid.New()

	log := NewAuditLog(tenantID, AuditActionRoleAssigned).
		WithActor(actor).
		WithTarget(target).
		WithRequest("req-1").
		WithDetails(map[string]string{"role": "Admin"})

	assert.NotEqual(t, uuid.Nil, log.ID)
	assert.Equal(t, tenantID, log.TenantID)
	require.NotNil(t, log.ActorUserID)
	assert.Equal(t, actor, *log.ActorUserID)
	require.NotNil(t, log.TargetUserID)
	assert.Equal(t, target, *log.TargetUserID)
	assert.Equal(t, "req-1", log.RequestID)
	assert.JSONEq(t, `{"role":"Admin"}`, string(log.Details))
	assert.Equal(t, "audit_logs", log.TableName())
}
