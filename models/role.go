package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a tenant-scoped role from a fixed enumeration
type Role string

const (
	RoleSuperAdmin      Role = "SuperAdmin"
	RoleFullAdmin       Role = "FullAdmin"
	RoleAdmin           Role = "Admin"
	RoleRegionalManager Role = "RegionalManager"
	RoleGeneralManager  Role = "GeneralManager"
	RoleProgramDirector Role = "ProgramDirector"
	RoleInstructor      Role = "Instructor"
	RoleExaminer        Role = "Examiner"
	RoleStudent         Role = "Student"
)

// AllRoles lists every assignable role in display order
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleFullAdmin,
	RoleAdmin,
	RoleRegionalManager,
	RoleGeneralManager,
	RoleProgramDirector,
	RoleInstructor,
	RoleExaminer,
	RoleStudent,
}

// Valid reports whether r is part of the enumeration. Matching is case sensitive.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole trims s and returns the matching Role
func ParseRole(s string) (Role, error) {
	role := Role(strings.TrimSpace(s))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// TenantUserRole maps a (tenant, user) pair to exactly one role
type TenantUserRole struct {
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the TenantUserRole model
func (TenantUserRole) TableName() string {
	return "tenant_user_roles"
}

// NewTenantUserRole creates a new role mapping
func NewTenantUserRole(tenantID, userID uuid.UUID, role Role) *TenantUserRole {
	return &TenantUserRole{
		TenantID:  tenantID,
		UserID:    userID,
		Role:      role,
		UpdatedAt: time.Now().UTC(),
	}
}
