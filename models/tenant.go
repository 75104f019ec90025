package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an organizational scope under which roles are assigned
type Tenant struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CompanyName string    `json:"company_name" db:"company_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

