package models

import (
	"time"

	"github.com/google/uuid"
)

// UserType is the audience a user was synchronized from
type UserType string

const (
	UserTypeStaff   UserType = "staff"
	UserTypeStudent UserType = "student"
)

// Valid reports whether the user type is one of the known audiences
func (t UserType) Valid() bool {
	return t == UserTypeStaff || t == UserTypeStudent
}

// User is a registry row mirrored from the identity provider
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ClerkUserID string     `json:"clerk_user_id" db:"clerk_user_id"` // immutable identity provider key
	Email       string     `json:"email" db:"email"`
	FullName    *string    `json:"full_name,omitempty" db:"full_name"`
	UserType    UserType   `json:"user_type" db:"user_type"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates an active User for the given identity provider id
func NewUser(clerkUserID, email string, fullName *string, userType UserType) *User {
	now := time.Now().UTC()
	return &User{
		ID:          uuid.New(),
		ClerkUserID: clerkUserID,
		Email:       email,
		FullName:    fullName,
		UserType:    userType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsDeleted returns true if the user has been soft deleted
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}
