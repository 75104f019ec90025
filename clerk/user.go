package clerk

import (
	"fmt"
	"strings"
)

// EmailAddress is one address attached to a user
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// UserData is the user object carried by user.* events.
// Deletion events only populate ID and Deleted.
type UserData struct {
	ID                    string         `json:"id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID *string        `json:"primary_email_address_id"`
	Deleted               bool           `json:"deleted"`
}

// PrimaryEmail returns the address matching primary_email_address_id,
// else the first address, else an empty string.
func (u UserData) PrimaryEmail() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	if u.PrimaryEmailAddressID != nil {
		for _, e := range u.EmailAddresses {
			if e.ID == *u.PrimaryEmailAddressID {
				return e.EmailAddress
			}
		}
	}
	return u.EmailAddresses[0].EmailAddress
}

// EmailOrPlaceholder returns PrimaryEmail, or a synthesized address when the user has none
func (u UserData) EmailOrPlaceholder() string {
	if email := strings.TrimSpace(u.PrimaryEmail()); email != "" {
		return email
	}
	return PlaceholderEmail(u.ID)
}

// FullName joins first and last name. Nil when both are absent or blank.
func (u UserData) FullName() *string {
	var parts []string
	for _, p := range []*string{u.FirstName, u.LastName} {
		if p == nil {
			continue
		}
		if s := strings.TrimSpace(*p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	name := strings.Join(parts, " ")
	return &name
}

// PlaceholderEmail synthesizes an undeliverable address for users without email
func PlaceholderEmail(userID string) string {
	return fmt.Sprintf("missing-email-%s@invalid.local", userID)
}
