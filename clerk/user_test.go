package clerk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserData_PrimaryEmail(t *testing.T) {
	addrs := []EmailAddress{
		{ID: "idn_1", EmailAddress: "first@example.com"},
		{ID: "idn_2", EmailAddress: "primary@example.com"},
	}

	tests := []struct {
		name string
		user UserData
		want string
	}{
		{name: "matches primary id", user: UserData{EmailAddresses: addrs, PrimaryEmailAddressID: strPtr("idn_2")}, want: "primary@example.com"},
		{name: "unknown primary id falls back to first", user: UserData{EmailAddresses: addrs, PrimaryEmailAddressID: strPtr("idn_9")}, want: "first@example.com"},
		{name: "no primary id", user: UserData{EmailAddresses: addrs}, want: "first@example.com"},
		{name: "no addresses", user: UserData{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.PrimaryEmail())
		})
	}
}

func TestUserData_EmailOrPlaceholder(t *testing.T) {
	u := UserData{ID: "user_42"}
	assert.Equal(t, "missing-email-user_42@invalid.local", u.EmailOrPlaceholder())

	u.EmailAddresses = []EmailAddress{{ID: "idn_1", EmailAddress: "a@b.com"}}
	assert.Equal(t, "a@b.com", u.EmailOrPlaceholder())
}

func TestUserData_FullName(t *testing.T) {
	tests := []struct {
		name  string
		first *string
		last  *string
		want  *string
	}{
		{name: "both", first: strPtr("Ada"), last: strPtr("Lovelace"), want: strPtr("Ada Lovelace")},
		{name: "first only", first: strPtr("Ada"), want: strPtr("Ada")},
		{name: "last only", last: strPtr("Lovelace"), want: strPtr("Lovelace")},
		{name: "neither", want: nil},
		{name: "blank strings", first: strPtr(" "), last: strPtr(""), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UserData{FirstName: tt.first, LastName: tt.last}.FullName()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}
