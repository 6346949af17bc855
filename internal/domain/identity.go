package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Identity is the resolved user profile shown across the portal. It is
// built from the employee directory row when one exists, and otherwise
// synthesized from the account so that a signed-in user always has a
// usable display identity.
type Identity struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// Fallback defaults used when no employee directory row exists.
const (
	DefaultDepartment = "General"
	DefaultPosition   = "Employee"
)

// IdentityFromEmployee maps a directory row to a portal identity.
func IdentityFromEmployee(e *Employee) *Identity {
	return &Identity{
		ID:         e.ID,
		Email:      e.Email,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Department: e.Department,
		Position:   e.Position,
	}
}

// FallbackIdentity synthesizes an identity from the bare account. The
// first name is the capitalized local part of the email address.
func FallbackIdentity(a *Account) *Identity {
	return &Identity{
		ID:         a.ID,
		Email:      a.Email,
		FirstName:  capitalizeLocalPart(a.Email),
		LastName:   "",
		Department: DefaultDepartment,
		Position:   DefaultPosition,
	}
}

func capitalizeLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	r, size := utf8.DecodeRuneInString(local)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + local[size:]
}
