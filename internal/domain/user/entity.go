package user

import "strings"

// RedactedPassword replaces the password in every response that includes a user.
const RedactedPassword = "<redacted>"

// User represents a user entity in the system.
type User struct {
	ID           int64  // ID is assigned on creation and never changes
	FirstName    string // FirstName is the given name of the user
	LastName     string // LastName is the family name of the user
	Email        string // Email is the unique, canonical email address of the user
	PasswordHash string // PasswordHash is the bcrypt hash of the user's password
}

// Patch holds the fields of a partial update. Nil fields are left unchanged.
type Patch struct {
	FirstName    *string
	LastName     *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.PasswordHash == nil
}

// Apply returns a copy of u with the patch applied.
func (p Patch) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	return u
}

// CanonicalEmail normalizes an email for storage and comparison.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
