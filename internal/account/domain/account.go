package domain

import (
	"errors"
	"time"
)

// ErrAccountNotFound is returned by stores when no account matches the lookup.
var ErrAccountNotFound = errors.New("account not found")

// ErrEmailTaken is returned by Create when the email already exists for the kind.
var ErrEmailTaken = errors.New("email already registered")

// Role is the account kind carried in every token.
type Role string

const (
	RoleStudent Role = "student"
	RoleCompany Role = "company"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleCompany
}

// Credentials holds the secret fields of an account. They are never serialized.
type Credentials struct {
	PasswordHash           string     `json:"-"`
	RefreshTokenHash       string     `json:"-"`
	PasswordResetHash      string     `json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`
}

// Account is implemented by *Student and *Company. Stores, the auth gate and the session
// flows are written against it so that role dispatch stays generic.
type Account interface {
	AccountID() string
	AccountEmail() string
	AccountName() string
	AccountRole() Role
	Credentials() *Credentials
	// Public returns the sanitized projection sent to clients.
	Public() interface{}
	Touch(now time.Time)
}
