package repository

import (
	"context"
	"time"

	"placement-portal/backend/internal/account/domain"
)

// Store persists one account kind. The session flows and the auth gate are generic over it, so
// adding a role means adding a Store, not another branch. Lookups that match nothing return
// domain.ErrAccountNotFound.
type Store[A domain.Account] interface {
	// Role is the role claim carried by tokens of this kind.
	Role() domain.Role
	GetByID(ctx context.Context, id string) (A, error)
	GetByEmail(ctx context.Context, email string) (A, error)
	// Create persists a. Returns domain.ErrEmailTaken when the email exists for this kind.
	Create(ctx context.Context, a A) error
	// UpdateProfile writes the non-credential fields of a.
	UpdateProfile(ctx context.Context, a A) error

	SetRefreshToken(ctx context.Context, id, tokenHash string) error
	// RotateRefreshToken replaces the stored hash with newHash only if it currently equals oldHash.
	// It reports whether the swap happened; false means the presented token was not current.
	RotateRefreshToken(ctx context.Context, id, oldHash, newHash string) (bool, error)
	// ClearRefreshToken removes the stored hash. Clearing an absent token is not an error.
	ClearRefreshToken(ctx context.Context, id string) error
	// UpdatePassword stores a new password hash and clears the refresh token.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	SetPasswordReset(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	// ConsumePasswordReset sets the new password only if tokenHash is the stored reset hash and it
	// has not expired at now. On success it also clears the reset and refresh tokens.
	ConsumePasswordReset(ctx context.Context, id, tokenHash, newPasswordHash string, now time.Time) (bool, error)
}

// StudentStore is the student-kind Store.
type StudentStore = Store[*domain.Student]

// CompanyStore is the company-kind Store.
type CompanyStore = Store[*domain.Company]
