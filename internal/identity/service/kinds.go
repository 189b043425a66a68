package service

import (
	"context"
	"time"

	"placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/account/repository"
)

// accountKind erases the type parameter of a repository.Store so the flows can pick a store by
// role at runtime.
type accountKind interface {
	role() domain.Role
	byID(ctx context.Context, id string) (domain.Account, error)
	byEmail(ctx context.Context, email string) (domain.Account, error)
	create(ctx context.Context, id, name, email, passwordHash string, now time.Time) (domain.Account, error)
	credentials() credentialStore
}

// credentialStore is the non-generic subset of repository.Store.
type credentialStore interface {
	SetRefreshToken(ctx context.Context, id, tokenHash string) error
	RotateRefreshToken(ctx context.Context, id, oldHash, newHash string) (bool, error)
	ClearRefreshToken(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetPasswordReset(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, id, tokenHash, newPasswordHash string, now time.Time) (bool, error)
}

type storeKind[A domain.Account] struct {
	store      repository.Store[A]
	newAccount func(id, name, email, passwordHash string, now time.Time) A
}

func (k storeKind[A]) role() domain.Role { return k.store.Role() }

func (k storeKind[A]) byID(ctx context.Context, id string) (domain.Account, error) {
	a, err := k.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (k storeKind[A]) byEmail(ctx context.Context, email string) (domain.Account, error) {
	a, err := k.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (k storeKind[A]) create(ctx context.Context, id, name, email, passwordHash string, now time.Time) (domain.Account, error) {
	a := k.newAccount(id, name, email, passwordHash, now)
	if err := k.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (k storeKind[A]) credentials() credentialStore { return k.store }

func newStudent(id, name, email, passwordHash string, now time.Time) *domain.Student {
	return &domain.Student{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
		Creds:     domain.Credentials{PasswordHash: passwordHash},
	}
}

func newCompany(id, name, email, passwordHash string, now time.Time) *domain.Company {
	return &domain.Company{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
		Creds:     domain.Credentials{PasswordHash: passwordHash},
	}
}
