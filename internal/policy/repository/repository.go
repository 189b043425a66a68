package repository

import (
	"context"

	"placement-portal/backend/internal/policy/domain"
)

// Repository defines persistence for eligibility policies.
type Repository interface {
	// GetActive returns the newest enabled policy, or nil when none is stored.
	GetActive(ctx context.Context) (*domain.Policy, error)
	Create(ctx context.Context, p *domain.Policy) error
}
