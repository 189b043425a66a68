package repository

import (
	"context"
	"database/sql"
	"errors"

	"placement-portal/backend/internal/policy/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a policy repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetActive returns the newest enabled policy, or nil if there is none.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetActive(ctx context.Context) (*domain.Policy, error) {
	var p domain.Policy
	err := r.db.QueryRowContext(ctx,
		`SELECT id, rules, enabled, created_at FROM eligibility_policies WHERE enabled ORDER BY created_at DESC LIMIT 1`,
	).Scan(&p.ID, &p.Rules, &p.Enabled, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Create persists the policy. The policy must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Policy) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO eligibility_policies (id, rules, enabled, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Rules, p.Enabled, p.CreatedAt,
	)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
