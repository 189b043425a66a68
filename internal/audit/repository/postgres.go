package repository

import (
	"context"
	"database/sql"

	"placement-portal/backend/internal/audit/domain"
)

const auditColumns = `id, account_id, role, action, resource, ip, metadata, created_at`

// PostgresRepository stores audit logs in the audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, nullString(a.AccountID), nullString(a.Role), a.Action, a.Resource,
		nullString(a.IP), nullString(a.Metadata), a.CreatedAt,
	)
	return err
}

// ListByAccount returns the newest audit logs of an account, paginated by limit and offset.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a                           domain.AuditLog
			account, role, ip, metadata sql.NullString
		)
		if err := rows.Scan(&a.ID, &account, &role, &a.Action, &a.Resource, &ip, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.AccountID = account.String
		a.Role = role.String
		a.IP = ip.String
		a.Metadata = metadata.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repository = (*PostgresRepository)(nil)
