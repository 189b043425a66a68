package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"placement-portal/backend/internal/account/domain"
)

const uniqueViolation = "23505"

// credentialQueries holds the credential statements shared by the students and companies tables.
type credentialQueries struct {
	db    *sql.DB
	table string
}

func (q credentialQueries) setRefreshToken(ctx context.Context, id, tokenHash string) error {
	res, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET refresh_token_hash = $2, updated_at = $3 WHERE id = $1`, q.table),
		id, tokenHash, time.Now().UTC())
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (q credentialQueries) rotateRefreshToken(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET refresh_token_hash = $3, updated_at = $4 WHERE id = $1 AND refresh_token_hash = $2`, q.table),
		id, oldHash, newHash, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (q credentialQueries) clearRefreshToken(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET refresh_token_hash = NULL, updated_at = $2 WHERE id = $1`, q.table),
		id, time.Now().UTC())
	return err
}

func (q credentialQueries) updatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET password_hash = $2, refresh_token_hash = NULL, updated_at = $3 WHERE id = $1`, q.table),
		id, passwordHash, time.Now().UTC())
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (q credentialQueries) setPasswordReset(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	res, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET password_reset_hash = $2, password_reset_expires_at = $3, updated_at = $4 WHERE id = $1`, q.table),
		id, tokenHash, expiresAt.UTC(), time.Now().UTC())
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (q credentialQueries) consumePasswordReset(ctx context.Context, id, tokenHash, newPasswordHash string, now time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET password_hash = $3, password_reset_hash = NULL, password_reset_expires_at = NULL,
			refresh_token_hash = NULL, updated_at = $4
			WHERE id = $1 AND password_reset_hash = $2 AND password_reset_expires_at > $4`, q.table),
		id, tokenHash, newPasswordHash, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func mapCreateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
