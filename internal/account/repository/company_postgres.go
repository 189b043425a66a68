package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"placement-portal/backend/internal/account/domain"
)

const companyColumns = `id, name, email, password_hash, address, phone, website, profile_complete,
	refresh_token_hash, password_reset_hash, password_reset_expires_at, created_at, updated_at`

// CompanyRepository is the Postgres Store for companies.
type CompanyRepository struct {
	db    *sql.DB
	creds credentialQueries
}

// NewCompanyRepository returns a company store that uses the given db for persistence.
func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db, creds: credentialQueries{db: db, table: "companies"}}
}

func (r *CompanyRepository) Role() domain.Role { return domain.RoleCompany }

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	return scanCompany(row)
}

func (r *CompanyRepository) GetByEmail(ctx context.Context, email string) (*domain.Company, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE email = $1`, email)
	return scanCompany(row)
}

// Create persists the company. The company must have ID set; it is not assigned by this method.
func (r *CompanyRepository) Create(ctx context.Context, c *domain.Company) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO companies (`+companyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.Name, c.Email, c.Creds.PasswordHash, nullString(c.Address), nullString(c.Phone),
		nullString(c.Website), c.ProfileComplete, nullString(c.Creds.RefreshTokenHash),
		nullString(c.Creds.PasswordResetHash), nullTime(c.Creds.PasswordResetExpiresAt), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return mapCreateErr(err)
	}
	return nil
}

func (r *CompanyRepository) UpdateProfile(ctx context.Context, c *domain.Company) error {
	res, err := r.db.ExecContext(ctx, `UPDATE companies SET name = $2, address = $3, phone = $4, website = $5,
		profile_complete = $6, updated_at = $7 WHERE id = $1`,
		c.ID, c.Name, nullString(c.Address), nullString(c.Phone), nullString(c.Website), c.ProfileComplete, c.UpdatedAt)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *CompanyRepository) SetRefreshToken(ctx context.Context, id, tokenHash string) error {
	return r.creds.setRefreshToken(ctx, id, tokenHash)
}

func (r *CompanyRepository) RotateRefreshToken(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	return r.creds.rotateRefreshToken(ctx, id, oldHash, newHash)
}

func (r *CompanyRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.creds.clearRefreshToken(ctx, id)
}

func (r *CompanyRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.creds.updatePassword(ctx, id, passwordHash)
}

func (r *CompanyRepository) SetPasswordReset(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	return r.creds.setPasswordReset(ctx, id, tokenHash, expiresAt)
}

func (r *CompanyRepository) ConsumePasswordReset(ctx context.Context, id, tokenHash, newPasswordHash string, now time.Time) (bool, error) {
	return r.creds.consumePasswordReset(ctx, id, tokenHash, newPasswordHash, now)
}

func scanCompany(row *sql.Row) (*domain.Company, error) {
	var (
		c                       domain.Company
		address, phone, website sql.NullString
		refreshHash, resetHash  sql.NullString
		resetExpires            sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Creds.PasswordHash, &address, &phone, &website,
		&c.ProfileComplete, &refreshHash, &resetHash, &resetExpires, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	c.Address = address.String
	c.Phone = phone.String
	c.Website = website.String
	c.Creds.RefreshTokenHash = refreshHash.String
	c.Creds.PasswordResetHash = resetHash.String
	c.Creds.PasswordResetExpiresAt = timePtr(resetExpires)
	return &c, nil
}
