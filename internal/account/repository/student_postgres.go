package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"placement-portal/backend/internal/account/domain"
)

const studentColumns = `id, name, email, password_hash, phone, gender, degree, branch, roll_no, cgpi,
	tenth_marks, twelfth_marks, graduating_year, profile_complete, placed,
	refresh_token_hash, password_reset_hash, password_reset_expires_at, created_at, updated_at`

// StudentRepository is the Postgres Store for students.
type StudentRepository struct {
	db    *sql.DB
	creds credentialQueries
}

// NewStudentRepository returns a student store that uses the given db for persistence.
func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db, creds: credentialQueries{db: db, table: "students"}}
}

func (r *StudentRepository) Role() domain.Role { return domain.RoleStudent }

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE email = $1`, email)
	return scanStudent(row)
}

// Create persists the student. The student must have ID set; it is not assigned by this method.
func (r *StudentRepository) Create(ctx context.Context, s *domain.Student) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO students (`+studentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		s.ID, s.Name, s.Email, s.Creds.PasswordHash, nullString(s.Phone), nullString(string(s.Gender)),
		nullString(string(s.Degree)), nullString(s.Branch), nullString(s.RollNo), s.CGPI,
		s.TenthMarks, s.TwelfthMarks, s.GraduatingYear, s.ProfileComplete, s.Placed,
		nullString(s.Creds.RefreshTokenHash), nullString(s.Creds.PasswordResetHash),
		nullTime(s.Creds.PasswordResetExpiresAt), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return mapCreateErr(err)
	}
	return nil
}

// UpdateProfile writes the profile fields. Credentials are untouched.
func (r *StudentRepository) UpdateProfile(ctx context.Context, s *domain.Student) error {
	res, err := r.db.ExecContext(ctx, `UPDATE students SET name = $2, phone = $3, gender = $4, degree = $5,
		branch = $6, roll_no = $7, cgpi = $8, tenth_marks = $9, twelfth_marks = $10, graduating_year = $11,
		profile_complete = $12, placed = $13, updated_at = $14 WHERE id = $1`,
		s.ID, s.Name, nullString(s.Phone), nullString(string(s.Gender)), nullString(string(s.Degree)),
		nullString(s.Branch), nullString(s.RollNo), s.CGPI, s.TenthMarks, s.TwelfthMarks, s.GraduatingYear,
		s.ProfileComplete, s.Placed, s.UpdatedAt)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *StudentRepository) SetRefreshToken(ctx context.Context, id, tokenHash string) error {
	return r.creds.setRefreshToken(ctx, id, tokenHash)
}

func (r *StudentRepository) RotateRefreshToken(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	return r.creds.rotateRefreshToken(ctx, id, oldHash, newHash)
}

func (r *StudentRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.creds.clearRefreshToken(ctx, id)
}

func (r *StudentRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.creds.updatePassword(ctx, id, passwordHash)
}

func (r *StudentRepository) SetPasswordReset(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	return r.creds.setPasswordReset(ctx, id, tokenHash, expiresAt)
}

func (r *StudentRepository) ConsumePasswordReset(ctx context.Context, id, tokenHash, newPasswordHash string, now time.Time) (bool, error) {
	return r.creds.consumePasswordReset(ctx, id, tokenHash, newPasswordHash, now)
}

func scanStudent(row *sql.Row) (*domain.Student, error) {
	var (
		s                                     domain.Student
		phone, gender, degree, branch, rollNo sql.NullString
		refreshHash, resetHash                sql.NullString
		resetExpires                          sql.NullTime
	)
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Creds.PasswordHash, &phone, &gender, &degree, &branch,
		&rollNo, &s.CGPI, &s.TenthMarks, &s.TwelfthMarks, &s.GraduatingYear, &s.ProfileComplete, &s.Placed,
		&refreshHash, &resetHash, &resetExpires, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	s.Phone = phone.String
	s.Gender = domain.Gender(gender.String)
	s.Degree = domain.Degree(degree.String)
	s.Branch = branch.String
	s.RollNo = rollNo.String
	s.Creds.RefreshTokenHash = refreshHash.String
	s.Creds.PasswordResetHash = resetHash.String
	s.Creds.PasswordResetExpiresAt = timePtr(resetExpires)
	return &s, nil
}
