package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"placement-portal/backend/internal/job/domain"
)

const jobColumns = `id, company_id, type, ctc, eligible_branches, last_date, role, location,
	eligible_batch, minimum_cgpa, created_at, updated_at`

// PostgresRepository stores jobs in the jobs and job_applications tables.
type PostgresRepository struct {
	db   *sql.DB
	tmap *pgtype.Map
}

// NewPostgresRepository returns a job repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, tmap: pgtype.NewMap()}
}

func (r *PostgresRepository) Create(ctx context.Context, j *domain.Job) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		j.ID, j.CompanyID, string(j.Type), j.CTC, j.EligibleBranches, j.LastDate, j.Role, j.Location,
		j.EligibleBatch, j.MinimumCGPA, j.CreatedAt, j.UpdatedAt)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, j *domain.Job) error {
	res, err := r.db.ExecContext(ctx, `UPDATE jobs SET type = $2, ctc = $3, eligible_branches = $4,
		last_date = $5, role = $6, location = $7, eligible_batch = $8, minimum_cgpa = $9, updated_at = $10
		WHERE id = $1`,
		j.ID, string(j.Type), j.CTC, j.EligibleBranches, j.LastDate, j.Role, j.Location,
		j.EligibleBatch, j.MinimumCGPA, j.UpdatedAt)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	jobs, err := r.scanJobs(rows)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, domain.ErrJobNotFound
	}
	return jobs[0], nil
}

func (r *PostgresRepository) ListByCompany(ctx context.Context, companyID string) ([]*domain.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	return r.scanJobs(rows)
}

func (r *PostgresRepository) ListOpen(ctx context.Context, now time.Time) ([]*domain.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE last_date > $1 ORDER BY created_at DESC`, now.UTC())
	if err != nil {
		return nil, err
	}
	return r.scanJobs(rows)
}

func (r *PostgresRepository) Apply(ctx context.Context, jobID, studentID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO job_applications (job_id, student_id, applied_at) VALUES ($1, $2, $3)`,
		jobID, studentID, at.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyApplied
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) Withdraw(ctx context.Context, jobID, studentID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM job_applications WHERE job_id = $1 AND student_id = $2`, jobID, studentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotApplied
	}
	return nil
}

func (r *PostgresRepository) ListApplications(ctx context.Context, jobID string) ([]domain.Application, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT job_id, student_id, applied_at, shortlisted
		FROM job_applications WHERE job_id = $1 ORDER BY applied_at`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Application
	for rows.Next() {
		var a domain.Application
		if err := rows.Scan(&a.JobID, &a.StudentID, &a.AppliedAt, &a.Shortlisted); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListStudentApplications(ctx context.Context, studentID string) ([]domain.StudentApplication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT j.id, j.company_id, j.type, j.ctc, j.eligible_branches,
		j.last_date, j.role, j.location, j.eligible_batch, j.minimum_cgpa, j.created_at, j.updated_at,
		a.applied_at, a.shortlisted
		FROM job_applications a JOIN jobs j ON j.id = a.job_id
		WHERE a.student_id = $1 ORDER BY a.applied_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.StudentApplication
	for rows.Next() {
		var (
			j  domain.Job
			sa domain.StudentApplication
		)
		dest := append(r.jobDest(&j), &sa.AppliedAt, &sa.Shortlisted)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		sa.Job = &j
		out = append(out, sa)
	}
	return out, rows.Err()
}

// SetShortlist runs in one transaction so the shortlisted set is replaced atomically.
func (r *PostgresRepository) SetShortlist(ctx context.Context, jobID string, studentIDs []string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE job_applications SET shortlisted = FALSE WHERE job_id = $1`, jobID); err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, `UPDATE job_applications SET shortlisted = TRUE
		WHERE job_id = $1 AND student_id = ANY($2) RETURNING student_id`, jobID, studentIDs)
	if err != nil {
		return nil, err
	}
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) jobDest(j *domain.Job) []interface{} {
	return []interface{}{&j.ID, &j.CompanyID, &j.Type, &j.CTC, r.tmap.SQLScanner(&j.EligibleBranches),
		&j.LastDate, &j.Role, &j.Location, &j.EligibleBatch, &j.MinimumCGPA, &j.CreatedAt, &j.UpdatedAt}
}

func (r *PostgresRepository) scanJobs(rows *sql.Rows) ([]*domain.Job, error) {
	defer rows.Close()
	var out []*domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(r.jobDest(&j)...); err != nil {
			return nil, err
		}
		out = append(out, &j)
	}
	return out, rows.Err()
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}
