package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"placement-portal/backend/internal/job/domain"
)

// passthroughConverter lets []string arguments reach sqlmock the way the pgx stdlib driver
// accepts them.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v interface{}) (driver.Value, error) { return v, nil }

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(passthroughConverter{}),
	)
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var jobRowColumns = []string{"id", "company_id", "type", "ctc", "eligible_branches", "last_date", "role",
	"location", "eligible_batch", "minimum_cgpa", "created_at", "updated_at"}

func TestPostgresRepository_ListOpen_ScansBranches(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)
	rows := sqlmock.NewRows(jobRowColumns).
		AddRow("j1", "c1", "full-time", 12.0, "{it,ece}", last, "SDE", "Pune", 2026, 7.0, now, now)
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*company_id.*FROM\s+jobs\s+WHERE\s+last_date\s*>\s*\$1`).
		WithArgs(now).
		WillReturnRows(rows)

	jobs, err := repo.ListOpen(context.Background(), now)
	if err != nil {
		t.Fatalf("ListOpen error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
	want := &domain.Job{
		ID: "j1", CompanyID: "c1", Type: domain.TypeFullTime, CTC: 12, EligibleBranches: []string{"it", "ece"},
		LastDate: last, Role: "SDE", Location: "Pune", EligibleBatch: 2026, MinimumCGPA: 7, CreatedAt: now, UpdatedAt: now,
	}
	if diff := cmp.Diff(want, jobs[0]); diff != "" {
		t.Errorf("job mismatch (-want +got):\n%s", diff)
	}
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+jobs\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(jobRowColumns))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestPostgresRepository_Apply_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+job_applications`).
		WithArgs("j1", "s1", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Apply(context.Background(), "j1", "s1", time.Now())
	if !errors.Is(err, domain.ErrAlreadyApplied) {
		t.Fatalf("err = %v, want ErrAlreadyApplied", err)
	}
}

func TestPostgresRepository_Withdraw_NotApplied(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+job_applications`).
		WithArgs("j1", "s1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Withdraw(context.Background(), "j1", "s1"); !errors.Is(err, domain.ErrNotApplied) {
		t.Fatalf("err = %v, want ErrNotApplied", err)
	}
}

func TestPostgresRepository_SetShortlist(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^UPDATE\s+job_applications\s+SET\s+shortlisted\s*=\s*FALSE`).
		WithArgs("j1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(`(?s)^UPDATE\s+job_applications\s+SET\s+shortlisted\s*=\s*TRUE.*ANY\(\$2\)\s+RETURNING\s+student_id`).
		WithArgs("j1", []string{"s1", "ghost"}).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow("s1"))
	mock.ExpectCommit()

	got, err := repo.SetShortlist(context.Background(), "j1", []string{"s1", "ghost"})
	if err != nil {
		t.Fatalf("SetShortlist error: %v", err)
	}
	if diff := cmp.Diff([]string{"s1"}, got); diff != "" {
		t.Errorf("shortlisted mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
