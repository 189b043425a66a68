package repository

import (
	"context"
	"time"

	"placement-portal/backend/internal/job/domain"
)

// Repository persists jobs and applications. GetByID, Update and Delete return
// domain.ErrJobNotFound for unknown ids.
type Repository interface {
	Create(ctx context.Context, j *domain.Job) error
	Update(ctx context.Context, j *domain.Job) error
	// Delete removes the job and its applications.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	ListByCompany(ctx context.Context, companyID string) ([]*domain.Job, error)
	// ListOpen returns jobs whose last date is after now, newest first.
	ListOpen(ctx context.Context, now time.Time) ([]*domain.Job, error)

	// Apply records an application. Returns domain.ErrAlreadyApplied on duplicates.
	Apply(ctx context.Context, jobID, studentID string, at time.Time) error
	// Withdraw removes an application. Returns domain.ErrNotApplied when there is none.
	Withdraw(ctx context.Context, jobID, studentID string) error
	ListApplications(ctx context.Context, jobID string) ([]domain.Application, error)
	ListStudentApplications(ctx context.Context, studentID string) ([]domain.StudentApplication, error)
	// SetShortlist marks exactly the given applicants as shortlisted for the job; ids that did not
	// apply are ignored. Returns the ids now shortlisted.
	SetShortlist(ctx context.Context, jobID string, studentIDs []string) ([]string, error)
}
