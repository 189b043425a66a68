// Package service implements the student side of the portal: profile completion, eligible jobs
// and applications.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	accountdomain "placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/account/repository"
	jobdomain "placement-portal/backend/internal/job/domain"
	jobrepo "placement-portal/backend/internal/job/repository"
	"placement-portal/backend/internal/platform/apperr"
	"placement-portal/backend/internal/policy/engine"
	"placement-portal/backend/internal/telemetry"
)

// CompanyFinder loads the company that posted a job.
type CompanyFinder interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Company, error)
}

// CompanySummary is the part of a company shown next to its jobs.
type CompanySummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// JobListing is a job with its company.
type JobListing struct {
	*jobdomain.Job
	Company *CompanySummary `json:"company,omitempty"`
}

// AppliedJob is a job the student applied to.
type AppliedJob struct {
	JobListing
	AppliedAt   time.Time `json:"appliedAt"`
	Shortlisted bool      `json:"shortlisted"`
}

// ProfileInput is the body of a profile completion. Gender is optional.
type ProfileInput struct {
	Name           string  `json:"name"`
	RollNo         string  `json:"rollNo"`
	Degree         string  `json:"degree"`
	CGPI           float64 `json:"cgpi"`
	TenthMarks     float64 `json:"tenthMarks"`
	TwelfthMarks   float64 `json:"twelfthMarks"`
	GraduatingYear int     `json:"graduatingYear"`
	Branch         string  `json:"branch"`
	Phone          string  `json:"phone"`
	Gender         string  `json:"gender"`
}

// StudentService serves the gated /student routes.
type StudentService struct {
	students  repository.StudentStore
	companies CompanyFinder
	jobs      jobrepo.Repository
	policy    engine.Evaluator
	events    telemetry.EventEmitter
	now       func() time.Time
}

// NewStudentService returns a StudentService. events may be nil.
func NewStudentService(students repository.StudentStore, companies CompanyFinder, jobs jobrepo.Repository, policy engine.Evaluator, events telemetry.EventEmitter) *StudentService {
	return &StudentService{
		students:  students,
		companies: companies,
		jobs:      jobs,
		policy:    policy,
		events:    events,
		now:       time.Now,
	}
}

// CompleteProfile validates in, writes it onto the student and marks the profile complete.
func (s *StudentService) CompleteProfile(ctx context.Context, st *accountdomain.Student, in ProfileInput) (*accountdomain.Student, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.RollNo) == "" || in.Degree == "" ||
		in.CGPI == 0 || in.TenthMarks == 0 || in.TwelfthMarks == 0 || in.GraduatingYear == 0 ||
		strings.TrimSpace(in.Branch) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, apperr.Validation("All fields are required")
	}
	degree := accountdomain.Degree(strings.ToLower(in.Degree))
	if !degree.Valid() {
		return nil, apperr.Validation("Invalid degree")
	}
	branch := strings.ToLower(strings.TrimSpace(in.Branch))
	if !jobdomain.KnownBranches[branch] || branch == jobdomain.BranchAll {
		return nil, apperr.Validation("Invalid branch")
	}
	if in.CGPI < 0 || in.CGPI > 10 {
		return nil, apperr.Validation("CGPI must be between 0 and 10")
	}
	if in.TenthMarks < 0 || in.TenthMarks > 100 || in.TwelfthMarks < 0 || in.TwelfthMarks > 100 {
		return nil, apperr.Validation("Marks must be between 0 and 100")
	}
	var gender accountdomain.Gender
	if in.Gender != "" {
		gender = accountdomain.Gender(strings.ToLower(in.Gender))
		if !gender.Valid() {
			return nil, apperr.Validation("Invalid gender")
		}
	}

	updated := *st
	updated.Name = strings.TrimSpace(in.Name)
	updated.RollNo = strings.TrimSpace(in.RollNo)
	updated.Degree = degree
	updated.CGPI = in.CGPI
	updated.TenthMarks = in.TenthMarks
	updated.TwelfthMarks = in.TwelfthMarks
	updated.GraduatingYear = in.GraduatingYear
	updated.Branch = branch
	updated.Phone = strings.TrimSpace(in.Phone)
	if gender != "" {
		updated.Gender = gender
	}
	updated.ProfileComplete = updated.HasCompleteProfile()
	updated.Touch(s.now().UTC())
	if err := s.students.UpdateProfile(ctx, &updated); err != nil {
		if errors.Is(err, accountdomain.ErrAccountNotFound) {
			return nil, apperr.Unauthenticated()
		}
		return nil, apperr.Internal(err)
	}
	s.emit(telemetry.EventProfileUpdated, updated.ID, nil)
	return &updated, nil
}

// EligibleJobs lists open jobs the student may apply to. The profile must be complete.
func (s *StudentService) EligibleJobs(ctx context.Context, st *accountdomain.Student) ([]JobListing, error) {
	if !st.ProfileComplete {
		return nil, apperr.Validation("Please complete your profile to view eligible jobs.")
	}
	now := s.now().UTC()
	open, err := s.jobs.ListOpen(ctx, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	eligible, err := engine.FilterEligible(ctx, s.policy, st, open, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	cache := map[string]*CompanySummary{}
	out := make([]JobListing, 0, len(eligible))
	for _, j := range eligible {
		out = append(out, JobListing{Job: j, Company: s.company(ctx, cache, j.CompanyID)})
	}
	return out, nil
}

// Apply records an application. The job must exist, not already be applied to, and be eligible.
func (s *StudentService) Apply(ctx context.Context, st *accountdomain.Student, jobID string) error {
	j, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobdomain.ErrJobNotFound) {
			return apperr.NotFound("Job not found")
		}
		return apperr.Internal(err)
	}
	applied, err := s.jobs.ListStudentApplications(ctx, st.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	for _, a := range applied {
		if a.Job != nil && a.Job.ID == j.ID {
			return apperr.Conflict("You have already applied for this job")
		}
	}
	if !st.ProfileComplete {
		return apperr.Validation("Please complete your profile before applying.")
	}
	now := s.now().UTC()
	decision, err := s.policy.Evaluate(ctx, st, j, now)
	if err != nil {
		return apperr.Internal(err)
	}
	if !decision.Eligible {
		msg := "You are not eligible for this job"
		if len(decision.Reasons) > 0 {
			msg += ": " + strings.Join(decision.Reasons, ", ")
		}
		return apperr.Forbidden(msg)
	}
	if err := s.jobs.Apply(ctx, j.ID, st.ID, now); err != nil {
		if errors.Is(err, jobdomain.ErrAlreadyApplied) {
			return apperr.Conflict("You have already applied for this job")
		}
		if errors.Is(err, jobdomain.ErrJobNotFound) {
			return apperr.NotFound("Job not found")
		}
		return apperr.Internal(err)
	}
	s.emit(telemetry.EventJobApplied, st.ID, map[string]string{"jobId": j.ID})
	return nil
}

// Withdraw removes the student's application to jobID.
func (s *StudentService) Withdraw(ctx context.Context, st *accountdomain.Student, jobID string) error {
	if err := s.jobs.Withdraw(ctx, jobID, st.ID); err != nil {
		if errors.Is(err, jobdomain.ErrNotApplied) || errors.Is(err, jobdomain.ErrJobNotFound) {
			return apperr.Validation("You have not applied for this job")
		}
		return apperr.Internal(err)
	}
	s.emit(telemetry.EventApplicationWithdrawn, st.ID, map[string]string{"jobId": jobID})
	return nil
}

// AppliedJobs lists every application of the student, newest first.
func (s *StudentService) AppliedJobs(ctx context.Context, st *accountdomain.Student) ([]AppliedJob, error) {
	return s.applications(ctx, st, false)
}

// ShortlistedJobs lists the applications on which the student was shortlisted.
func (s *StudentService) ShortlistedJobs(ctx context.Context, st *accountdomain.Student) ([]AppliedJob, error) {
	return s.applications(ctx, st, true)
}

func (s *StudentService) applications(ctx context.Context, st *accountdomain.Student, shortlistedOnly bool) ([]AppliedJob, error) {
	apps, err := s.jobs.ListStudentApplications(ctx, st.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	cache := map[string]*CompanySummary{}
	out := make([]AppliedJob, 0, len(apps))
	for _, a := range apps {
		if a.Job == nil || (shortlistedOnly && !a.Shortlisted) {
			continue
		}
		out = append(out, AppliedJob{
			JobListing:  JobListing{Job: a.Job, Company: s.company(ctx, cache, a.Job.CompanyID)},
			AppliedAt:   a.AppliedAt,
			Shortlisted: a.Shortlisted,
		})
	}
	return out, nil
}

// company returns the summary of a job's company, or nil when it cannot be loaded.
func (s *StudentService) company(ctx context.Context, cache map[string]*CompanySummary, id string) *CompanySummary {
	if c, ok := cache[id]; ok {
		return c
	}
	var summary *CompanySummary
	c, err := s.companies.GetByID(ctx, id)
	switch {
	case err == nil:
		summary = &CompanySummary{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
	case !errors.Is(err, accountdomain.ErrAccountNotFound):
		log.Printf("student: load company %s: %v", id, err)
	}
	cache[id] = summary
	return summary
}

func (s *StudentService) emit(eventType, studentID string, metadata map[string]string) {
	telemetry.EmitAsync(s.events, telemetry.NewEvent(eventType, studentID, string(accountdomain.RoleStudent), "", metadata))
}
