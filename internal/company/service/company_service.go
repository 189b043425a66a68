// Package service implements the company side of the portal: profile, job postings and the
// shortlisting of applicants.
package service

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	accountdomain "placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/account/repository"
	jobdomain "placement-portal/backend/internal/job/domain"
	jobrepo "placement-portal/backend/internal/job/repository"
	"placement-portal/backend/internal/platform/apperr"
	"placement-portal/backend/internal/platform/rbac"
	"placement-portal/backend/internal/telemetry"
)

// StudentFinder loads applicants.
type StudentFinder interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Student, error)
}

// ProfileUpdate carries the company fields to change. Nil fields are left untouched.
type ProfileUpdate struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Website *string `json:"website"`
	Phone   *string `json:"phone"`
}

// JobInput is the body of a job create or update. Numeric fields also accept numeric strings.
type JobInput struct {
	Type             string     `json:"type"`
	CTC              Number     `json:"ctc"`
	EligibleBranches BranchList `json:"eligibleBranches"`
	LastDate         string     `json:"lastDate"`
	Role             string     `json:"role"`
	Location         string     `json:"location"`
	EligibleBatch    Year       `json:"eligibleBatch"`
	MinimumCGPA      Number     `json:"minimumCgpa"`
}

func (in JobInput) draft() jobdomain.Draft {
	return jobdomain.Draft{
		Type:             in.Type,
		CTC:              float64(in.CTC),
		EligibleBranches: []string(in.EligibleBranches),
		LastDate:         in.LastDate,
		Role:             in.Role,
		Location:         in.Location,
		EligibleBatch:    int(in.EligibleBatch),
		MinimumCGPA:      float64(in.MinimumCGPA),
	}
}

// Candidate is an applicant of a job.
type Candidate struct {
	accountdomain.StudentView
	AppliedAt   time.Time `json:"appliedAt"`
	Shortlisted bool      `json:"shortlisted"`
}

// CompanyService serves the gated /company routes.
type CompanyService struct {
	companies repository.CompanyStore
	students  StudentFinder
	jobs      jobrepo.Repository
	events    telemetry.EventEmitter
	now       func() time.Time
}

// NewCompanyService returns a CompanyService. events may be nil.
func NewCompanyService(companies repository.CompanyStore, students StudentFinder, jobs jobrepo.Repository, events telemetry.EventEmitter) *CompanyService {
	return &CompanyService{
		companies: companies,
		students:  students,
		jobs:      jobs,
		events:    events,
		now:       time.Now,
	}
}

// UpdateProfile applies in to c and recomputes profile completeness. At least one field is required.
func (s *CompanyService) UpdateProfile(ctx context.Context, c *accountdomain.Company, in ProfileUpdate) (*accountdomain.Company, error) {
	if in.Name == nil && in.Address == nil && in.Website == nil && in.Phone == nil {
		return nil, apperr.Validation("At least one field is required")
	}
	updated := *c
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Name cannot be empty")
		}
		updated.Name = name
	}
	if in.Address != nil {
		updated.Address = strings.TrimSpace(*in.Address)
	}
	if in.Website != nil {
		website := strings.TrimSpace(*in.Website)
		if website != "" {
			u, err := url.Parse(website)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, apperr.Validation("Invalid website URL")
			}
		}
		updated.Website = website
	}
	if in.Phone != nil {
		updated.Phone = strings.TrimSpace(*in.Phone)
	}
	updated.ProfileComplete = updated.HasCompleteProfile()
	updated.Touch(s.now().UTC())
	if err := s.companies.UpdateProfile(ctx, &updated); err != nil {
		if errors.Is(err, accountdomain.ErrAccountNotFound) {
			return nil, apperr.Unauthenticated()
		}
		return nil, apperr.Internal(err)
	}
	s.emit(telemetry.EventProfileUpdated, updated.ID, nil)
	return &updated, nil
}

// Jobs lists the company's jobs, newest first.
func (s *CompanyService) Jobs(ctx context.Context, c *accountdomain.Company) ([]*jobdomain.Job, error) {
	js, err := s.jobs.ListByCompany(ctx, c.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if js == nil {
		js = []*jobdomain.Job{}
	}
	return js, nil
}

// CreateJob validates in and posts a new job for c.
func (s *CompanyService) CreateJob(ctx context.Context, c *accountdomain.Company, in JobInput) (*jobdomain.Job, error) {
	now := s.now().UTC()
	j := &jobdomain.Job{ID: uuid.NewString(), CompanyID: c.ID, CreatedAt: now, UpdatedAt: now}
	if err := in.draft().Apply(j); err != nil {
		return nil, apperr.Validation(sentence(err.Error()))
	}
	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, apperr.Internal(err)
	}
	s.emit(telemetry.EventJobCreated, c.ID, map[string]string{"jobId": j.ID})
	return j, nil
}

// UpdateJob replaces every field of a job owned by c.
func (s *CompanyService) UpdateJob(ctx context.Context, c *accountdomain.Company, jobID string, in JobInput) (*jobdomain.Job, error) {
	j, err := rbac.RequireJobOwner(ctx, s.jobs, c.ID, jobID)
	if err != nil {
		return nil, err
	}
	if err := in.draft().Apply(j); err != nil {
		return nil, apperr.Validation(sentence(err.Error()))
	}
	j.UpdatedAt = s.now().UTC()
	if err := s.jobs.Update(ctx, j); err != nil {
		if errors.Is(err, jobdomain.ErrJobNotFound) {
			return nil, apperr.NotFound("Job not found")
		}
		return nil, apperr.Internal(err)
	}
	s.emit(telemetry.EventJobUpdated, c.ID, map[string]string{"jobId": j.ID})
	return j, nil
}

// DeleteJob removes a job owned by c together with its applications.
func (s *CompanyService) DeleteJob(ctx context.Context, c *accountdomain.Company, jobID string) error {
	if _, err := rbac.RequireJobOwner(ctx, s.jobs, c.ID, jobID); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, jobID); err != nil {
		if errors.Is(err, jobdomain.ErrJobNotFound) {
			return apperr.NotFound("Job not found")
		}
		return apperr.Internal(err)
	}
	s.emit(telemetry.EventJobDeleted, c.ID, map[string]string{"jobId": jobID})
	return nil
}

// Candidates lists the applicants of a job owned by c in application order.
func (s *CompanyService) Candidates(ctx context.Context, c *accountdomain.Company, jobID string) ([]Candidate, error) {
	return s.candidates(ctx, c, jobID, false)
}

// Shortlisted lists the shortlisted applicants of a job owned by c.
func (s *CompanyService) Shortlisted(ctx context.Context, c *accountdomain.Company, jobID string) ([]Candidate, error) {
	return s.candidates(ctx, c, jobID, true)
}

// Shortlist marks exactly studentIDs as shortlisted for the job; everyone else who applied is
// un-shortlisted. Ids that never applied are ignored. Returns the resulting shortlist.
func (s *CompanyService) Shortlist(ctx context.Context, c *accountdomain.Company, jobID string, studentIDs []string) ([]Candidate, error) {
	if studentIDs == nil {
		return nil, apperr.Validation("Students list is required")
	}
	if _, err := rbac.RequireJobOwner(ctx, s.jobs, c.ID, jobID); err != nil {
		return nil, err
	}
	ids, err := s.jobs.SetShortlist(ctx, jobID, studentIDs)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.emit(telemetry.EventShortlistUpdated, c.ID, map[string]string{
		"jobId":    jobID,
		"students": strings.Join(ids, ","),
	})
	return s.candidates(ctx, c, jobID, true)
}

func (s *CompanyService) candidates(ctx context.Context, c *accountdomain.Company, jobID string, shortlistedOnly bool) ([]Candidate, error) {
	if _, err := rbac.RequireJobOwner(ctx, s.jobs, c.ID, jobID); err != nil {
		return nil, err
	}
	apps, err := s.jobs.ListApplications(ctx, jobID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]Candidate, 0, len(apps))
	for _, a := range apps {
		if shortlistedOnly && !a.Shortlisted {
			continue
		}
		st, err := s.students.GetByID(ctx, a.StudentID)
		if err != nil {
			if errors.Is(err, accountdomain.ErrAccountNotFound) {
				continue
			}
			log.Printf("company: load applicant %s: %v", a.StudentID, err)
			return nil, apperr.Internal(err)
		}
		out = append(out, Candidate{StudentView: st.View(), AppliedAt: a.AppliedAt, Shortlisted: a.Shortlisted})
	}
	return out, nil
}

func (s *CompanyService) emit(eventType, companyID string, metadata map[string]string) {
	telemetry.EmitAsync(s.events, telemetry.NewEvent(eventType, companyID, string(accountdomain.RoleCompany), "", metadata))
}

// sentence capitalizes the first letter of a domain validation message.
func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
