package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrAlreadyApplied = errors.New("already applied to this job")
	ErrNotApplied     = errors.New("not applied to this job")
)

type Type string

const (
	TypeInternship Type = "internship"
	TypeFullTime   Type = "full-time"
)

// BranchAll in EligibleBranches matches every student branch.
const BranchAll = "all"

// KnownBranches lists the accepted branch codes.
var KnownBranches = map[string]bool{"it": true, "ece": true, "it-bi": true, BranchAll: true}

// Job is a drive posted by a company.
type Job struct {
	ID               string    `json:"id"`
	CompanyID        string    `json:"companyId"`
	Type             Type      `json:"type"`
	CTC              float64   `json:"ctc"`
	EligibleBranches []string  `json:"eligibleBranches"`
	LastDate         time.Time `json:"lastDate"`
	Role             string    `json:"role"`
	Location         string    `json:"location"`
	EligibleBatch    int       `json:"eligibleBatch"`
	MinimumCGPA      float64   `json:"minimumCgpa"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Open reports whether applications are still accepted at now.
func (j *Job) Open(now time.Time) bool {
	return now.Before(j.LastDate)
}

// Application links a student to a job.
type Application struct {
	JobID       string    `json:"jobId"`
	StudentID   string    `json:"studentId"`
	AppliedAt   time.Time `json:"appliedAt"`
	Shortlisted bool      `json:"shortlisted"`
}

// StudentApplication is a job as seen from one applicant.
type StudentApplication struct {
	Job         *Job
	AppliedAt   time.Time
	Shortlisted bool
}

// Draft is the unvalidated input for creating or updating a job.
type Draft struct {
	Type             string
	CTC              float64
	EligibleBranches []string
	LastDate         string
	Role             string
	Location         string
	EligibleBatch    int
	MinimumCGPA      float64
}

// Apply validates d and writes it onto j. Every field is required. Branches are lowercased and
// may be given as one comma-separated entry. LastDate is YYYY-MM-DD and means the end of that
// day in UTC.
func (d Draft) Apply(j *Job) error {
	if d.Type == "" || d.CTC <= 0 || len(d.EligibleBranches) == 0 || d.LastDate == "" ||
		strings.TrimSpace(d.Role) == "" || strings.TrimSpace(d.Location) == "" ||
		d.EligibleBatch <= 0 || d.MinimumCGPA <= 0 {
		return errors.New("all fields are required")
	}
	t := Type(strings.ToLower(d.Type))
	if t != TypeInternship && t != TypeFullTime {
		return fmt.Errorf("type must be %s or %s", TypeInternship, TypeFullTime)
	}
	branches, err := NormalizeBranches(d.EligibleBranches)
	if err != nil {
		return err
	}
	day, err := time.Parse("2006-01-02", d.LastDate)
	if err != nil {
		return errors.New("lastDate must be YYYY-MM-DD")
	}
	if d.MinimumCGPA > 10 {
		return errors.New("minimumCgpa must be at most 10")
	}

	j.Type = t
	j.CTC = d.CTC
	j.EligibleBranches = branches
	j.LastDate = day.UTC().Add(24*time.Hour - time.Millisecond)
	j.Role = strings.TrimSpace(d.Role)
	j.Location = strings.TrimSpace(d.Location)
	j.EligibleBatch = d.EligibleBatch
	j.MinimumCGPA = d.MinimumCGPA
	return nil
}

// NormalizeBranches splits comma-separated entries, lowercases, trims, dedupes and checks each
// against KnownBranches.
func NormalizeBranches(in []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range in {
		for _, b := range strings.Split(raw, ",") {
			b = strings.ToLower(strings.TrimSpace(b))
			if b == "" || seen[b] {
				continue
			}
			if !KnownBranches[b] {
				return nil, fmt.Errorf("unknown branch %q", b)
			}
			seen[b] = true
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("eligibleBranches is required")
	}
	return out, nil
}
