package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"placement-portal/backend/internal/job/domain"
)

// MemoryRepository is the in-memory job repository for tests and database-less development runs.
type MemoryRepository struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
	apps map[string]map[string]*domain.Application // jobID -> studentID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		jobs: make(map[string]*domain.Job),
		apps: make(map[string]map[string]*domain.Application),
	}
}

func cloneJob(j *domain.Job) *domain.Job {
	cp := *j
	cp.EligibleBranches = append([]string(nil), j.EligibleBranches...)
	return &cp
}

func (m *MemoryRepository) Create(_ context.Context, j *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = cloneJob(j)
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, j *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.ID]; !ok {
		return domain.ErrJobNotFound
	}
	m.jobs[j.ID] = cloneJob(j)
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return domain.ErrJobNotFound
	}
	delete(m.jobs, id)
	delete(m.apps, id)
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return cloneJob(j), nil
}

func (m *MemoryRepository) ListByCompany(_ context.Context, companyID string) ([]*domain.Job, error) {
	return m.list(func(j *domain.Job) bool { return j.CompanyID == companyID }), nil
}

func (m *MemoryRepository) ListOpen(_ context.Context, now time.Time) ([]*domain.Job, error) {
	return m.list(func(j *domain.Job) bool { return j.Open(now) }), nil
}

func (m *MemoryRepository) list(keep func(*domain.Job) bool) []*domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Job
	for _, j := range m.jobs {
		if keep(j) {
			out = append(out, cloneJob(j))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

func (m *MemoryRepository) Apply(_ context.Context, jobID, studentID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[jobID]; !ok {
		return domain.ErrJobNotFound
	}
	byStudent := m.apps[jobID]
	if byStudent == nil {
		byStudent = make(map[string]*domain.Application)
		m.apps[jobID] = byStudent
	}
	if _, ok := byStudent[studentID]; ok {
		return domain.ErrAlreadyApplied
	}
	byStudent[studentID] = &domain.Application{JobID: jobID, StudentID: studentID, AppliedAt: at.UTC()}
	return nil
}

func (m *MemoryRepository) Withdraw(_ context.Context, jobID, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[jobID][studentID]; !ok {
		return domain.ErrNotApplied
	}
	delete(m.apps[jobID], studentID)
	return nil
}

func (m *MemoryRepository) ListApplications(_ context.Context, jobID string) ([]domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Application
	for _, a := range m.apps[jobID] {
		out = append(out, *a)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].AppliedAt.Before(out[b].AppliedAt) })
	return out, nil
}

func (m *MemoryRepository) ListStudentApplications(_ context.Context, studentID string) ([]domain.StudentApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StudentApplication
	for jobID, byStudent := range m.apps {
		a, ok := byStudent[studentID]
		if !ok {
			continue
		}
		out = append(out, domain.StudentApplication{
			Job:         cloneJob(m.jobs[jobID]),
			AppliedAt:   a.AppliedAt,
			Shortlisted: a.Shortlisted,
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].AppliedAt.After(out[b].AppliedAt) })
	return out, nil
}

func (m *MemoryRepository) SetShortlist(_ context.Context, jobID string, studentIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		want[id] = true
	}
	var out []string
	for id, a := range m.apps[jobID] {
		a.Shortlisted = want[id]
		if a.Shortlisted {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
