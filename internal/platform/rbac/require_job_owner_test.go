package rbac

import (
	"context"
	"errors"
	"testing"

	jobdomain "placement-portal/backend/internal/job/domain"
	"placement-portal/backend/internal/platform/apperr"
)

// mockJobGetter implements JobGetter for tests.
type mockJobGetter struct {
	jobs map[string]*jobdomain.Job
	err  error
}

func (m *mockJobGetter) GetByID(ctx context.Context, id string) (*jobdomain.Job, error) {
	if m.err != nil {
		return nil, m.err
	}
	j, ok := m.jobs[id]
	if !ok {
		return nil, jobdomain.ErrJobNotFound
	}
	return j, nil
}

func TestRequireJobOwner(t *testing.T) {
	getter := &mockJobGetter{jobs: map[string]*jobdomain.Job{
		"job-1": {ID: "job-1", CompanyID: "company-1"},
	}}

	testCases := []struct {
		name      string
		getter    JobGetter
		companyID string
		jobID     string
		wantKind  apperr.Kind
		wantErr   bool
	}{
		{"owner", getter, "company-1", "job-1", 0, false},
		{"other company", getter, "company-2", "job-1", apperr.KindForbidden, true},
		{"missing job", getter, "company-1", "job-404", apperr.KindNotFound, true},
		{"no caller", getter, "", "job-1", apperr.KindUnauthenticated, true},
		{"store failure", &mockJobGetter{err: errors.New("db down")}, "company-1", "job-1", apperr.KindInternal, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			j, err := RequireJobOwner(context.Background(), tc.getter, tc.companyID, tc.jobID)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("RequireJobOwner: %v", err)
				}
				if j.ID != tc.jobID {
					t.Errorf("job id = %q, want %q", j.ID, tc.jobID)
				}
				return
			}
			if err == nil {
				t.Fatal("RequireJobOwner should fail")
			}
			if !apperr.IsKind(err, tc.wantKind) {
				t.Errorf("error = %v, want kind %v", err, tc.wantKind)
			}
		})
	}
}
