package service

import (
	"context"
	"errors"
	"testing"
	"time"

	accountdomain "placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/account/repository"
	jobdomain "placement-portal/backend/internal/job/domain"
	jobrepo "placement-portal/backend/internal/job/repository"
	"placement-portal/backend/internal/platform/apperr"
	"placement-portal/backend/internal/policy/engine"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *StudentService
	students  *repository.MemoryStore[*accountdomain.Student]
	companies *repository.MemoryStore[*accountdomain.Company]
	jobs      *jobrepo.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	eval, err := engine.NewOPAEvaluator(ctx, "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	f := &fixture{
		students:  repository.NewStudentMemoryStore(),
		companies: repository.NewCompanyMemoryStore(),
		jobs:      jobrepo.NewMemoryRepository(),
	}
	f.svc = NewStudentService(f.students, f.companies, f.jobs, eval, nil)
	f.svc.now = func() time.Time { return testNow }

	if err := f.companies.Create(ctx, &accountdomain.Company{ID: "c1", Name: "Acme", Email: "hr@acme.com", Phone: "123"}); err != nil {
		t.Fatalf("Create company: %v", err)
	}
	jobs := []*jobdomain.Job{
		{ID: "j-open", CompanyID: "c1", Type: jobdomain.TypeFullTime, CTC: 12, EligibleBranches: []string{"it"},
			LastDate: testNow.Add(48 * time.Hour), Role: "SDE", Location: "Pune", EligibleBatch: 2026, MinimumCGPA: 7, CreatedAt: testNow.Add(-2 * time.Hour)},
		{ID: "j-all", CompanyID: "c1", Type: jobdomain.TypeInternship, CTC: 1, EligibleBranches: []string{jobdomain.BranchAll},
			LastDate: testNow.Add(48 * time.Hour), Role: "Intern", Location: "Remote", EligibleBatch: 2026, MinimumCGPA: 6, CreatedAt: testNow.Add(-time.Hour)},
		{ID: "j-ece", CompanyID: "c1", Type: jobdomain.TypeFullTime, CTC: 10, EligibleBranches: []string{"ece"},
			LastDate: testNow.Add(48 * time.Hour), Role: "VLSI", Location: "Noida", EligibleBatch: 2026, MinimumCGPA: 6},
		{ID: "j-closed", CompanyID: "c1", Type: jobdomain.TypeFullTime, CTC: 10, EligibleBranches: []string{"it"},
			LastDate: testNow.Add(-time.Hour), Role: "Old", Location: "Pune", EligibleBatch: 2026, MinimumCGPA: 6},
	}
	for _, j := range jobs {
		if err := f.jobs.Create(ctx, j); err != nil {
			t.Fatalf("Create job: %v", err)
		}
	}
	return f
}

func (f *fixture) student(t *testing.T, complete bool) *accountdomain.Student {
	t.Helper()
	s := &accountdomain.Student{ID: "s1", Name: "A", Email: "a@x.com"}
	if complete {
		s.RollNo, s.Degree, s.CGPI = "IIT2022001", accountdomain.DegreeBTech, 8.2
		s.TenthMarks, s.TwelfthMarks, s.GraduatingYear = 92, 90, 2026
		s.Branch, s.Phone, s.ProfileComplete = "it", "9999999999", true
	}
	if err := f.students.Create(context.Background(), s); err != nil {
		t.Fatalf("Create student: %v", err)
	}
	return s
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.IsKind(err, kind) {
		t.Fatalf("error = %v, want kind %s", err, kind)
	}
}

func validProfile() ProfileInput {
	return ProfileInput{
		Name: "Asha Rao", RollNo: "IIT2022001", Degree: "BTech", CGPI: 8.2, TenthMarks: 92,
		TwelfthMarks: 90, GraduatingYear: 2026, Branch: "IT", Phone: "9999999999", Gender: "Female",
	}
}

func TestCompleteProfile(t *testing.T) {
	f := newFixture(t)
	st := f.student(t, false)

	got, err := f.svc.CompleteProfile(context.Background(), st, validProfile())
	if err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	if !got.ProfileComplete {
		t.Error("profile should be complete")
	}
	if got.Degree != accountdomain.DegreeBTech || got.Branch != "it" || got.Gender != accountdomain.GenderFemale {
		t.Errorf("normalized fields = %q %q %q", got.Degree, got.Branch, got.Gender)
	}
	stored, _ := f.students.GetByID(context.Background(), st.ID)
	if !stored.ProfileComplete || stored.RollNo != "IIT2022001" {
		t.Errorf("stored student = %+v", stored)
	}
}

func TestCompleteProfile_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*ProfileInput)
		msg    string
	}{
		{"missing phone", func(in *ProfileInput) { in.Phone = "" }, "All fields are required"},
		{"unknown degree", func(in *ProfileInput) { in.Degree = "phd" }, "Invalid degree"},
		{"unknown branch", func(in *ProfileInput) { in.Branch = "mech" }, "Invalid branch"},
		{"branch all", func(in *ProfileInput) { in.Branch = "all" }, "Invalid branch"},
		{"cgpi out of range", func(in *ProfileInput) { in.CGPI = 11 }, "CGPI must be between 0 and 10"},
		{"marks out of range", func(in *ProfileInput) { in.TwelfthMarks = 101 }, "Marks must be between 0 and 100"},
		{"unknown gender", func(in *ProfileInput) { in.Gender = "x" }, "Invalid gender"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			st := f.student(t, false)
			in := validProfile()
			tc.mutate(&in)
			_, err := f.svc.CompleteProfile(context.Background(), st, in)
			wantKind(t, err, apperr.KindValidation)
			var appErr *apperr.Error
			if errors.As(err, &appErr) && appErr.Message != tc.msg {
				t.Errorf("message = %q, want %q", appErr.Message, tc.msg)
			}
		})
	}
}

func TestEligibleJobs(t *testing.T) {
	f := newFixture(t)
	st := f.student(t, true)

	got, err := f.svc.EligibleJobs(context.Background(), st)
	if err != nil {
		t.Fatalf("EligibleJobs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(EligibleJobs) = %d, want 2", len(got))
	}
	if got[0].ID != "j-all" || got[1].ID != "j-open" {
		t.Errorf("order = %s, %s; want newest first", got[0].ID, got[1].ID)
	}
	if got[0].Company == nil || got[0].Company.Name != "Acme" {
		t.Errorf("company summary = %+v", got[0].Company)
	}
}

func TestEligibleJobs_IncompleteProfile(t *testing.T) {
	f := newFixture(t)
	st := f.student(t, false)
	_, err := f.svc.EligibleJobs(context.Background(), st)
	wantKind(t, err, apperr.KindValidation)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, true)

	if err := f.svc.Apply(ctx, st, "j-open"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	wantKind(t, f.svc.Apply(ctx, st, "j-open"), apperr.KindConflict)
	wantKind(t, f.svc.Apply(ctx, st, "missing"), apperr.KindNotFound)
	wantKind(t, f.svc.Apply(ctx, st, "j-ece"), apperr.KindForbidden)
	wantKind(t, f.svc.Apply(ctx, st, "j-closed"), apperr.KindForbidden)

	applied, err := f.svc.AppliedJobs(ctx, st)
	if err != nil {
		t.Fatalf("AppliedJobs: %v", err)
	}
	if len(applied) != 1 || applied[0].ID != "j-open" || !applied[0].AppliedAt.Equal(testNow) {
		t.Errorf("AppliedJobs = %+v", applied)
	}
}

func TestApply_IncompleteProfile(t *testing.T) {
	f := newFixture(t)
	st := f.student(t, false)
	wantKind(t, f.svc.Apply(context.Background(), st, "j-all"), apperr.KindValidation)
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(context.Context, *accountdomain.Student, *jobdomain.Job, time.Time) (engine.Decision, error) {
	return engine.Decision{}, errors.New("policy unavailable")
}

func TestApply_PolicyErrorIsInternal(t *testing.T) {
	f := newFixture(t)
	st := f.student(t, true)
	f.svc.policy = failingEvaluator{}
	wantKind(t, f.svc.Apply(context.Background(), st, "j-open"), apperr.KindInternal)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, true)

	wantKind(t, f.svc.Withdraw(ctx, st, "j-open"), apperr.KindValidation)
	if err := f.svc.Apply(ctx, st, "j-open"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := f.svc.Withdraw(ctx, st, "j-open"); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	applied, _ := f.svc.AppliedJobs(ctx, st)
	if len(applied) != 0 {
		t.Errorf("AppliedJobs after withdraw = %d, want 0", len(applied))
	}
}

func TestShortlistedJobs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.student(t, true)
	for _, id := range []string{"j-open", "j-all"} {
		if err := f.svc.Apply(ctx, st, id); err != nil {
			t.Fatalf("Apply %s: %v", id, err)
		}
	}
	if _, err := f.jobs.SetShortlist(ctx, "j-all", []string{st.ID}); err != nil {
		t.Fatalf("SetShortlist: %v", err)
	}

	got, err := f.svc.ShortlistedJobs(ctx, st)
	if err != nil {
		t.Fatalf("ShortlistedJobs: %v", err)
	}
	if len(got) != 1 || got[0].ID != "j-all" || !got[0].Shortlisted {
		t.Errorf("ShortlistedJobs = %+v", got)
	}
}
