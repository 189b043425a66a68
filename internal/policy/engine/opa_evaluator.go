package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	accountdomain "placement-portal/backend/internal/account/domain"
	jobdomain "placement-portal/backend/internal/job/domain"
)

const eligibilityQuery = "eligible := data.portal.eligibility.eligible; reasons := data.portal.eligibility.reasons"

// DefaultEligibilityPolicy decides whether a student may apply to a job.
const DefaultEligibilityPolicy = `package portal.eligibility

default eligible := false

eligible if count(reasons) == 0

reasons contains "application deadline has passed" if {
	time.parse_rfc3339_ns(input.now) >= time.parse_rfc3339_ns(input.job.last_date)
}

reasons contains "batch not eligible" if {
	input.student.graduating_year != input.job.eligible_batch
}

reasons contains "branch not eligible" if {
	not branch_ok
}

reasons contains "cgpi below minimum" if {
	input.student.cgpi < input.job.minimum_cgpa
}

branch_ok if "all" in input.job.eligible_branches

branch_ok if input.student.branch in input.job.eligible_branches
`

// Decision is the outcome of one eligibility evaluation.
type Decision struct {
	Eligible bool
	Reasons  []string
}

// Evaluator decides job eligibility.
type Evaluator interface {
	Evaluate(ctx context.Context, s *accountdomain.Student, j *jobdomain.Job, now time.Time) (Decision, error)
}

// OPAEvaluator evaluates the eligibility Rego policy. The query is prepared once and reused.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles module, or DefaultEligibilityPolicy when module is empty.
func NewOPAEvaluator(ctx context.Context, module string) (*OPAEvaluator, error) {
	if module == "" {
		module = DefaultEligibilityPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"eligibility.rego": module})
	if err != nil {
		return nil, fmt.Errorf("compile eligibility policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(eligibilityQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare eligibility policy: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// HealthCheck evaluates the prepared policy against a fixed input. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	now := time.Now().UTC()
	_, err := e.Evaluate(ctx,
		&accountdomain.Student{Branch: "it", CGPI: 8, GraduatingYear: now.Year()},
		&jobdomain.Job{EligibleBranches: []string{jobdomain.BranchAll}, EligibleBatch: now.Year(), MinimumCGPA: 6, LastDate: now.Add(time.Hour)},
		now)
	return err
}

// Evaluate returns the decision for s applying to j at now.
func (e *OPAEvaluator) Evaluate(ctx context.Context, s *accountdomain.Student, j *jobdomain.Job, now time.Time) (Decision, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(s, j, now)))
	if err != nil {
		return Decision{}, fmt.Errorf("eval eligibility policy: %w", err)
	}
	if len(rs) == 0 {
		return Decision{}, fmt.Errorf("eligibility policy returned no result")
	}
	var d Decision
	if v, ok := rs[0].Bindings["eligible"].(bool); ok {
		d.Eligible = v
	}
	if reasons, ok := rs[0].Bindings["reasons"].([]interface{}); ok {
		for _, r := range reasons {
			if reason, ok := r.(string); ok {
				d.Reasons = append(d.Reasons, reason)
			}
		}
		sort.Strings(d.Reasons)
	}
	return d, nil
}

func buildInput(s *accountdomain.Student, j *jobdomain.Job, now time.Time) map[string]interface{} {
	branches := make([]interface{}, 0, len(j.EligibleBranches))
	for _, b := range j.EligibleBranches {
		branches = append(branches, b)
	}
	return map[string]interface{}{
		"now": now.UTC().Format(time.RFC3339Nano),
		"student": map[string]interface{}{
			"id":              s.ID,
			"branch":          s.Branch,
			"cgpi":            s.CGPI,
			"graduating_year": s.GraduatingYear,
		},
		"job": map[string]interface{}{
			"id":                j.ID,
			"last_date":         j.LastDate.UTC().Format(time.RFC3339Nano),
			"eligible_batch":    j.EligibleBatch,
			"eligible_branches": branches,
			"minimum_cgpa":      j.MinimumCGPA,
		},
	}
}

// FilterEligible returns the jobs in js that s may apply to at now, preserving order.
func FilterEligible(ctx context.Context, e Evaluator, s *accountdomain.Student, js []*jobdomain.Job, now time.Time) ([]*jobdomain.Job, error) {
	out := make([]*jobdomain.Job, 0, len(js))
	for _, j := range js {
		d, err := e.Evaluate(ctx, s, j, now)
		if err != nil {
			return nil, err
		}
		if d.Eligible {
			out = append(out, j)
		}
	}
	return out, nil
}
