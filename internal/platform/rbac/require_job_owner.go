package rbac

import (
	"context"
	"errors"

	jobdomain "placement-portal/backend/internal/job/domain"
	"placement-portal/backend/internal/platform/apperr"
)

// JobGetter loads a job by id. Used by RequireJobOwner to resolve ownership.
type JobGetter interface {
	GetByID(ctx context.Context, id string) (*jobdomain.Job, error)
}

// RequireJobOwner loads the job and ensures it belongs to companyID. Returns the job on success;
// NotFound when the job does not exist and Forbidden when another company owns it.
func RequireJobOwner(ctx context.Context, getter JobGetter, companyID, jobID string) (*jobdomain.Job, error) {
	if companyID == "" {
		return nil, apperr.Unauthenticated()
	}
	j, err := getter.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobdomain.ErrJobNotFound) {
			return nil, apperr.NotFound("Job not found")
		}
		return nil, apperr.Internal(err)
	}
	if j.CompanyID != companyID {
		return nil, apperr.Forbidden("You do not have access to this job")
	}
	return j, nil
}
