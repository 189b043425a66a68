package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the portal.
const (
	EventRegister               = "account_registered"
	EventLoginSuccess           = "login_success"
	EventLoginFailure           = "login_failure"
	EventLoginRateLimited       = "login_rate_limited"
	EventRefreshSuccess         = "refresh_success"
	EventRefreshReuseDetected   = "refresh_reuse_detected"
	EventLogout                 = "logout"
	EventPasswordChanged        = "password_changed"
	EventPasswordResetRequested = "password_reset_requested"
	EventPasswordReset          = "password_reset"
	EventProfileUpdated         = "profile_updated"
	EventJobCreated             = "job_created"
	EventJobUpdated             = "job_updated"
	EventJobDeleted             = "job_deleted"
	EventJobApplied             = "job_applied"
	EventApplicationWithdrawn   = "application_withdrawn"
	EventShortlistUpdated       = "shortlist_updated"
)

// SourceAPI marks events produced by the HTTP API.
const SourceAPI = "api"

// Event is one portal event. It is the JSON value written to Kafka and pushed to Loki.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"eventType"`
	Source    string            `json:"source"`
	AccountID string            `json:"accountId,omitempty"`
	Role      string            `json:"role,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewEvent returns an API event of the given type stamped with a fresh id and the current time.
func NewEvent(eventType, accountID, role, ip string, metadata map[string]string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    SourceAPI,
		AccountID: accountID,
		Role:      role,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}
