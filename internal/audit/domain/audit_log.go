package domain

import "time"

// AuditLog is one recorded action. AccountID and Role are empty for anonymous actions such as a
// failed login.
type AuditLog struct {
	ID        string
	AccountID string
	Role      string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
