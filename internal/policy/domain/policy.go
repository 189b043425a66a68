package domain

import "time"

// Policy is a stored Rego module for job eligibility. The newest enabled one replaces the
// built-in policy at startup.
type Policy struct {
	ID        string
	Rules     string
	Enabled   bool
	CreatedAt time.Time
}
