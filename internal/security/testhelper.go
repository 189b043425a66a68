package security

import "time"

// NewTestTokenProvider returns a TokenProvider with fixed secrets and short lifetimes.
// For unit tests only. Callers must not use in production.
func NewTestTokenProvider() *TokenProvider {
	p, err := NewTokenProvider(
		Secrets{
			Access:  []byte("test-access-secret"),
			Refresh: []byte("test-refresh-secret"),
			Reset:   []byte("test-reset-secret"),
		},
		TTLs{Access: 15 * time.Minute, Refresh: 24 * time.Hour, Reset: 15 * time.Minute},
		"test-issuer",
	)
	if err != nil {
		panic(err)
	}
	return p
}

// WithClock returns a copy of p that reads the current time from now. For tests of expiry.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	cp := *p
	cp.now = now
	return &cp
}
