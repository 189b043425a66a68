package middleware

import (
	"context"

	"placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/security"
)

type contextKey struct{ name string }

var (
	accountKey  = contextKey{"account"}
	claimsKey   = contextKey{"claims"}
	clientIPKey = contextKey{"client_ip"}
)

// WithAccount returns a context carrying the authenticated account and its token claims.
func WithAccount(ctx context.Context, account domain.Account, claims *security.Claims) context.Context {
	ctx = context.WithValue(ctx, accountKey, account)
	return context.WithValue(ctx, claimsKey, claims)
}

// AccountFrom returns the account set by RequireRole, typed as the route's account kind.
func AccountFrom[A domain.Account](ctx context.Context) (A, bool) {
	a, ok := ctx.Value(accountKey).(A)
	return a, ok
}

// ClaimsFrom returns the access token claims set by RequireRole.
func ClaimsFrom(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*security.Claims)
	return c, ok && c != nil
}

// WithClientIP returns a context carrying the client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFrom returns the client IP set by ClientIP, or "" outside a request.
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
