package middleware

import (
	"context"
	"errors"
	"net/http"

	"placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/platform/apperr"
	"placement-portal/backend/internal/platform/httpx"
	"placement-portal/backend/internal/security"
)

// Session cookie names.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// AccountFinder is the part of an account store the gate needs.
type AccountFinder[A domain.Account] interface {
	Role() domain.Role
	GetByID(ctx context.Context, id string) (A, error)
}

// AccessToken returns the access token from the accessToken cookie, else from an
// "Authorization: Bearer" header, else "".
func AccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return httpx.BearerToken(r.Header.Get("Authorization"))
}

// RefreshToken returns the refresh token from the refreshToken cookie, or "".
func RefreshToken(r *http.Request) string {
	if c, err := r.Cookie(RefreshCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate resolves the account behind the request's access token. A missing or invalid token
// and a token whose account no longer exists are Unauthenticated; a valid token of another role is
// Forbidden.
func Authenticate[A domain.Account](r *http.Request, tokens *security.TokenProvider, finder AccountFinder[A]) (A, *security.Claims, error) {
	var zero A
	token := AccessToken(r)
	if token == "" {
		return zero, nil, apperr.Unauthenticated()
	}
	claims, err := tokens.ValidateAccess(token)
	if err != nil {
		return zero, nil, apperr.Unauthenticated()
	}
	if domain.Role(claims.Role) != finder.Role() {
		return zero, nil, apperr.Forbidden("You are not authorized to access this route as a " + string(finder.Role()))
	}
	account, err := finder.GetByID(r.Context(), claims.AccountID())
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return zero, nil, apperr.Unauthenticated()
		}
		return zero, nil, apperr.Internal(err)
	}
	return account, claims, nil
}

// RequireRole gates a route group to one account kind. The resolved account and claims are put in
// the request context for AccountFrom and ClaimsFrom.
func RequireRole[A domain.Account](tokens *security.TokenProvider, finder AccountFinder[A]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, claims, err := Authenticate(r, tokens, finder)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account, claims)))
		})
	}
}
