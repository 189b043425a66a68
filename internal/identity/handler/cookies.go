package handler

import (
	"net/http"
	"time"

	"placement-portal/backend/internal/security"
	"placement-portal/backend/internal/server/middleware"
)

// CookiePolicy is the single set of attributes used for both session cookies, on set and on clear.
type CookiePolicy struct {
	Secure     bool
	SameSite   http.SameSite
	Domain     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SetSession writes the accessToken and refreshToken cookies for pair.
func (p CookiePolicy) SetSession(w http.ResponseWriter, pair security.TokenPair) {
	http.SetCookie(w, p.cookie(middleware.AccessCookie, pair.AccessToken, p.AccessTTL))
	http.SetCookie(w, p.cookie(middleware.RefreshCookie, pair.RefreshToken, p.RefreshTTL))
}

// Clear expires both session cookies with the same attributes they were set with.
func (p CookiePolicy) Clear(w http.ResponseWriter) {
	http.SetCookie(w, p.cookie(middleware.AccessCookie, "", -1))
	http.SetCookie(w, p.cookie(middleware.RefreshCookie, "", -1))
}

func (p CookiePolicy) cookie(name, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}
