// Package handler exposes the session flows over HTTP and owns the session cookie policy.
package handler

import (
	"net/http"
	"strings"
	"time"

	"placement-portal/backend/internal/account/domain"
	identityservice "placement-portal/backend/internal/identity/service"
	"placement-portal/backend/internal/platform/apperr"
	"placement-portal/backend/internal/platform/httpx"
	"placement-portal/backend/internal/server/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// SessionData is the data of a login or refresh response. Tokens travel only in cookies.
type SessionData struct {
	User interface{} `json:"user"`
	Role domain.Role `json:"role"`
}

// ResetData is the data of a forgot-password response. ResetToken is set only when the server
// exposes reset tokens (outside production).
type ResetData struct {
	ExpiresAt  time.Time `json:"expiresAt"`
	ResetToken string    `json:"resetToken,omitempty"`
}

// AuthHandler serves /auth and the session routes under /student and /company.
type AuthHandler struct {
	auth              *identityservice.AuthService
	cookies           CookiePolicy
	exposeResetTokens bool
}

// NewAuthHandler returns an AuthHandler. exposeResetTokens puts reset tokens in forgot-password
// responses; it must be false in production.
func NewAuthHandler(auth *identityservice.AuthService, cookies CookiePolicy, exposeResetTokens bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, exposeResetTokens: exposeResetTokens}
}

// Login handles POST /auth/login. The role is inferred from the matching account kind.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, "")
}

// LoginAs handles POST /{role}/login.
func (h *AuthHandler) LoginAs(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { h.login(w, r, role) }
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, role domain.Role) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var (
		sess *identityservice.Session
		err  error
	)
	if role == "" {
		sess, err = h.auth.Login(r.Context(), req.Email, req.Password)
	} else {
		sess, err = h.auth.LoginAs(r.Context(), role, req.Email, req.Password)
	}
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.cookies.SetSession(w, sess.Tokens)
	httpx.WriteData(w, http.StatusOK, roleTitle(sess.Role)+" logged in successfully", SessionData{User: sess.Account.Public(), Role: sess.Role})
}

// Register handles POST /auth/register; the role comes from the body.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.register(w, r, req)
}

// RegisterAs handles POST /{role}/register; a role in the body is ignored.
func (h *AuthHandler) RegisterAs(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		req.Role = string(role)
		h.register(w, r, req)
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, req registerRequest) {
	acc, err := h.auth.Register(r.Context(), identityservice.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(strings.ToLower(strings.TrimSpace(req.Role))),
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusCreated, roleTitle(acc.AccountRole())+" registered successfully", acc.Public())
}

// Logout handles POST /auth/logout. It always clears both cookies and answers 200, whether or not
// a valid token was presented.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, "")
}

// LogoutAs handles POST /{role}/logout.
func (h *AuthHandler) LogoutAs(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { h.logout(w, r, role) }
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request, role domain.Role) {
	err := h.auth.Logout(r.Context(), role, middleware.AccessToken(r), middleware.RefreshToken(r))
	h.cookies.Clear(w)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Logged out successfully", nil)
}

// Refresh handles POST /auth/refresh-token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, "")
}

// RefreshAs handles POST /{role}/refresh-token; the token must belong to role.
func (h *AuthHandler) RefreshAs(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { h.refresh(w, r, role) }
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request, role domain.Role) {
	token := middleware.RefreshToken(r)
	if token == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		token = req.RefreshToken
	}
	sess, err := h.auth.Refresh(r.Context(), role, token)
	if err != nil {
		if apperr.IsKind(err, apperr.KindUnauthenticated) {
			h.cookies.Clear(w)
		}
		httpx.WriteError(w, r, err)
		return
	}
	h.cookies.SetSession(w, sess.Tokens)
	httpx.WriteData(w, http.StatusOK, "Token refreshed successfully", SessionData{User: sess.Account.Public(), Role: sess.Role})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	acc, err := h.auth.Me(r.Context(), middleware.AccessToken(r))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "User fetched successfully", SessionData{User: acc.Public(), Role: acc.AccountRole()})
}

// AuthStatus handles GET /auth/auth-me with a bare {"authenticated": bool} body.
func (h *AuthHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"authenticated": h.auth.AuthStatus(middleware.AccessToken(r))})
}

// ChangePassword handles the gated password change of either kind. It ends the current session.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		httpx.WriteError(w, r, apperr.Unauthenticated())
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), domain.Role(claims.Role), claims.AccountID(), req.OldPassword, req.NewPassword); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.cookies.Clear(w)
	httpx.WriteData(w, http.StatusOK, "Password updated successfully", nil)
}

// ForgotPassword handles POST /{role}/forgot-password.
func (h *AuthHandler) ForgotPassword(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		ticket, err := h.auth.ForgotPassword(r.Context(), role, req.Email)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		data := ResetData{ExpiresAt: ticket.ExpiresAt}
		if h.exposeResetTokens {
			data.ResetToken = ticket.Token
		}
		httpx.WriteData(w, http.StatusOK, "Password reset token generated", data)
	}
}

// ResetPassword handles the reset-password route of role.
func (h *AuthHandler) ResetPassword(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := h.auth.ResetPassword(r.Context(), role, req.Token, req.NewPassword); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteData(w, http.StatusOK, "Password reset successful", nil)
	}
}

func roleTitle(role domain.Role) string {
	switch role {
	case domain.RoleCompany:
		return "Company"
	case domain.RoleStudent:
		return "Student"
	default:
		return "Account"
	}
}
