// Package service implements the session flows: login, refresh rotation, logout, registration and
// the password flows, for both account kinds.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/account/repository"
	"placement-portal/backend/internal/audit"
	"placement-portal/backend/internal/platform/apperr"
	"placement-portal/backend/internal/ratelimit"
	"placement-portal/backend/internal/security"
	"placement-portal/backend/internal/telemetry"
)

const minPasswordLength = 6

var (
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	studentNamePattern = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// Session is the outcome of Login and Refresh.
type Session struct {
	Tokens  security.TokenPair
	Account domain.Account
	Role    domain.Role
}

// ResetTicket is the outcome of ForgotPassword. Token is the bearer reset token.
type ResetTicket struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterInput is the body of a registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Option configures optional collaborators of AuthService.
type Option func(*AuthService)

// WithLimiter enables failed-login throttling.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *AuthService) { s.limiter = l }
}

// WithAudit records every flow outcome in the audit log.
func WithAudit(a audit.AuditLogger) Option {
	return func(s *AuthService) { s.audit = a }
}

// WithEvents publishes every flow outcome as a portal event.
func WithEvents(e telemetry.EventEmitter) Option {
	return func(s *AuthService) { s.events = e }
}

// WithClientIP sets how the client IP is read from the request context.
func WithClientIP(fn func(context.Context) string) Option {
	return func(s *AuthService) { s.clientIP = fn }
}

// AuthService implements the session flows for students and companies.
type AuthService struct {
	// login lookup order: company first, then student
	kinds    []accountKind
	byRole   map[domain.Role]accountKind
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	limiter  *ratelimit.Limiter
	audit    audit.AuditLogger
	events   telemetry.EventEmitter
	clientIP func(context.Context) string
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService returns an AuthService over the two account stores.
func NewAuthService(
	students repository.StudentStore,
	companies repository.CompanyStore,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	opts ...Option,
) *AuthService {
	company := storeKind[*domain.Company]{store: companies, newAccount: newCompany}
	student := storeKind[*domain.Student]{store: students, newAccount: newStudent}
	s := &AuthService{
		kinds: []accountKind{company, student},
		byRole: map[domain.Role]accountKind{
			domain.RoleCompany: company,
			domain.RoleStudent: student,
		},
		hasher:   hasher,
		tokens:   tokens,
		clientIP: func(context.Context) string { return "" },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login finds the account by email across both kinds and infers the role from the kind that
// matched. Any miss or wrong password is InvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	return s.login(ctx, s.kinds, email, password)
}

// LoginAs is Login restricted to one account kind.
func (s *AuthService) LoginAs(ctx context.Context, role domain.Role, email, password string) (*Session, error) {
	k, ok := s.byRole[role]
	if !ok {
		return nil, apperr.Validation("Invalid role")
	}
	return s.login(ctx, []accountKind{k}, email, password)
}

func (s *AuthService) login(ctx context.Context, kinds []accountKind, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}
	ip := s.clientIP(ctx)
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, email, ip); err != nil {
			if errors.Is(err, ratelimit.ErrRateLimited) {
				s.record(ctx, telemetry.EventLoginRateLimited, "", "", map[string]string{"email": email})
				return nil, apperr.TooManyRequests()
			}
			log.Printf("auth: rate limiter check: %v", err)
		}
	}

	var acc domain.Account
	for _, k := range kinds {
		a, err := k.byEmail(ctx, email)
		if errors.Is(err, domain.ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.Internal(err)
		}
		acc = a
		break
	}
	if acc == nil {
		// Spend a bcrypt comparison anyway so unknown emails cost the same as wrong passwords.
		s.hasher.Matches(s.dummyPasswordHash(), password)
		return nil, s.loginFailed(ctx, email, ip)
	}
	if !s.hasher.Matches(acc.Credentials().PasswordHash, password) {
		return nil, s.loginFailed(ctx, email, ip)
	}

	role := acc.AccountRole()
	sess, err := s.startSession(ctx, s.byRole[role], acc)
	if err != nil {
		return nil, err
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			log.Printf("auth: rate limiter reset: %v", err)
		}
	}
	s.record(ctx, telemetry.EventLoginSuccess, acc.AccountID(), string(role), nil)
	return sess, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, ip string) error {
	if s.limiter != nil {
		if err := s.limiter.RecordFailure(ctx, email, ip); err != nil {
			log.Printf("auth: rate limiter record: %v", err)
		}
	}
	s.record(ctx, telemetry.EventLoginFailure, "", "", map[string]string{"email": email})
	return apperr.InvalidCredentials()
}

// startSession issues a pair and stores the refresh token hash, replacing any previous session.
func (s *AuthService) startSession(ctx context.Context, k accountKind, acc domain.Account) (*Session, error) {
	pair, err := s.tokens.IssuePair(acc.AccountID(), string(k.role()))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := k.credentials().SetRefreshToken(ctx, acc.AccountID(), security.HashToken(pair.RefreshToken)); err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{Tokens: pair, Account: acc, Role: k.role()}, nil
}

// Refresh exchanges a refresh token for a new pair. The stored hash is swapped with a single
// conditional update, so each refresh token works once. Presenting a token that is no longer
// current clears the stored token, which ends the session for every holder. An empty role accepts
// either kind; otherwise the token's role must match.
func (s *AuthService) Refresh(ctx context.Context, role domain.Role, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthenticated()
	}
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Unauthenticated()
	}
	tokenRole := domain.Role(claims.Role)
	if role != "" && tokenRole != role {
		return nil, apperr.Unauthenticated()
	}
	k, ok := s.byRole[tokenRole]
	if !ok {
		return nil, apperr.Unauthenticated()
	}
	acc, err := k.byID(ctx, claims.AccountID())
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, apperr.Unauthenticated()
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	pair, err := s.tokens.IssuePair(acc.AccountID(), string(tokenRole))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	swapped, err := k.credentials().RotateRefreshToken(ctx, acc.AccountID(), security.HashToken(refreshToken), security.HashToken(pair.RefreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, apperr.Unauthenticated()
		}
		return nil, apperr.Internal(err)
	}
	if !swapped {
		if err := k.credentials().ClearRefreshToken(ctx, acc.AccountID()); err != nil {
			log.Printf("auth: clear refresh token after reuse: %v", err)
		}
		s.record(ctx, telemetry.EventRefreshReuseDetected, acc.AccountID(), string(tokenRole), map[string]string{"jti": claims.ID})
		return nil, apperr.Unauthenticated()
	}
	s.record(ctx, telemetry.EventRefreshSuccess, acc.AccountID(), string(tokenRole), nil)
	return &Session{Tokens: pair, Account: acc, Role: tokenRole}, nil
}

// Logout clears the stored refresh token of the account named by the access token, or by the
// refresh token when the access token is missing or expired. Tokens that do not validate, or
// whose role differs from a non-empty role, make Logout a no-op.
func (s *AuthService) Logout(ctx context.Context, role domain.Role, accessToken, refreshToken string) error {
	claims, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		claims, err = s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
	}
	tokenRole := domain.Role(claims.Role)
	if role != "" && tokenRole != role {
		return nil
	}
	k, ok := s.byRole[tokenRole]
	if !ok {
		return nil
	}
	if err := k.credentials().ClearRefreshToken(ctx, claims.AccountID()); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return apperr.Internal(err)
	}
	s.record(ctx, telemetry.EventLogout, claims.AccountID(), string(tokenRole), nil)
	return nil
}

// Register creates an account of in.Role. The email must not exist for either kind.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		return nil, apperr.Validation("All fields are required")
	}
	k, ok := s.byRole[in.Role]
	if !ok {
		return nil, apperr.Validation("Invalid role")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, apperr.Validation("Invalid email format")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("Password should be at least 6 characters long")
	}
	if in.Role == domain.RoleStudent && !studentNamePattern.MatchString(in.Name) {
		return nil, apperr.Validation("Name should contain only alphabets and spaces")
	}
	for _, other := range s.kinds {
		_, err := other.byEmail(ctx, in.Email)
		if err == nil {
			return nil, apperr.Conflict("Email already registered")
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, apperr.Internal(err)
		}
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	acc, err := k.create(ctx, uuid.New().String(), in.Name, in.Email, hash, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, apperr.Internal(err)
	}
	s.record(ctx, telemetry.EventRegister, acc.AccountID(), string(in.Role), nil)
	return acc, nil
}

// Me resolves the account named by an access token.
func (s *AuthService) Me(ctx context.Context, accessToken string) (domain.Account, error) {
	claims, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		return nil, apperr.Unauthenticated()
	}
	return s.Resolve(ctx, claims)
}

// Resolve loads the account for validated claims. A missing account is Unauthenticated.
func (s *AuthService) Resolve(ctx context.Context, claims *security.Claims) (domain.Account, error) {
	k, ok := s.byRole[domain.Role(claims.Role)]
	if !ok {
		return nil, apperr.Unauthenticated()
	}
	acc, err := k.byID(ctx, claims.AccountID())
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, apperr.Unauthenticated()
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return acc, nil
}

// AuthStatus reports whether accessToken is a valid access token. It does not touch the store.
func (s *AuthService) AuthStatus(accessToken string) bool {
	_, err := s.tokens.ValidateAccess(accessToken)
	return err == nil
}

// ChangePassword replaces the password after checking the current one and ends the current
// session.
func (s *AuthService) ChangePassword(ctx context.Context, role domain.Role, accountID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("All fields are required")
	}
	if len(newPassword) < minPasswordLength {
		return apperr.Validation("Password should be at least 6 characters long")
	}
	k, ok := s.byRole[role]
	if !ok {
		return apperr.Unauthenticated()
	}
	acc, err := k.byID(ctx, accountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return apperr.Unauthenticated()
	}
	if err != nil {
		return apperr.Internal(err)
	}
	if !s.hasher.Matches(acc.Credentials().PasswordHash, oldPassword) {
		return apperr.New(apperr.KindInvalidCredentials, "Invalid current password")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := k.credentials().UpdatePassword(ctx, accountID, hash); err != nil {
		return apperr.Internal(err)
	}
	s.record(ctx, telemetry.EventPasswordChanged, accountID, string(role), nil)
	return nil
}

// ForgotPassword issues a reset token for the account with email and stores its hash and expiry.
// Delivering the token is up to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, role domain.Role, email string) (*ResetTicket, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation("Email is required")
	}
	k, ok := s.byRole[role]
	if !ok {
		return nil, apperr.Validation("Invalid role")
	}
	acc, err := k.byEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, apperr.NotFound(roleTitle(role) + " not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	token, expiresAt, err := s.tokens.IssueReset(acc.AccountID(), string(role))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := k.credentials().SetPasswordReset(ctx, acc.AccountID(), security.HashToken(token), expiresAt); err != nil {
		return nil, apperr.Internal(err)
	}
	s.record(ctx, telemetry.EventPasswordResetRequested, acc.AccountID(), string(role), nil)
	return &ResetTicket{Token: token, ExpiresAt: expiresAt}, nil
}

// ResetPassword sets a new password using a reset token. The token is accepted once and only
// before its stored expiry. Every failure reads "Invalid or expired reset token".
func (s *AuthService) ResetPassword(ctx context.Context, role domain.Role, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperr.Validation("All fields are required")
	}
	if len(newPassword) < minPasswordLength {
		return apperr.Validation("Password should be at least 6 characters long")
	}
	invalid := apperr.Validation("Invalid or expired reset token")
	claims, err := s.tokens.ValidateReset(token)
	if err != nil || domain.Role(claims.Role) != role {
		return invalid
	}
	k, ok := s.byRole[role]
	if !ok {
		return invalid
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	consumed, err := k.credentials().ConsumePasswordReset(ctx, claims.AccountID(), security.HashToken(token), hash, s.now().UTC())
	if errors.Is(err, domain.ErrAccountNotFound) {
		return invalid
	}
	if err != nil {
		return apperr.Internal(err)
	}
	if !consumed {
		return invalid
	}
	s.record(ctx, telemetry.EventPasswordReset, claims.AccountID(), string(role), nil)
	return nil
}

// record writes the audit entry and publishes the event for one flow outcome.
func (s *AuthService) record(ctx context.Context, eventType, accountID, role string, metadata map[string]string) {
	if s.audit != nil {
		var meta string
		if len(metadata) > 0 {
			b, _ := json.Marshal(metadata)
			meta = string(b)
		}
		s.audit.LogEvent(ctx, accountID, role, eventType, audit.ResourceAuth, meta)
	}
	telemetry.EmitAsync(s.events, telemetry.NewEvent(eventType, accountID, role, s.clientIP(ctx), metadata))
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("placement-portal-dummy-password")
		if err != nil {
			log.Printf("auth: dummy hash: %v", err)
		}
		s.dummyHash = h
	})
	return s.dummyHash
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
