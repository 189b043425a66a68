package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or signed with the wrong key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret is returned by NewTokenProvider when a signing secret is empty.
	ErrMissingSecret = errors.New("signing secret is empty")
)

// Purpose selects the secret and lifetime of a token.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
	PurposeReset   Purpose = "reset"
)

// Claims is the claim set of every portal token. Subject holds the account ID.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// AccountID returns the subject claim.
func (c *Claims) AccountID() string { return c.Subject }

// TokenPair is the output of IssuePair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Secrets holds the HMAC keys per purpose. Access and refresh keys must differ.
type Secrets struct {
	Access  []byte
	Refresh []byte
	Reset   []byte
}

// TTLs holds token lifetimes per purpose.
type TTLs struct {
	Access  time.Duration
	Refresh time.Duration
	Reset   time.Duration
}

// TokenProvider issues and validates HS256 JWTs for access, refresh, and password reset.
type TokenProvider struct {
	secrets Secrets
	ttls    TTLs
	issuer  string
	now     func() time.Time
}

// NewTokenProvider returns a TokenProvider. All three secrets are required; the caller validates that
// access and refresh secrets are distinct (config.ValidateSessionKeys).
func NewTokenProvider(secrets Secrets, ttls TTLs, issuer string) (*TokenProvider, error) {
	if len(secrets.Access) == 0 || len(secrets.Refresh) == 0 || len(secrets.Reset) == 0 {
		return nil, ErrMissingSecret
	}
	return &TokenProvider{
		secrets: secrets,
		ttls:    ttls,
		issuer:  issuer,
		now:     time.Now,
	}, nil
}

// IssuePair mints an access and a refresh token for the account. It has no side effects; the caller
// persists the refresh token hash.
func (p *TokenProvider) IssuePair(accountID, role string) (TokenPair, error) {
	access, accessExp, err := p.issue(PurposeAccess, accountID, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := p.issue(PurposeRefresh, accountID, role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueReset mints a password-reset token for the account.
func (p *TokenProvider) IssueReset(accountID, role string) (string, time.Time, error) {
	return p.issue(PurposeReset, accountID, role)
}

// ValidateAccess parses and validates an access token (signature, exp, iss).
func (p *TokenProvider) ValidateAccess(token string) (*Claims, error) {
	return p.validate(PurposeAccess, token)
}

// ValidateRefresh parses and validates a refresh token (signature, exp, iss).
func (p *TokenProvider) ValidateRefresh(token string) (*Claims, error) {
	return p.validate(PurposeRefresh, token)
}

// ValidateReset parses and validates a password-reset token (signature, exp, iss).
func (p *TokenProvider) ValidateReset(token string) (*Claims, error) {
	return p.validate(PurposeReset, token)
}

// TTL returns the configured lifetime for purpose.
func (p *TokenProvider) TTL(purpose Purpose) time.Duration {
	switch purpose {
	case PurposeAccess:
		return p.ttls.Access
	case PurposeRefresh:
		return p.ttls.Refresh
	default:
		return p.ttls.Reset
	}
}

func (p *TokenProvider) issue(purpose Purpose, accountID, role string) (string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.now().UTC()
	expiresAt := now.Add(p.TTL(purpose))
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   accountID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret(purpose))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (p *TokenProvider) validate(purpose Purpose, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret(purpose), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *TokenProvider) secret(purpose Purpose) []byte {
	switch purpose {
	case PurposeAccess:
		return p.secrets.Access
	case PurposeRefresh:
		return p.secrets.Refresh
	default:
		return p.secrets.Reset
	}
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomSecret returns n random bytes, used for the per-process reset secret in development.
func RandomSecret(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
