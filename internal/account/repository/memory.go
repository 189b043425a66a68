package repository

import (
	"context"
	"sync"
	"time"

	"placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/security"
)

// MemoryStore is a mutex-guarded Store used by tests and by development runs without a database.
// Values are cloned on the way in and out so callers never share state with the store.
type MemoryStore[A domain.Account] struct {
	mu      sync.Mutex
	role    domain.Role
	clone   func(A) A
	byID    map[string]A
	byEmail map[string]string
}

// NewMemoryStore returns an empty store for role. clone must return a deep copy.
func NewMemoryStore[A domain.Account](role domain.Role, clone func(A) A) *MemoryStore[A] {
	return &MemoryStore[A]{
		role:    role,
		clone:   clone,
		byID:    make(map[string]A),
		byEmail: make(map[string]string),
	}
}

// NewStudentMemoryStore returns an empty in-memory student store.
func NewStudentMemoryStore() *MemoryStore[*domain.Student] {
	return NewMemoryStore(domain.RoleStudent, func(s *domain.Student) *domain.Student {
		cp := *s
		cp.Creds = cloneCredentials(s.Creds)
		return &cp
	})
}

// NewCompanyMemoryStore returns an empty in-memory company store.
func NewCompanyMemoryStore() *MemoryStore[*domain.Company] {
	return NewMemoryStore(domain.RoleCompany, func(c *domain.Company) *domain.Company {
		cp := *c
		cp.Creds = cloneCredentials(c.Creds)
		return &cp
	})
}

func cloneCredentials(c domain.Credentials) domain.Credentials {
	if c.PasswordResetExpiresAt != nil {
		t := *c.PasswordResetExpiresAt
		c.PasswordResetExpiresAt = &t
	}
	return c
}

func (m *MemoryStore[A]) Role() domain.Role { return m.role }

func (m *MemoryStore[A]) GetByID(_ context.Context, id string) (A, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		var zero A
		return zero, domain.ErrAccountNotFound
	}
	return m.clone(a), nil
}

func (m *MemoryStore[A]) GetByEmail(_ context.Context, email string) (A, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		var zero A
		return zero, domain.ErrAccountNotFound
	}
	return m.clone(m.byID[id]), nil
}

func (m *MemoryStore[A]) Create(_ context.Context, a A) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[a.AccountEmail()]; ok {
		return domain.ErrEmailTaken
	}
	m.byID[a.AccountID()] = m.clone(a)
	m.byEmail[a.AccountEmail()] = a.AccountID()
	return nil
}

// UpdateProfile replaces the stored account but keeps its credentials and email index.
func (m *MemoryStore[A]) UpdateProfile(_ context.Context, a A) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[a.AccountID()]
	if !ok {
		return domain.ErrAccountNotFound
	}
	next := m.clone(a)
	*next.Credentials() = cloneCredentials(*cur.Credentials())
	m.byID[a.AccountID()] = next
	return nil
}

func (m *MemoryStore[A]) SetRefreshToken(_ context.Context, id, tokenHash string) error {
	return m.withCredentials(id, func(c *domain.Credentials) {
		c.RefreshTokenHash = tokenHash
	})
}

func (m *MemoryStore[A]) RotateRefreshToken(_ context.Context, id, oldHash, newHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	c := a.Credentials()
	if !security.DigestEqual(c.RefreshTokenHash, oldHash) {
		return false, nil
	}
	c.RefreshTokenHash = newHash
	a.Touch(time.Now().UTC())
	return true, nil
}

func (m *MemoryStore[A]) ClearRefreshToken(_ context.Context, id string) error {
	err := m.withCredentials(id, func(c *domain.Credentials) {
		c.RefreshTokenHash = ""
	})
	if err == domain.ErrAccountNotFound {
		return nil
	}
	return err
}

func (m *MemoryStore[A]) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return m.withCredentials(id, func(c *domain.Credentials) {
		c.PasswordHash = passwordHash
		c.RefreshTokenHash = ""
	})
}

func (m *MemoryStore[A]) SetPasswordReset(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	return m.withCredentials(id, func(c *domain.Credentials) {
		c.PasswordResetHash = tokenHash
		t := expiresAt.UTC()
		c.PasswordResetExpiresAt = &t
	})
}

func (m *MemoryStore[A]) ConsumePasswordReset(_ context.Context, id, tokenHash, newPasswordHash string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	c := a.Credentials()
	if !security.DigestEqual(c.PasswordResetHash, tokenHash) ||
		c.PasswordResetExpiresAt == nil || !c.PasswordResetExpiresAt.After(now) {
		return false, nil
	}
	c.PasswordHash = newPasswordHash
	c.PasswordResetHash = ""
	c.PasswordResetExpiresAt = nil
	c.RefreshTokenHash = ""
	a.Touch(now.UTC())
	return true, nil
}

func (m *MemoryStore[A]) withCredentials(id string, fn func(*domain.Credentials)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	fn(a.Credentials())
	a.Touch(time.Now().UTC())
	return nil
}

var (
	_ StudentStore = (*StudentRepository)(nil)
	_ CompanyStore = (*CompanyRepository)(nil)
	_ StudentStore = (*MemoryStore[*domain.Student])(nil)
	_ CompanyStore = (*MemoryStore[*domain.Company])(nil)
)
