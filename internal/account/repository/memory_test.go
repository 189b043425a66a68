package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"placement-portal/backend/internal/account/domain"
)

func seedStudent(t *testing.T, m *MemoryStore[*domain.Student]) *domain.Student {
	t.Helper()
	s := &domain.Student{ID: "s1", Name: "A", Email: "a@x.com", Creds: domain.Credentials{PasswordHash: "h"}}
	if err := m.Create(context.Background(), s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s
}

func TestMemoryStore_CreateDuplicateEmail(t *testing.T) {
	m := NewStudentMemoryStore()
	seedStudent(t, m)
	err := m.Create(context.Background(), &domain.Student{ID: "s2", Email: "a@x.com"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	m := NewCompanyMemoryStore()
	if _, err := m.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("GetByID err = %v, want ErrAccountNotFound", err)
	}
	if _, err := m.GetByEmail(context.Background(), "nope@x.com"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("GetByEmail err = %v, want ErrAccountNotFound", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	m := NewStudentMemoryStore()
	seedStudent(t, m)
	got, _ := m.GetByID(context.Background(), "s1")
	got.Name = "mutated"
	got.Creds.RefreshTokenHash = "mutated"

	again, _ := m.GetByID(context.Background(), "s1")
	if again.Name != "A" || again.Creds.RefreshTokenHash != "" {
		t.Errorf("store state leaked through returned value: %+v", again)
	}
}

func TestMemoryStore_RotateRefreshToken(t *testing.T) {
	ctx := context.Background()
	m := NewStudentMemoryStore()
	seedStudent(t, m)
	if err := m.SetRefreshToken(ctx, "s1", "r1"); err != nil {
		t.Fatalf("SetRefreshToken: %v", err)
	}

	ok, err := m.RotateRefreshToken(ctx, "s1", "r1", "r2")
	if err != nil || !ok {
		t.Fatalf("first rotation = %v, %v; want true, nil", ok, err)
	}
	ok, err = m.RotateRefreshToken(ctx, "s1", "r1", "r3")
	if err != nil || ok {
		t.Fatalf("replayed rotation = %v, %v; want false, nil", ok, err)
	}
	s, _ := m.GetByID(ctx, "s1")
	if s.Creds.RefreshTokenHash != "r2" {
		t.Errorf("stored hash = %q, want r2", s.Creds.RefreshTokenHash)
	}
}

func TestMemoryStore_RotateRefreshToken_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewStudentMemoryStore()
	seedStudent(t, m)
	_ = m.SetRefreshToken(ctx, "s1", "r1")

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, _ := m.RotateRefreshToken(ctx, "s1", "r1", "next")
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("concurrent rotations won = %d, want exactly 1", wins)
	}
}

func TestMemoryStore_RotateWithoutStoredToken(t *testing.T) {
	ctx := context.Background()
	m := NewStudentMemoryStore()
	seedStudent(t, m)
	ok, err := m.RotateRefreshToken(ctx, "s1", "", "new")
	if err != nil || ok {
		t.Fatalf("rotation with nothing stored = %v, %v; want false, nil", ok, err)
	}
}

func TestMemoryStore_ClearRefreshToken_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := NewCompanyMemoryStore()
	if err := m.ClearRefreshToken(ctx, "missing"); err != nil {
		t.Errorf("ClearRefreshToken on missing account: %v", err)
	}
	_ = m.Create(ctx, &domain.Company{ID: "c1", Email: "hr@acme.com"})
	_ = m.SetRefreshToken(ctx, "c1", "r")
	for i := 0; i < 2; i++ {
		if err := m.ClearRefreshToken(ctx, "c1"); err != nil {
			t.Fatalf("ClearRefreshToken #%d: %v", i+1, err)
		}
	}
	c, _ := m.GetByID(ctx, "c1")
	if c.Creds.RefreshTokenHash != "" {
		t.Error("refresh token should be cleared")
	}
}

func TestMemoryStore_UpdatePasswordClearsRefresh(t *testing.T) {
	ctx := context.Background()
	m := NewStudentMemoryStore()
	seedStudent(t, m)
	_ = m.SetRefreshToken(ctx, "s1", "r")
	if err := m.UpdatePassword(ctx, "s1", "newhash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	s, _ := m.GetByID(ctx, "s1")
	if s.Creds.PasswordHash != "newhash" || s.Creds.RefreshTokenHash != "" {
		t.Errorf("credentials after UpdatePassword = %+v", s.Creds)
	}
}

func TestMemoryStore_ConsumePasswordReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewStudentMemoryStore()
	seedStudent(t, m)
	if err := m.SetPasswordReset(ctx, "s1", "reset", now.Add(15*time.Minute)); err != nil {
		t.Fatalf("SetPasswordReset: %v", err)
	}

	if ok, _ := m.ConsumePasswordReset(ctx, "s1", "wrong", "pw", now); ok {
		t.Error("wrong reset hash should not be consumed")
	}
	if ok, _ := m.ConsumePasswordReset(ctx, "s1", "reset", "pw", now.Add(time.Hour)); ok {
		t.Error("expired reset should not be consumed")
	}
	ok, err := m.ConsumePasswordReset(ctx, "s1", "reset", "pw", now)
	if err != nil || !ok {
		t.Fatalf("ConsumePasswordReset = %v, %v; want true, nil", ok, err)
	}
	if ok, _ := m.ConsumePasswordReset(ctx, "s1", "reset", "pw2", now); ok {
		t.Error("reset token must be single use")
	}
	s, _ := m.GetByID(ctx, "s1")
	if s.Creds.PasswordHash != "pw" || s.Creds.PasswordResetHash != "" || s.Creds.PasswordResetExpiresAt != nil {
		t.Errorf("credentials after reset = %+v", s.Creds)
	}
}

func TestMemoryStore_UpdateProfileKeepsCredentials(t *testing.T) {
	ctx := context.Background()
	m := NewStudentMemoryStore()
	seedStudent(t, m)
	_ = m.SetRefreshToken(ctx, "s1", "r")

	s, _ := m.GetByID(ctx, "s1")
	s.Branch = "ece"
	s.Creds = domain.Credentials{}
	if err := m.UpdateProfile(ctx, s); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	got, _ := m.GetByID(ctx, "s1")
	if got.Branch != "ece" {
		t.Errorf("Branch = %q, want ece", got.Branch)
	}
	if got.Creds.PasswordHash != "h" || got.Creds.RefreshTokenHash != "r" {
		t.Errorf("credentials overwritten by UpdateProfile: %+v", got.Creds)
	}
}
