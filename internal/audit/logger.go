// Package audit records who did what to the audit_logs table. Writes are best-effort.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"placement-portal/backend/internal/audit/domain"
	auditrepo "placement-portal/backend/internal/audit/repository"
)

// ResourceAuth is the resource of every session flow entry (login, refresh, logout, password).
const ResourceAuth = "auth"

// IPExtractor returns the client IP recorded on the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit entry with explicit action and resource.
type AuditLogger interface {
	LogEvent(ctx context.Context, accountID, role, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	now         func() time.Time
}

// NewLogger returns a Logger that persists to repo. ipExtractor may be nil; then IP is recorded as
// "unknown". A nil repo makes LogEvent a no-op.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, now: time.Now}
}

// LogEvent writes one audit log entry. Errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, accountID, role, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Role:      role,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	// The request may already be cancelled (client went away); the entry is still wanted.
	if err := l.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}

var _ AuditLogger = (*Logger)(nil)
