package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/sitetrace/cde-api/internal/models"
)

// fakeTxRunner executes the callback without a real transaction so the
// service logic can be exercised against stub stores.
type fakeTxRunner struct {
	err   error
	calls int
}

func (f *fakeTxRunner) WithinTx(ctx context.Context, fn func(ext sqlx.ExtContext) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// auditRecorder collects appended events in order.
type auditRecorder struct {
	events []models.AuditEvent
	err    error
}

func (r *auditRecorder) Append(ctx context.Context, ext sqlx.ExtContext, event *models.AuditEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *event)
	return nil
}

// sequenceStub hands out consecutive values per kind.
type sequenceStub struct {
	next  map[string]int
	err   error
	kinds []string
}

func (s *sequenceStub) Next(ctx context.Context, ext sqlx.ExtContext, tenantID, kind string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.next == nil {
		s.next = map[string]int{}
	}
	s.next[kind]++
	s.kinds = append(s.kinds, kind)
	return s.next[kind], nil
}

func testPrincipal() *models.Principal {
	return &models.Principal{
		UserID:   "user-1",
		UserName: "Dana Whitfield",
		TenantID: "tenant-1",
	}
}
