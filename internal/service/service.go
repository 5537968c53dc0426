// Package service implements the lifecycle engine: every mutating
// operation runs its entity write and its audit-ledger append inside
// one transaction, so neither is ever observable without the other.
package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sitetrace/cde-api/internal/models"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

// txRunner executes a function within a single storage transaction.
type txRunner interface {
	WithinTx(ctx context.Context, fn func(ext sqlx.ExtContext) error) error
}

// auditAppender writes one immutable ledger event, on the caller's
// transaction when one is in flight.
type auditAppender interface {
	Append(ctx context.Context, ext sqlx.ExtContext, event *models.AuditEvent) error
}

// sequenceAllocator hands out per-tenant, per-kind monotonic numbers.
type sequenceAllocator interface {
	Next(ctx context.Context, ext sqlx.ExtContext, tenantID, kind string) (int, error)
}

// storeError maps persistence failures onto the engine's error kinds.
// A missing row (including a cross-tenant id) is NotFound; everything
// else surfaces unmodified as a storage error, never retried here.
func storeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, message)
}

// recordAudit appends a ledger event on the caller's transaction. A
// failed append surfaces as a storage error and aborts the transaction;
// the entity mutation is never committed without its ledger row.
func recordAudit(ctx context.Context, ext sqlx.ExtContext, audit auditAppender, event *models.AuditEvent) error {
	if err := audit.Append(ctx, ext, event); err != nil {
		return storeError(err, "failed to record audit event")
	}
	return nil
}
