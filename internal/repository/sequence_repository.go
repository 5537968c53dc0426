package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SequenceRepository allocates per-tenant, per-kind monotonic counters
// for artifact numbering (RFI-001, ISS-014, ...). The upsert runs at the
// store so values stay unique across service instances, and allocated
// values are never reused even if the artifact is later removed.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs a new repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next increments and returns the counter for (tenant, kind).
func (r *SequenceRepository) Next(ctx context.Context, ext sqlx.ExtContext, tenantID, kind string) (int, error) {
	query := `INSERT INTO sequences (tenant_id, kind, value) VALUES ($1, $2, 1)
ON CONFLICT (tenant_id, kind) DO UPDATE SET value = sequences.value + 1
RETURNING value`
	var value int
	if err := sqlx.GetContext(ctx, ext, &value, query, tenantID, kind); err != nil {
		return 0, fmt.Errorf("next sequence %s/%s: %w", tenantID, kind, err)
	}
	return value, nil
}
