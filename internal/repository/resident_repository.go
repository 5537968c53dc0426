package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sitetrace/cde-api/internal/models"
)

// ResidentRepository manages residents and their portal token fields.
// The token lives on the resident row: one active token, overwritten on
// reissue.
type ResidentRepository struct {
	db *sqlx.DB
}

// NewResidentRepository constructs a new repository.
func NewResidentRepository(db *sqlx.DB) *ResidentRepository {
	return &ResidentRepository{db: db}
}

const residentColumns = "id, tenant_id, name, email, unit, portal_token, portal_token_expires_at, portal_last_active_at, created_at"

// GetByID returns a resident scoped to the tenant.
func (r *ResidentRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Resident, error) {
	query := fmt.Sprintf("SELECT %s FROM residents WHERE tenant_id = $1 AND id = $2", residentColumns)
	var resident models.Resident
	if err := r.db.GetContext(ctx, &resident, query, tenantID, id); err != nil {
		return nil, fmt.Errorf("get resident: %w", err)
	}
	return &resident, nil
}

// FindByToken looks up the resident holding a portal token.
func (r *ResidentRepository) FindByToken(ctx context.Context, token string) (*models.Resident, error) {
	query := fmt.Sprintf("SELECT %s FROM residents WHERE portal_token = $1", residentColumns)
	var resident models.Resident
	if err := r.db.GetContext(ctx, &resident, query, token); err != nil {
		return nil, fmt.Errorf("find resident by token: %w", err)
	}
	return &resident, nil
}

// SetToken overwrites the resident's portal token and expiry.
func (r *ResidentRepository) SetToken(ctx context.Context, tenantID, id, token string, expiresAt time.Time) error {
	query := `UPDATE residents SET portal_token = $1, portal_token_expires_at = $2 WHERE tenant_id = $3 AND id = $4`
	result, err := r.db.ExecContext(ctx, query, token, expiresAt, tenantID, id)
	if err != nil {
		return fmt.Errorf("set portal token: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("set portal token: %w", sql.ErrNoRows)
	}
	return nil
}

// ClearToken revokes the resident's portal token.
func (r *ResidentRepository) ClearToken(ctx context.Context, tenantID, id string) error {
	query := `UPDATE residents SET portal_token = NULL, portal_token_expires_at = NULL WHERE tenant_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, tenantID, id); err != nil {
		return fmt.Errorf("clear portal token: %w", err)
	}
	return nil
}

// TouchLastActive records portal activity telemetry.
func (r *ResidentRepository) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE residents SET portal_last_active_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("touch resident activity: %w", err)
	}
	return nil
}
