package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sitetrace/cde-api/internal/models"
)

// AuditRepository manages the append-only compliance ledger. Events are
// inserted once and never updated or deleted.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs a new repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one event. It accepts an ExtContext so callers can pass
// the transaction carrying the entity mutation the event describes.
func (r *AuditRepository) Append(ctx context.Context, ext sqlx.ExtContext, event *models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO audit_events (id, tenant_id, event_type, entity_type, entity_id, entity_ref, user_id, user_name, detail, created_at)
VALUES (:id, :tenant_id, :event_type, :entity_type, :entity_id, :entity_ref, :user_id, :user_name, :detail, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, event); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// Query returns ledger events matching the filter, newest first, with
// the unpaginated total.
func (r *AuditRepository) Query(ctx context.Context, tenantID string, filter models.AuditFilter) ([]models.AuditEvent, int, error) {
	base := "FROM audit_events"
	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	if filter.EntityType != "" {
		where = append(where, fmt.Sprintf("entity_type = $%d", len(args)+1))
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		where = append(where, fmt.Sprintf("entity_id = $%d", len(args)+1))
		args = append(args, filter.EntityID)
	}
	if len(filter.EventTypes) > 0 {
		where = append(where, fmt.Sprintf("event_type = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.EventTypes))
	}
	if filter.Search != "" {
		n := len(args) + 1
		where = append(where, fmt.Sprintf("(entity_ref ILIKE $%d OR detail ILIKE $%d OR user_name ILIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit events: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	offset := (page - 1) * limit
	query := fmt.Sprintf(`SELECT id, tenant_id, event_type, entity_type, entity_id, entity_ref, user_id, user_name, detail, created_at
%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, whereClause, limit, offset)
	var events []models.AuditEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("query audit events: %w", err)
	}
	return events, total, nil
}
