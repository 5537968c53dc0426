package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sitetrace/cde-api/internal/models"
)

// MailRepository manages persistence for correspondence items and
// their append-only responses.
type MailRepository struct {
	db *sqlx.DB
}

// NewMailRepository constructs a new repository.
func NewMailRepository(db *sqlx.DB) *MailRepository {
	return &MailRepository{db: db}
}

const mailColumns = "id, tenant_id, mail_number, mail_type, subject, status, due_date, closed_at, created_by, created_at, updated_at"

// Create inserts a new mail item.
func (r *MailRepository) Create(ctx context.Context, ext sqlx.ExtContext, item *models.MailItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	query := `INSERT INTO mail_items (id, tenant_id, mail_number, mail_type, subject, status, due_date, closed_at, created_by, created_at, updated_at)
VALUES (:id, :tenant_id, :mail_number, :mail_type, :subject, :status, :due_date, :closed_at, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, item); err != nil {
		return fmt.Errorf("create mail item: %w", err)
	}
	return nil
}

// GetByID returns a mail item scoped to the tenant.
func (r *MailRepository) GetByID(ctx context.Context, tenantID, id string) (*models.MailItem, error) {
	query := fmt.Sprintf("SELECT %s FROM mail_items WHERE tenant_id = $1 AND id = $2", mailColumns)
	var item models.MailItem
	if err := r.db.GetContext(ctx, &item, query, tenantID, id); err != nil {
		return nil, fmt.Errorf("get mail item: %w", err)
	}
	return &item, nil
}

// GetForUpdate locks the mail row inside the caller's transaction.
func (r *MailRepository) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, tenantID, id string) (*models.MailItem, error) {
	query := fmt.Sprintf("SELECT %s FROM mail_items WHERE tenant_id = $1 AND id = $2 FOR UPDATE", mailColumns)
	var item models.MailItem
	if err := sqlx.GetContext(ctx, ext, &item, query, tenantID, id); err != nil {
		return nil, fmt.Errorf("lock mail item: %w", err)
	}
	return &item, nil
}

// UpdateStatus persists a status change with its closed_at side effect.
func (r *MailRepository) UpdateStatus(ctx context.Context, ext sqlx.ExtContext, item *models.MailItem) error {
	item.UpdatedAt = time.Now().UTC()
	query := `UPDATE mail_items SET status = :status, closed_at = :closed_at, updated_at = :updated_at
WHERE tenant_id = :tenant_id AND id = :id`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, item); err != nil {
		return fmt.Errorf("update mail status: %w", err)
	}
	return nil
}

// InsertResponse appends a response row. Responses are never edited.
func (r *MailRepository) InsertResponse(ctx context.Context, ext sqlx.ExtContext, resp *models.MailResponse) error {
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO mail_responses (id, tenant_id, mail_id, response_body, from_user_id, created_at)
VALUES (:id, :tenant_id, :mail_id, :response_body, :from_user_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, resp); err != nil {
		return fmt.Errorf("insert mail response: %w", err)
	}
	return nil
}

// ListResponses returns a mail item's responses, oldest first.
func (r *MailRepository) ListResponses(ctx context.Context, tenantID, mailID string) ([]models.MailResponse, error) {
	query := `SELECT id, tenant_id, mail_id, response_body, from_user_id, created_at
FROM mail_responses WHERE tenant_id = $1 AND mail_id = $2 ORDER BY created_at ASC`
	var responses []models.MailResponse
	if err := r.db.SelectContext(ctx, &responses, query, tenantID, mailID); err != nil {
		return nil, fmt.Errorf("list mail responses: %w", err)
	}
	return responses, nil
}
