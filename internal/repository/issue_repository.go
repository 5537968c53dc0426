package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sitetrace/cde-api/internal/models"
)

// IssueRepository manages persistence for non-conformance issues.
// Issues are compliance records: there is no delete.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository constructs a new repository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

const issueColumns = "id, tenant_id, issue_number, title, status, raised_by, closed_at, created_at, updated_at"

// Create inserts a new issue.
func (r *IssueRepository) Create(ctx context.Context, ext sqlx.ExtContext, issue *models.Issue) error {
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = now
	query := `INSERT INTO issues (id, tenant_id, issue_number, title, status, raised_by, closed_at, created_at, updated_at)
VALUES (:id, :tenant_id, :issue_number, :title, :status, :raised_by, :closed_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, issue); err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

// GetByID returns an issue scoped to the tenant.
func (r *IssueRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Issue, error) {
	query := fmt.Sprintf("SELECT %s FROM issues WHERE tenant_id = $1 AND id = $2", issueColumns)
	var issue models.Issue
	if err := r.db.GetContext(ctx, &issue, query, tenantID, id); err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return &issue, nil
}

// GetForUpdate locks the issue row inside the caller's transaction.
func (r *IssueRepository) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, tenantID, id string) (*models.Issue, error) {
	query := fmt.Sprintf("SELECT %s FROM issues WHERE tenant_id = $1 AND id = $2 FOR UPDATE", issueColumns)
	var issue models.Issue
	if err := sqlx.GetContext(ctx, ext, &issue, query, tenantID, id); err != nil {
		return nil, fmt.Errorf("lock issue: %w", err)
	}
	return &issue, nil
}

// UpdateStatus persists a status change with its closed_at side effect.
func (r *IssueRepository) UpdateStatus(ctx context.Context, ext sqlx.ExtContext, issue *models.Issue) error {
	issue.UpdatedAt = time.Now().UTC()
	query := `UPDATE issues SET status = :status, closed_at = :closed_at, updated_at = :updated_at
WHERE tenant_id = :tenant_id AND id = :id`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, issue); err != nil {
		return fmt.Errorf("update issue status: %w", err)
	}
	return nil
}
