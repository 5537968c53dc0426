package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sitetrace/cde-api/internal/models"
)

// WorkflowRepository manages workflow instances and their step rows.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs a new repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

const workflowColumns = "id, tenant_id, type, target_entity_id, current_step_number, total_steps, status, started_by, created_at, completed_at"

// Create inserts the workflow and its snapshotted step rows.
func (r *WorkflowRepository) Create(ctx context.Context, ext sqlx.ExtContext, wf *models.Workflow, steps []models.WorkflowStep) error {
	if wf.ID == "" {
		wf.ID = uuid.NewString()
	}
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO workflows (id, tenant_id, type, target_entity_id, current_step_number, total_steps, status, started_by, created_at, completed_at)
VALUES (:id, :tenant_id, :type, :target_entity_id, :current_step_number, :total_steps, :status, :started_by, :created_at, :completed_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, wf); err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}
	stepQuery := `INSERT INTO workflow_steps (id, workflow_id, step_number, step_name, role_hint, completed_at, completed_by, notes)
VALUES (:id, :workflow_id, :step_number, :step_name, :role_hint, :completed_at, :completed_by, :notes)`
	for i := range steps {
		if steps[i].ID == "" {
			steps[i].ID = uuid.NewString()
		}
		steps[i].WorkflowID = wf.ID
		if _, err := sqlx.NamedExecContext(ctx, ext, stepQuery, &steps[i]); err != nil {
			return fmt.Errorf("create workflow step %d: %w", steps[i].StepNumber, err)
		}
	}
	return nil
}

// GetByID returns a workflow scoped to the tenant.
func (r *WorkflowRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE tenant_id = $1 AND id = $2", workflowColumns)
	var wf models.Workflow
	if err := r.db.GetContext(ctx, &wf, query, tenantID, id); err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	return &wf, nil
}

// GetForUpdate locks the workflow row inside the caller's transaction,
// serializing concurrent step completion per workflow.
func (r *WorkflowRepository) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, tenantID, id string) (*models.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE tenant_id = $1 AND id = $2 FOR UPDATE", workflowColumns)
	var wf models.Workflow
	if err := sqlx.GetContext(ctx, ext, &wf, query, tenantID, id); err != nil {
		return nil, fmt.Errorf("lock workflow: %w", err)
	}
	return &wf, nil
}

// ListSteps returns a workflow's step instances ordered by number.
func (r *WorkflowRepository) ListSteps(ctx context.Context, workflowID string) ([]models.WorkflowStep, error) {
	query := `SELECT id, workflow_id, step_number, step_name, role_hint, completed_at, completed_by, notes
FROM workflow_steps WHERE workflow_id = $1 ORDER BY step_number ASC`
	var steps []models.WorkflowStep
	if err := r.db.SelectContext(ctx, &steps, query, workflowID); err != nil {
		return nil, fmt.Errorf("list workflow steps: %w", err)
	}
	return steps, nil
}

// CompleteStep marks one step done.
func (r *WorkflowRepository) CompleteStep(ctx context.Context, ext sqlx.ExtContext, workflowID string, stepNumber int, completedBy string, completedAt time.Time, notes *string) error {
	query := `UPDATE workflow_steps SET completed_at = $1, completed_by = $2, notes = COALESCE($3, notes)
WHERE workflow_id = $4 AND step_number = $5`
	if _, err := ext.ExecContext(ctx, query, completedAt, completedBy, notes, workflowID, stepNumber); err != nil {
		return fmt.Errorf("complete workflow step: %w", err)
	}
	return nil
}

// UpdateProgress advances the step pointer and, when finished, the
// workflow status and completion time.
func (r *WorkflowRepository) UpdateProgress(ctx context.Context, ext sqlx.ExtContext, wf *models.Workflow) error {
	query := `UPDATE workflows SET current_step_number = :current_step_number, status = :status, completed_at = :completed_at
WHERE tenant_id = :tenant_id AND id = :id`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, wf); err != nil {
		return fmt.Errorf("update workflow progress: %w", err)
	}
	return nil
}

// UpdateStepNotes attaches notes to a step without completing it.
func (r *WorkflowRepository) UpdateStepNotes(ctx context.Context, workflowID string, stepNumber int, notes string) error {
	query := `UPDATE workflow_steps SET notes = $1 WHERE workflow_id = $2 AND step_number = $3`
	result, err := r.db.ExecContext(ctx, query, notes, workflowID, stepNumber)
	if err != nil {
		return fmt.Errorf("update step notes: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update step notes: %w", sql.ErrNoRows)
	}
	return nil
}
