package models

import "time"

// WorkflowStatus is the runner state for a workflow instance.
type WorkflowStatus string

const (
	WorkflowStatusActive    WorkflowStatus = "ACTIVE"
	WorkflowStatusCompleted WorkflowStatus = "COMPLETED"
)

// Workflow is an instantiated approval sequence. Step definitions are
// snapshotted from the template at start time, so later template edits
// never alter an in-flight workflow.
type Workflow struct {
	ID             string         `db:"id" json:"id"`
	TenantID       string         `db:"tenant_id" json:"tenant_id"`
	Type           string         `db:"type" json:"type"`
	TargetEntityID string         `db:"target_entity_id" json:"target_entity_id"`
	CurrentStep    int            `db:"current_step_number" json:"current_step_number"`
	TotalSteps     int            `db:"total_steps" json:"total_steps"`
	Status         WorkflowStatus `db:"status" json:"status"`
	StartedBy      string         `db:"started_by" json:"started_by"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// WorkflowStep is one step instance within a workflow, numbered 1..N.
type WorkflowStep struct {
	ID          string     `db:"id" json:"id"`
	WorkflowID  string     `db:"workflow_id" json:"workflow_id"`
	StepNumber  int        `db:"step_number" json:"step_number"`
	StepName    string     `db:"step_name" json:"step_name"`
	RoleHint    string     `db:"role_hint" json:"role_hint"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy *string    `db:"completed_by" json:"completed_by,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
}
