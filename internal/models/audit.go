package models

import "time"

// Audit event types, one per state-affecting action.
const (
	AuditDocCreated        = "DOC_CREATED"
	AuditDocVersionCreated = "DOC_VERSION_CREATED"
	AuditDocRevisionUp     = "DOC_REVISION_UPGRADED"
	AuditDocStatusChanged  = "DOC_STATUS_CHANGED"
	AuditIssueCreated      = "ISSUE_CREATED"
	AuditIssueStatus       = "ISSUE_STATUS_CHANGED"
	AuditMailCreated       = "MAIL_CREATED"
	AuditMailResponded     = "MAIL_RESPONDED"
	AuditMailClosed        = "MAIL_CLOSED"
	AuditWorkflowStarted   = "WORKFLOW_STARTED"
	AuditWorkflowStep      = "WORKFLOW_STEP_COMPLETED"
	AuditWorkflowCompleted = "WORKFLOW_COMPLETED"
	AuditExport            = "EXPORT"
)

// Entity type labels recorded on audit events.
const (
	EntityTypeDocument = "DOCUMENT"
	EntityTypeIssue    = "ISSUE"
	EntityTypeMail     = "MAIL"
	EntityTypeWorkflow = "WORKFLOW"
	EntityTypeAudit    = "AUDIT"
)

// AuditEvent is one immutable row in the compliance ledger. Events are
// never updated or deleted once written.
type AuditEvent struct {
	ID         string    `db:"id" json:"id"`
	TenantID   string    `db:"tenant_id" json:"tenant_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	EntityRef  string    `db:"entity_ref" json:"entity_ref"`
	UserID     string    `db:"user_id" json:"user_id"`
	UserName   string    `db:"user_name" json:"user_name"`
	Detail     string    `db:"detail" json:"detail"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter constrains ledger queries.
type AuditFilter struct {
	EntityType string
	EntityID   string
	EventTypes []string
	Search     string
	Page       int
	Limit      int
}

// AuditQueryResult is the paginated ledger view.
type AuditQueryResult struct {
	Events     []AuditEvent `json:"events"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}
