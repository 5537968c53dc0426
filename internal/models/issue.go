package models

import "time"

// IssueStatus tracks a non-conformance issue through inspection.
type IssueStatus string

const (
	IssueStatusOpen     IssueStatus = "OPEN"
	IssueStatusWorkDone IssueStatus = "WORK_DONE"
	IssueStatusInspect  IssueStatus = "INSPECT"
	IssueStatusClosed   IssueStatus = "CLOSED"
)

// Issue is a non-conformance record. Issues are never deleted; closure
// is recorded, not removal.
type Issue struct {
	ID          string      `db:"id" json:"id"`
	TenantID    string      `db:"tenant_id" json:"tenant_id"`
	IssueNumber string      `db:"issue_number" json:"issue_number"`
	Title       string      `db:"title" json:"title"`
	Status      IssueStatus `db:"status" json:"status"`
	RaisedBy    string      `db:"raised_by" json:"raised_by"`
	ClosedAt    *time.Time  `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
