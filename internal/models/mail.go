package models

import "time"

// MailType enumerates correspondence categories.
type MailType string

const (
	MailTypeRFI MailType = "RFI"
	MailTypeSI  MailType = "SI"
	MailTypeQRY MailType = "QRY"
)

// MailStatus is the stored correspondence state. Overdue-ness is
// derived from the due date at read time, never stored.
type MailStatus string

const (
	MailStatusOpen      MailStatus = "OPEN"
	MailStatusResponded MailStatus = "RESPONDED"
	MailStatusClosed    MailStatus = "CLOSED"
)

// MailItem is a tracked correspondence record.
type MailItem struct {
	ID         string     `db:"id" json:"id"`
	TenantID   string     `db:"tenant_id" json:"tenant_id"`
	MailNumber string     `db:"mail_number" json:"mail_number"`
	MailType   MailType   `db:"mail_type" json:"mail_type"`
	Subject    string     `db:"subject" json:"subject"`
	Status     MailStatus `db:"status" json:"status"`
	DueDate    *time.Time `db:"due_date" json:"due_date,omitempty"`
	ClosedAt   *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	CreatedBy  string     `db:"created_by" json:"created_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// MailResponse is an append-only reply to a mail item.
type MailResponse struct {
	ID         string    `db:"id" json:"id"`
	TenantID   string    `db:"tenant_id" json:"tenant_id"`
	MailID     string    `db:"mail_id" json:"mail_id"`
	Body       string    `db:"response_body" json:"response_body"`
	FromUserID string    `db:"from_user_id" json:"from_user_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MailItemView decorates a mail item with derived SLA fields.
type MailItemView struct {
	MailItem
	Overdue  bool   `json:"overdue"`
	DueLabel string `json:"due_label"`
}
