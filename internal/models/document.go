package models

import "time"

// DocumentStatus tracks a controlled document through review.
type DocumentStatus string

const (
	DocumentStatusDraft       DocumentStatus = "DRAFT"
	DocumentStatusUnderReview DocumentStatus = "UNDER_REVIEW"
	DocumentStatusApproved    DocumentStatus = "APPROVED"
	DocumentStatusSuperseded  DocumentStatus = "SUPERSEDED"
)

// Document is a controlled document. The content fields mirror the
// latest DocumentVersion row at all times.
type Document struct {
	ID         string         `db:"id" json:"id"`
	TenantID   string         `db:"tenant_id" json:"tenant_id"`
	DocNumber  string         `db:"doc_number" json:"doc_number"`
	Title      string         `db:"title" json:"title"`
	Revision   int            `db:"revision" json:"revision"`
	Version    int            `db:"version" json:"version"`
	FileName   string         `db:"file_name" json:"file_name"`
	FileSize   int64          `db:"file_size" json:"file_size"`
	UploadedAt time.Time      `db:"uploaded_at" json:"uploaded_at"`
	AuthorID   string         `db:"author_id" json:"author_id"`
	Status     DocumentStatus `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// DocumentVersion is a frozen snapshot of document content. Version
// numbers are monotonic per revision with no gaps.
type DocumentVersion struct {
	ID            string    `db:"id" json:"id"`
	TenantID      string    `db:"tenant_id" json:"tenant_id"`
	DocumentID    string    `db:"document_id" json:"document_id"`
	Revision      int       `db:"revision" json:"revision"`
	VersionNumber int       `db:"version_number" json:"version_number"`
	FileName      string    `db:"file_name" json:"file_name"`
	FileSize      int64     `db:"file_size" json:"file_size"`
	UploadedAt    time.Time `db:"uploaded_at" json:"uploaded_at"`
	AuthorID      string    `db:"author_id" json:"author_id"`
}
