package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sitetrace/cde-api/internal/models"
)

// DocumentRepository manages persistence for controlled documents and
// their frozen version snapshots.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a new repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = "id, tenant_id, doc_number, title, revision, version, file_name, file_size, uploaded_at, author_id, status, created_at, updated_at"

// Create inserts a new document row.
func (r *DocumentRepository) Create(ctx context.Context, ext sqlx.ExtContext, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	query := `INSERT INTO documents (id, tenant_id, doc_number, title, revision, version, file_name, file_size, uploaded_at, author_id, status, created_at, updated_at)
VALUES (:id, :tenant_id, :doc_number, :title, :revision, :version, :file_name, :file_size, :uploaded_at, :author_id, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID returns a document scoped to the tenant.
func (r *DocumentRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE tenant_id = $1 AND id = $2", documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, tenantID, id); err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// GetForUpdate locks the document row inside the caller's transaction,
// serializing concurrent version and revision allocation per document.
func (r *DocumentRepository) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, tenantID, id string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE tenant_id = $1 AND id = $2 FOR UPDATE", documentColumns)
	var doc models.Document
	if err := sqlx.GetContext(ctx, ext, &doc, query, tenantID, id); err != nil {
		return nil, fmt.Errorf("lock document: %w", err)
	}
	return &doc, nil
}

// UpdateCurrent rewrites the denormalized current content fields so the
// document row always mirrors the latest version snapshot.
func (r *DocumentRepository) UpdateCurrent(ctx context.Context, ext sqlx.ExtContext, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	query := `UPDATE documents SET revision = :revision, version = :version, file_name = :file_name, file_size = :file_size,
uploaded_at = :uploaded_at, author_id = :author_id, status = :status, updated_at = :updated_at
WHERE tenant_id = :tenant_id AND id = :id`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// InsertVersion writes a frozen version snapshot.
func (r *DocumentRepository) InsertVersion(ctx context.Context, ext sqlx.ExtContext, version *models.DocumentVersion) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	query := `INSERT INTO document_versions (id, tenant_id, document_id, revision, version_number, file_name, file_size, uploaded_at, author_id)
VALUES (:id, :tenant_id, :document_id, :revision, :version_number, :file_name, :file_size, :uploaded_at, :author_id)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, version); err != nil {
		return fmt.Errorf("insert document version: %w", err)
	}
	return nil
}

// NextVersionNumber allocates max+1 within the document's current
// revision. Callers must hold the document row lock.
func (r *DocumentRepository) NextVersionNumber(ctx context.Context, ext sqlx.ExtContext, documentID string, revision int) (int, error) {
	query := `SELECT COALESCE(MAX(version_number), 0) + 1 FROM document_versions WHERE document_id = $1 AND revision = $2`
	var next int
	if err := sqlx.GetContext(ctx, ext, &next, query, documentID, revision); err != nil {
		return 0, fmt.Errorf("next version number: %w", err)
	}
	return next, nil
}

// ListVersions returns all snapshots for a document, newest first.
func (r *DocumentRepository) ListVersions(ctx context.Context, tenantID, documentID string) ([]models.DocumentVersion, error) {
	query := `SELECT id, tenant_id, document_id, revision, version_number, file_name, file_size, uploaded_at, author_id
FROM document_versions WHERE tenant_id = $1 AND document_id = $2 ORDER BY revision DESC, version_number DESC`
	var versions []models.DocumentVersion
	if err := r.db.SelectContext(ctx, &versions, query, tenantID, documentID); err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	return versions, nil
}
