package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sitetrace/cde-api/internal/lifecycle"
	"github.com/sitetrace/cde-api/internal/models"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

type documentStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, doc *models.Document) error
	GetByID(ctx context.Context, tenantID, id string) (*models.Document, error)
	GetForUpdate(ctx context.Context, ext sqlx.ExtContext, tenantID, id string) (*models.Document, error)
	UpdateCurrent(ctx context.Context, ext sqlx.ExtContext, doc *models.Document) error
	InsertVersion(ctx context.Context, ext sqlx.ExtContext, version *models.DocumentVersion) error
	NextVersionNumber(ctx context.Context, ext sqlx.ExtContext, documentID string, revision int) (int, error)
	ListVersions(ctx context.Context, tenantID, documentID string) ([]models.DocumentVersion, error)
}

// DocumentService controls document versioning and revision upgrades.
// A revision upgrade restarts version numbering at 1; versions within a
// revision are contiguous with no gaps.
type DocumentService struct {
	tx        txRunner
	repo      documentStore
	audit     auditAppender
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(tx txRunner, repo documentStore, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{tx: tx, repo: repo, audit: audit, validator: validate, logger: logger}
}

// RegisterDocumentRequest describes a document entering control.
type RegisterDocumentRequest struct {
	DocNumber string `json:"doc_number" validate:"required"`
	Title     string `json:"title" validate:"required"`
	FileName  string `json:"file_name" validate:"required"`
	FileSize  int64  `json:"file_size" validate:"gte=0"`
}

// CreateVersionRequest describes replacement content.
type CreateVersionRequest struct {
	FileName string `json:"file_name" validate:"required"`
	FileSize int64  `json:"file_size" validate:"gte=0"`
}

// TransitionDocumentRequest targets a new document status.
type TransitionDocumentRequest struct {
	Status string `json:"status" validate:"required"`
}

// Register places a document under control at revision 1, version 1,
// writing the first snapshot alongside.
func (s *DocumentService) Register(ctx context.Context, principal *models.Principal, req RegisterDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}
	now := time.Now().UTC()
	doc := &models.Document{
		TenantID:   principal.TenantID,
		DocNumber:  req.DocNumber,
		Title:      req.Title,
		Revision:   1,
		Version:    1,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		UploadedAt: now,
		AuthorID:   principal.UserID,
		Status:     models.DocumentStatusDraft,
	}
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		if err := s.repo.Create(ctx, ext, doc); err != nil {
			return storeError(err, "failed to create document")
		}
		if err := s.repo.InsertVersion(ctx, ext, snapshotOf(doc)); err != nil {
			return storeError(err, "failed to write initial version")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   principal.TenantID,
			EventType:  models.AuditDocCreated,
			EntityType: models.EntityTypeDocument,
			EntityID:   doc.ID,
			EntityRef:  doc.DocNumber,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     doc.Title,
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateVersion freezes new content as the next version snapshot and
// mirrors it onto the document's current fields. The row lock makes
// concurrent calls allocate distinct, contiguous version numbers.
func (s *DocumentService) CreateVersion(ctx context.Context, principal *models.Principal, documentID string, req CreateVersionRequest) (*models.DocumentVersion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid version payload")
	}
	var version *models.DocumentVersion
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		doc, err := s.repo.GetForUpdate(ctx, ext, principal.TenantID, documentID)
		if err != nil {
			return storeError(err, "failed to load document")
		}
		next, err := s.repo.NextVersionNumber(ctx, ext, doc.ID, doc.Revision)
		if err != nil {
			return storeError(err, "failed to allocate version number")
		}
		now := time.Now().UTC()
		version = &models.DocumentVersion{
			TenantID:      doc.TenantID,
			DocumentID:    doc.ID,
			Revision:      doc.Revision,
			VersionNumber: next,
			FileName:      req.FileName,
			FileSize:      req.FileSize,
			UploadedAt:    now,
			AuthorID:      principal.UserID,
		}
		if err := s.repo.InsertVersion(ctx, ext, version); err != nil {
			return storeError(err, "failed to write version")
		}
		doc.Version = next
		doc.FileName = req.FileName
		doc.FileSize = req.FileSize
		doc.UploadedAt = now
		doc.AuthorID = principal.UserID
		if err := s.repo.UpdateCurrent(ctx, ext, doc); err != nil {
			return storeError(err, "failed to update document")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   doc.TenantID,
			EventType:  models.AuditDocVersionCreated,
			EntityType: models.EntityTypeDocument,
			EntityID:   doc.ID,
			EntityRef:  doc.DocNumber,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     fmt.Sprintf("P%02d.%d (%s)", doc.Revision, next, req.FileName),
		})
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// UpgradeRevision moves the document to its next revision. Version
// numbering restarts at 1 and the current content is re-snapshotted
// under the new revision.
func (s *DocumentService) UpgradeRevision(ctx context.Context, principal *models.Principal, documentID string) (*models.Document, error) {
	var doc *models.Document
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, ext, principal.TenantID, documentID)
		if err != nil {
			return storeError(err, "failed to load document")
		}
		oldRevision := doc.Revision
		doc.Revision++
		doc.Version = 1
		doc.UploadedAt = time.Now().UTC()
		if err := s.repo.InsertVersion(ctx, ext, snapshotOf(doc)); err != nil {
			return storeError(err, "failed to write revision snapshot")
		}
		if err := s.repo.UpdateCurrent(ctx, ext, doc); err != nil {
			return storeError(err, "failed to update document")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   doc.TenantID,
			EventType:  models.AuditDocRevisionUp,
			EntityType: models.EntityTypeDocument,
			EntityID:   doc.ID,
			EntityRef:  doc.DocNumber,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     fmt.Sprintf("P%02d → P%02d", oldRevision, doc.Revision),
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Transition moves the document through its review state machine.
func (s *DocumentService) Transition(ctx context.Context, principal *models.Principal, documentID string, req TransitionDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	var doc *models.Document
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, ext, principal.TenantID, documentID)
		if err != nil {
			return storeError(err, "failed to load document")
		}
		from := doc.Status
		if err := lifecycle.CheckTransition(lifecycle.KindDocument, string(from), req.Status); err != nil {
			return err
		}
		doc.Status = models.DocumentStatus(req.Status)
		if err := s.repo.UpdateCurrent(ctx, ext, doc); err != nil {
			return storeError(err, "failed to update document status")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   doc.TenantID,
			EventType:  models.AuditDocStatusChanged,
			EntityType: models.EntityTypeDocument,
			EntityID:   doc.ID,
			EntityRef:  doc.DocNumber,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     lifecycle.TransitionDetail(string(from), req.Status),
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListVersions returns the snapshot history, newest first. Pure read:
// version history access is not itself an audited compliance action.
func (s *DocumentService) ListVersions(ctx context.Context, principal *models.Principal, documentID string) ([]models.DocumentVersion, error) {
	if _, err := s.repo.GetByID(ctx, principal.TenantID, documentID); err != nil {
		return nil, storeError(err, "failed to load document")
	}
	versions, err := s.repo.ListVersions(ctx, principal.TenantID, documentID)
	if err != nil {
		return nil, storeError(err, "failed to list versions")
	}
	return versions, nil
}

// Get returns the current document row.
func (s *DocumentService) Get(ctx context.Context, principal *models.Principal, documentID string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, principal.TenantID, documentID)
	if err != nil {
		return nil, storeError(err, "failed to load document")
	}
	return doc, nil
}

func snapshotOf(doc *models.Document) *models.DocumentVersion {
	return &models.DocumentVersion{
		TenantID:      doc.TenantID,
		DocumentID:    doc.ID,
		Revision:      doc.Revision,
		VersionNumber: doc.Version,
		FileName:      doc.FileName,
		FileSize:      doc.FileSize,
		UploadedAt:    doc.UploadedAt,
		AuthorID:      doc.AuthorID,
	}
}
