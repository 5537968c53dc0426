package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sitetrace/cde-api/internal/lifecycle"
	"github.com/sitetrace/cde-api/internal/models"
	"github.com/sitetrace/cde-api/pkg/config"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

type mailStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, item *models.MailItem) error
	GetByID(ctx context.Context, tenantID, id string) (*models.MailItem, error)
	GetForUpdate(ctx context.Context, ext sqlx.ExtContext, tenantID, id string) (*models.MailItem, error)
	UpdateStatus(ctx context.Context, ext sqlx.ExtContext, item *models.MailItem) error
	InsertResponse(ctx context.Context, ext sqlx.ExtContext, resp *models.MailResponse) error
	ListResponses(ctx context.Context, tenantID, mailID string) ([]models.MailResponse, error)
}

// MailService tracks correspondence items and their response SLAs.
// Closing is one-way; RESPONDED is only reachable via AddResponse.
type MailService struct {
	tx        txRunner
	repo      mailStore
	audit     auditAppender
	sequences sequenceAllocator
	dueDays   config.MailConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMailService constructs the service.
func NewMailService(tx txRunner, repo mailStore, audit auditAppender, sequences sequenceAllocator, dueDays config.MailConfig, validate *validator.Validate, logger *zap.Logger) *MailService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &MailService{tx: tx, repo: repo, audit: audit, sequences: sequences, dueDays: dueDays, validator: validate, logger: logger}
	svc.validator.RegisterValidation("mail_type", func(fl validator.FieldLevel) bool {
		switch models.MailType(fl.Field().String()) {
		case models.MailTypeRFI, models.MailTypeSI, models.MailTypeQRY:
			return true
		default:
			return false
		}
	})
	return svc
}

// CreateMailRequest describes a new correspondence item.
type CreateMailRequest struct {
	MailType string `json:"mail_type" validate:"required,mail_type"`
	Subject  string `json:"subject" validate:"required"`
}

// RespondRequest carries a reply body.
type RespondRequest struct {
	Body string `json:"response_body" validate:"required"`
}

// Create opens a mail item with an allocated number and the SLA due
// date for its type.
func (s *MailService) Create(ctx context.Context, principal *models.Principal, req CreateMailRequest) (*models.MailItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mail payload")
	}
	mailType := models.MailType(req.MailType)
	due := time.Now().UTC().AddDate(0, 0, s.dueDaysFor(mailType))
	item := &models.MailItem{
		TenantID:  principal.TenantID,
		MailType:  mailType,
		Subject:   req.Subject,
		Status:    models.MailStatusOpen,
		DueDate:   &due,
		CreatedBy: principal.UserID,
	}
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		seq, err := s.sequences.Next(ctx, ext, principal.TenantID, "MAIL_"+string(mailType))
		if err != nil {
			return storeError(err, "failed to allocate mail number")
		}
		item.MailNumber = lifecycle.MailNumber(mailType, seq)
		if err := s.repo.Create(ctx, ext, item); err != nil {
			return storeError(err, "failed to create mail item")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   principal.TenantID,
			EventType:  models.AuditMailCreated,
			EntityType: models.EntityTypeMail,
			EntityID:   item.ID,
			EntityRef:  item.MailNumber,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     item.Subject,
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// AddResponse appends a reply and flips the item to RESPONDED. This is
// the only path to RESPONDED; a closed item rejects it.
func (s *MailService) AddResponse(ctx context.Context, principal *models.Principal, mailID string, req RespondRequest) (*models.MailItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid response payload")
	}
	var item *models.MailItem
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		var err error
		item, err = s.repo.GetForUpdate(ctx, ext, principal.TenantID, mailID)
		if err != nil {
			return storeError(err, "failed to load mail item")
		}
		if item.Status == models.MailStatusClosed {
			return appErrors.Clone(appErrors.ErrEntityClosed, "cannot respond to closed mail "+item.MailNumber)
		}
		resp := &models.MailResponse{
			TenantID:   item.TenantID,
			MailID:     item.ID,
			Body:       req.Body,
			FromUserID: principal.UserID,
		}
		if err := s.repo.InsertResponse(ctx, ext, resp); err != nil {
			return storeError(err, "failed to insert response")
		}
		item.Status = models.MailStatusResponded
		if err := s.repo.UpdateStatus(ctx, ext, item); err != nil {
			return storeError(err, "failed to update mail status")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   item.TenantID,
			EventType:  models.AuditMailResponded,
			EntityType: models.EntityTypeMail,
			EntityID:   item.ID,
			EntityRef:  item.MailNumber,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     "response added",
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Close terminates the item. There is no reopen.
func (s *MailService) Close(ctx context.Context, principal *models.Principal, mailID string) (*models.MailItem, error) {
	var item *models.MailItem
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		var err error
		item, err = s.repo.GetForUpdate(ctx, ext, principal.TenantID, mailID)
		if err != nil {
			return storeError(err, "failed to load mail item")
		}
		if item.Status == models.MailStatusClosed {
			return appErrors.Clone(appErrors.ErrEntityClosed, "mail "+item.MailNumber+" is already closed")
		}
		from := item.Status
		if err := lifecycle.CheckTransition(lifecycle.KindMail, string(from), string(models.MailStatusClosed)); err != nil {
			return err
		}
		now := time.Now().UTC()
		item.Status = models.MailStatusClosed
		item.ClosedAt = &now
		if err := s.repo.UpdateStatus(ctx, ext, item); err != nil {
			return storeError(err, "failed to close mail item")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   item.TenantID,
			EventType:  models.AuditMailClosed,
			EntityType: models.EntityTypeMail,
			EntityID:   item.ID,
			EntityRef:  item.MailNumber,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     lifecycle.TransitionDetail(string(from), string(models.MailStatusClosed)),
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Get returns the item annotated with derived SLA fields.
func (s *MailService) Get(ctx context.Context, principal *models.Principal, mailID string) (*models.MailItemView, error) {
	item, err := s.repo.GetByID(ctx, principal.TenantID, mailID)
	if err != nil {
		return nil, storeError(err, "failed to load mail item")
	}
	now := time.Now().UTC()
	return &models.MailItemView{
		MailItem: *item,
		Overdue:  lifecycle.IsOverdue(item.DueDate, item.Status, now),
		DueLabel: lifecycle.FormatDueLabel(item.DueDate, item.Status, now),
	}, nil
}

// ListResponses returns the reply thread, oldest first.
func (s *MailService) ListResponses(ctx context.Context, principal *models.Principal, mailID string) ([]models.MailResponse, error) {
	if _, err := s.repo.GetByID(ctx, principal.TenantID, mailID); err != nil {
		return nil, storeError(err, "failed to load mail item")
	}
	responses, err := s.repo.ListResponses(ctx, principal.TenantID, mailID)
	if err != nil {
		return nil, storeError(err, "failed to list responses")
	}
	return responses, nil
}

func (s *MailService) dueDaysFor(mailType models.MailType) int {
	var days int
	switch mailType {
	case models.MailTypeRFI:
		days = s.dueDays.DueDaysRFI
	case models.MailTypeSI:
		days = s.dueDays.DueDaysSI
	case models.MailTypeQRY:
		days = s.dueDays.DueDaysQRY
	default:
		days = s.dueDays.DueDaysDefault
	}
	if days <= 0 {
		days = lifecycle.DefaultDueDays(mailType)
	}
	return days
}
