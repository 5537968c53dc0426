package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sitetrace/cde-api/internal/lifecycle"
	"github.com/sitetrace/cde-api/internal/models"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

type issueStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, issue *models.Issue) error
	GetByID(ctx context.Context, tenantID, id string) (*models.Issue, error)
	GetForUpdate(ctx context.Context, ext sqlx.ExtContext, tenantID, id string) (*models.Issue, error)
	UpdateStatus(ctx context.Context, ext sqlx.ExtContext, issue *models.Issue) error
}

// IssueService drives the non-conformance issue lifecycle.
type IssueService struct {
	tx        txRunner
	repo      issueStore
	audit     auditAppender
	sequences sequenceAllocator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIssueService constructs the service.
func NewIssueService(tx txRunner, repo issueStore, audit auditAppender, sequences sequenceAllocator, validate *validator.Validate, logger *zap.Logger) *IssueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{tx: tx, repo: repo, audit: audit, sequences: sequences, validator: validate, logger: logger}
}

// RaiseIssueRequest describes a new non-conformance record.
type RaiseIssueRequest struct {
	Title string `json:"title" validate:"required"`
}

// TransitionIssueRequest targets a new status.
type TransitionIssueRequest struct {
	Status string `json:"status" validate:"required"`
}

// Raise creates an issue in OPEN with an allocated ISS number.
func (s *IssueService) Raise(ctx context.Context, principal *models.Principal, req RaiseIssueRequest) (*models.Issue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid issue payload")
	}
	issue := &models.Issue{
		TenantID: principal.TenantID,
		Title:    req.Title,
		Status:   models.IssueStatusOpen,
		RaisedBy: principal.UserID,
	}
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		seq, err := s.sequences.Next(ctx, ext, principal.TenantID, "ISSUE")
		if err != nil {
			return storeError(err, "failed to allocate issue number")
		}
		issue.IssueNumber = lifecycle.IssueNumber(seq)
		if err := s.repo.Create(ctx, ext, issue); err != nil {
			return storeError(err, "failed to create issue")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   principal.TenantID,
			EventType:  models.AuditIssueCreated,
			EntityType: models.EntityTypeIssue,
			EntityID:   issue.ID,
			EntityRef:  issue.IssueNumber,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     issue.Title,
		})
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// Transition applies a status change through the issue transition
// table, recording the closed_at side effect and exactly one audit
// event for the move.
func (s *IssueService) Transition(ctx context.Context, principal *models.Principal, id string, req TransitionIssueRequest) (*models.Issue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	var issue *models.Issue
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		var err error
		issue, err = s.repo.GetForUpdate(ctx, ext, principal.TenantID, id)
		if err != nil {
			return storeError(err, "failed to load issue")
		}
		from := issue.Status
		if err := lifecycle.ApplyIssueTransition(issue, models.IssueStatus(req.Status), time.Now().UTC()); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, ext, issue); err != nil {
			return storeError(err, "failed to update issue status")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   principal.TenantID,
			EventType:  models.AuditIssueStatus,
			EntityType: models.EntityTypeIssue,
			EntityID:   issue.ID,
			EntityRef:  issue.IssueNumber,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     lifecycle.TransitionDetail(string(from), string(issue.Status)),
		})
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// Get returns an issue. Pure read, no audit entry.
func (s *IssueService) Get(ctx context.Context, principal *models.Principal, id string) (*models.Issue, error) {
	issue, err := s.repo.GetByID(ctx, principal.TenantID, id)
	if err != nil {
		return nil, storeError(err, "failed to load issue")
	}
	return issue, nil
}
