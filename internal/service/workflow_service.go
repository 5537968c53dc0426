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

type workflowStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, wf *models.Workflow, steps []models.WorkflowStep) error
	GetByID(ctx context.Context, tenantID, id string) (*models.Workflow, error)
	GetForUpdate(ctx context.Context, ext sqlx.ExtContext, tenantID, id string) (*models.Workflow, error)
	ListSteps(ctx context.Context, workflowID string) ([]models.WorkflowStep, error)
	CompleteStep(ctx context.Context, ext sqlx.ExtContext, workflowID string, stepNumber int, completedBy string, completedAt time.Time, notes *string) error
	UpdateProgress(ctx context.Context, ext sqlx.ExtContext, wf *models.Workflow) error
	UpdateStepNotes(ctx context.Context, workflowID string, stepNumber int, notes string) error
}

// WorkflowService runs templated approval sequences. Steps complete
// strictly in order; each CompleteStep call emits exactly one audit
// event, the final one being WORKFLOW_COMPLETED.
type WorkflowService struct {
	tx        txRunner
	repo      workflowStore
	audit     auditAppender
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkflowService constructs the service.
func NewWorkflowService(tx txRunner, repo workflowStore, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *WorkflowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{tx: tx, repo: repo, audit: audit, validator: validate, logger: logger}
}

// StartWorkflowRequest instantiates a template against a target entity.
type StartWorkflowRequest struct {
	Type           string `json:"type" validate:"required"`
	TargetEntityID string `json:"target_entity_id" validate:"required"`
}

// CompleteStepRequest marks the current step done.
type CompleteStepRequest struct {
	StepNumber int     `json:"step_number" validate:"required,gte=1"`
	Notes      *string `json:"notes,omitempty"`
}

// StepNotesRequest attaches notes without completing the step.
type StepNotesRequest struct {
	Notes string `json:"notes" validate:"required"`
}

// WorkflowDetail is a workflow with its step instances.
type WorkflowDetail struct {
	models.Workflow
	Steps []models.WorkflowStep `json:"steps"`
}

// Start instantiates the template's steps 1..N as instance rows and
// opens the workflow at step 1.
func (s *WorkflowService) Start(ctx context.Context, principal *models.Principal, req StartWorkflowRequest) (*models.Workflow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workflow payload")
	}
	template, ok := lifecycle.TemplateByType(req.Type)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown workflow template: "+req.Type)
	}
	wf := &models.Workflow{
		TenantID:       principal.TenantID,
		Type:           template.Type,
		TargetEntityID: req.TargetEntityID,
		CurrentStep:    1,
		TotalSteps:     len(template.Steps),
		Status:         models.WorkflowStatusActive,
		StartedBy:      principal.UserID,
	}
	steps := make([]models.WorkflowStep, len(template.Steps))
	for i, ts := range template.Steps {
		steps[i] = models.WorkflowStep{
			StepNumber: ts.Number,
			StepName:   ts.Name,
			RoleHint:   ts.RoleHint,
		}
	}
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		if err := s.repo.Create(ctx, ext, wf, steps); err != nil {
			return storeError(err, "failed to create workflow")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   principal.TenantID,
			EventType:  models.AuditWorkflowStarted,
			EntityType: models.EntityTypeWorkflow,
			EntityID:   wf.ID,
			EntityRef:  template.Label,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     fmt.Sprintf("%d steps for %s", wf.TotalSteps, wf.TargetEntityID),
		})
	})
	if err != nil {
		return nil, err
	}
	return wf, nil
}

// CompleteStep completes the current step and advances the pointer.
// Out-of-order or repeated completion mutates nothing.
func (s *WorkflowService) CompleteStep(ctx context.Context, principal *models.Principal, workflowID string, req CompleteStepRequest) (*models.Workflow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid step payload")
	}
	var wf *models.Workflow
	err := s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		var err error
		wf, err = s.repo.GetForUpdate(ctx, ext, principal.TenantID, workflowID)
		if err != nil {
			return storeError(err, "failed to load workflow")
		}
		if wf.Status == models.WorkflowStatusCompleted {
			return appErrors.Clone(appErrors.ErrWorkflowComplete, "workflow "+wf.ID+" is already complete")
		}
		if req.StepNumber != wf.CurrentStep {
			return appErrors.Clone(appErrors.ErrStepNotCurrent,
				fmt.Sprintf("step %d is not current (current is %d)", req.StepNumber, wf.CurrentStep))
		}
		now := time.Now().UTC()
		if err := s.repo.CompleteStep(ctx, ext, wf.ID, req.StepNumber, principal.UserID, now, req.Notes); err != nil {
			return storeError(err, "failed to complete step")
		}
		wf.CurrentStep++
		event := models.AuditWorkflowStep
		detail := fmt.Sprintf("step %d of %d", req.StepNumber, wf.TotalSteps)
		if wf.CurrentStep > wf.TotalSteps {
			wf.Status = models.WorkflowStatusCompleted
			wf.CompletedAt = &now
			event = models.AuditWorkflowCompleted
			detail = fmt.Sprintf("all %d steps complete", wf.TotalSteps)
		}
		if err := s.repo.UpdateProgress(ctx, ext, wf); err != nil {
			return storeError(err, "failed to advance workflow")
		}
		return recordAudit(ctx, ext, s.audit, &models.AuditEvent{
			TenantID:   wf.TenantID,
			EventType:  event,
			EntityType: models.EntityTypeWorkflow,
			EntityID:   wf.ID,
			EntityRef:  wf.Type,
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     detail,
		})
	})
	if err != nil {
		return nil, err
	}
	return wf, nil
}

// AttachStepNotes stores notes against a step without completing it.
// This is not a lifecycle change and writes no workflow audit event.
func (s *WorkflowService) AttachStepNotes(ctx context.Context, principal *models.Principal, workflowID string, stepNumber int, req StepNotesRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notes payload")
	}
	if _, err := s.repo.GetByID(ctx, principal.TenantID, workflowID); err != nil {
		return storeError(err, "failed to load workflow")
	}
	if err := s.repo.UpdateStepNotes(ctx, workflowID, stepNumber, req.Notes); err != nil {
		return storeError(err, "failed to attach notes")
	}
	return nil
}

// Get returns a workflow with its steps.
func (s *WorkflowService) Get(ctx context.Context, principal *models.Principal, workflowID string) (*WorkflowDetail, error) {
	wf, err := s.repo.GetByID(ctx, principal.TenantID, workflowID)
	if err != nil {
		return nil, storeError(err, "failed to load workflow")
	}
	steps, err := s.repo.ListSteps(ctx, wf.ID)
	if err != nil {
		return nil, storeError(err, "failed to list steps")
	}
	return &WorkflowDetail{Workflow: *wf, Steps: steps}, nil
}

// Templates lists the static catalog for callers building start forms.
func (s *WorkflowService) Templates() []lifecycle.Template {
	types := lifecycle.TemplateTypes()
	templates := make([]lifecycle.Template, 0, len(types))
	for _, t := range types {
		if template, ok := lifecycle.TemplateByType(t); ok {
			templates = append(templates, template)
		}
	}
	return templates
}
