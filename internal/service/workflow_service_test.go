package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrace/cde-api/internal/lifecycle"
	"github.com/sitetrace/cde-api/internal/models"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

type workflowStoreStub struct {
	wf        *models.Workflow
	steps     []models.WorkflowStep
	getErr    error
	completed []int
	noted     map[int]string
	ops       []string
}

func (s *workflowStoreStub) Create(ctx context.Context, ext sqlx.ExtContext, wf *models.Workflow, steps []models.WorkflowStep) error {
	wf.ID = "wf-1"
	s.wf = wf
	s.steps = steps
	return nil
}

func (s *workflowStoreStub) GetByID(ctx context.Context, tenantID, id string) (*models.Workflow, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.wf, nil
}

func (s *workflowStoreStub) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, tenantID, id string) (*models.Workflow, error) {
	s.ops = append(s.ops, "GetForUpdate")
	return s.GetByID(ctx, tenantID, id)
}

func (s *workflowStoreStub) ListSteps(ctx context.Context, workflowID string) ([]models.WorkflowStep, error) {
	return s.steps, nil
}

func (s *workflowStoreStub) CompleteStep(ctx context.Context, ext sqlx.ExtContext, workflowID string, stepNumber int, completedBy string, completedAt time.Time, notes *string) error {
	s.ops = append(s.ops, "CompleteStep")
	s.completed = append(s.completed, stepNumber)
	return nil
}

func (s *workflowStoreStub) UpdateProgress(ctx context.Context, ext sqlx.ExtContext, wf *models.Workflow) error {
	s.ops = append(s.ops, "UpdateProgress")
	return nil
}

func (s *workflowStoreStub) UpdateStepNotes(ctx context.Context, workflowID string, stepNumber int, notes string) error {
	if s.noted == nil {
		s.noted = map[int]string{}
	}
	s.noted[stepNumber] = notes
	return nil
}

func TestWorkflowServiceStartInstantiatesTemplate(t *testing.T) {
	store := &workflowStoreStub{}
	audit := &auditRecorder{}
	svc := NewWorkflowService(&fakeTxRunner{}, store, audit, nil, nil)

	wf, err := svc.Start(context.Background(), testPrincipal(), StartWorkflowRequest{
		Type:           "STANDARD_APPROVAL",
		TargetEntityID: "doc-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, wf.CurrentStep)
	assert.Equal(t, models.WorkflowStatusActive, wf.Status)

	template, ok := lifecycle.TemplateByType("STANDARD_APPROVAL")
	require.True(t, ok)
	require.Len(t, store.steps, len(template.Steps))
	for i, step := range store.steps {
		assert.Equal(t, i+1, step.StepNumber)
	}

	require.Len(t, audit.events, 1)
	assert.Equal(t, models.AuditWorkflowStarted, audit.events[0].EventType)
	assert.Contains(t, audit.events[0].Detail, "steps for doc-1")
}

func TestWorkflowServiceStartUnknownTemplate(t *testing.T) {
	svc := NewWorkflowService(&fakeTxRunner{}, &workflowStoreStub{}, &auditRecorder{}, nil, nil)

	_, err := svc.Start(context.Background(), testPrincipal(), StartWorkflowRequest{
		Type:           "HANDSHAKE",
		TargetEntityID: "doc-1",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestWorkflowServiceFullRunEmitsOneEventPerStep(t *testing.T) {
	store := &workflowStoreStub{}
	audit := &auditRecorder{}
	svc := NewWorkflowService(&fakeTxRunner{}, store, audit, nil, nil)

	wf, err := svc.Start(context.Background(), testPrincipal(), StartWorkflowRequest{
		Type:           "STANDARD_APPROVAL",
		TargetEntityID: "doc-1",
	})
	require.NoError(t, err)

	total := wf.TotalSteps
	for n := 1; n <= total; n++ {
		wf, err = svc.CompleteStep(context.Background(), testPrincipal(), wf.ID, CompleteStepRequest{StepNumber: n})
		require.NoError(t, err)
	}
	assert.Equal(t, models.WorkflowStatusCompleted, wf.Status)
	require.NotNil(t, wf.CompletedAt)

	// One start event, one per step, the last being the completion.
	require.Len(t, audit.events, total+1)
	for n := 1; n < total; n++ {
		assert.Equal(t, models.AuditWorkflowStep, audit.events[n].EventType)
	}
	last := audit.events[total]
	assert.Equal(t, models.AuditWorkflowCompleted, last.EventType)
	assert.Contains(t, last.Detail, "steps complete")
}

func TestWorkflowServiceRejectsOutOfOrderStep(t *testing.T) {
	store := &workflowStoreStub{
		wf: &models.Workflow{
			ID: "wf-1", TenantID: "tenant-1", Type: "STANDARD_APPROVAL",
			CurrentStep: 1, TotalSteps: 4, Status: models.WorkflowStatusActive,
		},
	}
	audit := &auditRecorder{}
	svc := NewWorkflowService(&fakeTxRunner{}, store, audit, nil, nil)

	_, err := svc.CompleteStep(context.Background(), testPrincipal(), "wf-1", CompleteStepRequest{StepNumber: 3})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrStepNotCurrent.Code, appErr.Code)
	assert.Empty(t, store.completed)
	assert.Empty(t, audit.events)
}

func TestWorkflowServiceRejectsCompletedWorkflow(t *testing.T) {
	now := time.Now().UTC()
	store := &workflowStoreStub{
		wf: &models.Workflow{
			ID: "wf-1", TenantID: "tenant-1", Type: "STANDARD_APPROVAL",
			CurrentStep: 5, TotalSteps: 4, Status: models.WorkflowStatusCompleted,
			CompletedAt: &now,
		},
	}
	svc := NewWorkflowService(&fakeTxRunner{}, store, &auditRecorder{}, nil, nil)

	_, err := svc.CompleteStep(context.Background(), testPrincipal(), "wf-1", CompleteStepRequest{StepNumber: 4})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrWorkflowComplete.Code, appErr.Code)
}

func TestWorkflowServiceCompleteStepLocksWithinOneTx(t *testing.T) {
	store := &workflowStoreStub{
		wf: &models.Workflow{
			ID: "wf-1", TenantID: "tenant-1", Type: "STANDARD_APPROVAL",
			CurrentStep: 1, TotalSteps: 4, Status: models.WorkflowStatusActive,
		},
	}
	tx := &fakeTxRunner{}
	svc := NewWorkflowService(tx, store, &auditRecorder{}, nil, nil)

	_, err := svc.CompleteStep(context.Background(), testPrincipal(), "wf-1", CompleteStepRequest{StepNumber: 1})
	require.NoError(t, err)

	// The workflow row is locked before the step is marked complete and
	// the pointer advanced, all inside one transaction.
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, []string{"GetForUpdate", "CompleteStep", "UpdateProgress"}, store.ops)
}

func TestWorkflowServiceCompleteStepFailsWhenLedgerWriteFails(t *testing.T) {
	store := &workflowStoreStub{
		wf: &models.Workflow{
			ID: "wf-1", TenantID: "tenant-1", Type: "STANDARD_APPROVAL",
			CurrentStep: 1, TotalSteps: 4, Status: models.WorkflowStatusActive,
		},
	}
	audit := &auditRecorder{err: errors.New("ledger unavailable")}
	svc := NewWorkflowService(&fakeTxRunner{}, store, audit, nil, nil)

	_, err := svc.CompleteStep(context.Background(), testPrincipal(), "wf-1", CompleteStepRequest{StepNumber: 1})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrStorage.Code, appErr.Code)
}

func TestWorkflowServiceAttachStepNotesWritesNoAudit(t *testing.T) {
	store := &workflowStoreStub{
		wf: &models.Workflow{
			ID: "wf-1", TenantID: "tenant-1", Type: "STANDARD_APPROVAL",
			CurrentStep: 2, TotalSteps: 4, Status: models.WorkflowStatusActive,
		},
	}
	audit := &auditRecorder{}
	svc := NewWorkflowService(&fakeTxRunner{}, store, audit, nil, nil)

	err := svc.AttachStepNotes(context.Background(), testPrincipal(), "wf-1", 2, StepNotesRequest{Notes: "awaiting structural signoff"})
	require.NoError(t, err)
	assert.Equal(t, "awaiting structural signoff", store.noted[2])
	assert.Empty(t, audit.events)
}
