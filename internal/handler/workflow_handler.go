package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sitetrace/cde-api/internal/lifecycle"
	"github.com/sitetrace/cde-api/internal/models"
	"github.com/sitetrace/cde-api/internal/service"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
	"github.com/sitetrace/cde-api/pkg/response"
)

type workflowService interface {
	Start(ctx context.Context, principal *models.Principal, req service.StartWorkflowRequest) (*models.Workflow, error)
	CompleteStep(ctx context.Context, principal *models.Principal, workflowID string, req service.CompleteStepRequest) (*models.Workflow, error)
	AttachStepNotes(ctx context.Context, principal *models.Principal, workflowID string, stepNumber int, req service.StepNotesRequest) error
	Get(ctx context.Context, principal *models.Principal, workflowID string) (*service.WorkflowDetail, error)
	Templates() []lifecycle.Template
}

// WorkflowHandler exposes approval workflow endpoints.
type WorkflowHandler struct {
	service workflowService
}

// NewWorkflowHandler builds a new handler.
func NewWorkflowHandler(svc workflowService) *WorkflowHandler {
	return &WorkflowHandler{service: svc}
}

// Start godoc
// @Summary Start an approval workflow from a template
// @Tags Workflows
// @Accept json
// @Produce json
// @Param payload body service.StartWorkflowRequest true "Workflow payload"
// @Success 201 {object} response.Envelope
// @Router /workflows [post]
func (h *WorkflowHandler) Start(c *gin.Context) {
	var req service.StartWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	wf, err := h.service.Start(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wf)
}

// Get godoc
// @Summary Get a workflow with its steps
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// CompleteStep godoc
// @Summary Complete the current workflow step
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body service.CompleteStepRequest true "Step payload"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/steps/complete [post]
func (h *WorkflowHandler) CompleteStep(c *gin.Context) {
	var req service.CompleteStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	wf, err := h.service.CompleteStep(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wf, nil)
}

// AttachStepNotes godoc
// @Summary Attach notes to a workflow step
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param number path int true "Step number"
// @Param payload body service.StepNotesRequest true "Notes payload"
// @Success 204
// @Router /workflows/{id}/steps/{number}/notes [put]
func (h *WorkflowHandler) AttachStepNotes(c *gin.Context) {
	stepNumber, err := strconv.Atoi(c.Param("number"))
	if err != nil || stepNumber < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid step number"))
		return
	}
	var req service.StepNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.AttachStepNotes(c.Request.Context(), principalFromContext(c), c.Param("id"), stepNumber, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Templates godoc
// @Summary List available workflow templates
// @Tags Workflows
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workflow-templates [get]
func (h *WorkflowHandler) Templates(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Templates(), nil)
}
