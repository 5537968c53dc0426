package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitetrace/cde-api/internal/models"
	"github.com/sitetrace/cde-api/internal/service"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
	"github.com/sitetrace/cde-api/pkg/response"
)

type issueService interface {
	Raise(ctx context.Context, principal *models.Principal, req service.RaiseIssueRequest) (*models.Issue, error)
	Transition(ctx context.Context, principal *models.Principal, id string, req service.TransitionIssueRequest) (*models.Issue, error)
	Get(ctx context.Context, principal *models.Principal, id string) (*models.Issue, error)
}

// IssueHandler exposes site issue endpoints.
type IssueHandler struct {
	service issueService
}

// NewIssueHandler builds a new handler.
func NewIssueHandler(svc issueService) *IssueHandler {
	return &IssueHandler{service: svc}
}

// Raise godoc
// @Summary Raise a site issue
// @Tags Issues
// @Accept json
// @Produce json
// @Param payload body service.RaiseIssueRequest true "Issue payload"
// @Success 201 {object} response.Envelope
// @Router /issues [post]
func (h *IssueHandler) Raise(c *gin.Context) {
	var req service.RaiseIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	issue, err := h.service.Raise(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issue)
}

// Get godoc
// @Summary Get issue detail
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	issue, err := h.service.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Transition godoc
// @Summary Move an issue through its lifecycle
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body service.TransitionIssueRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/transition [post]
func (h *IssueHandler) Transition(c *gin.Context) {
	var req service.TransitionIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	issue, err := h.service.Transition(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}
