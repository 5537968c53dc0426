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

type mailService interface {
	Create(ctx context.Context, principal *models.Principal, req service.CreateMailRequest) (*models.MailItem, error)
	AddResponse(ctx context.Context, principal *models.Principal, mailID string, req service.RespondRequest) (*models.MailItem, error)
	Close(ctx context.Context, principal *models.Principal, mailID string) (*models.MailItem, error)
	Get(ctx context.Context, principal *models.Principal, mailID string) (*models.MailItemView, error)
	ListResponses(ctx context.Context, principal *models.Principal, mailID string) ([]models.MailResponse, error)
}

// MailHandler exposes project correspondence endpoints.
type MailHandler struct {
	service mailService
}

// NewMailHandler builds a new handler.
func NewMailHandler(svc mailService) *MailHandler {
	return &MailHandler{service: svc}
}

// Create godoc
// @Summary Create a correspondence item
// @Tags Mail
// @Accept json
// @Produce json
// @Param payload body service.CreateMailRequest true "Mail payload"
// @Success 201 {object} response.Envelope
// @Router /mail [post]
func (h *MailHandler) Create(c *gin.Context) {
	var req service.CreateMailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Get godoc
// @Summary Get a correspondence item with due status
// @Tags Mail
// @Produce json
// @Param id path string true "Mail ID"
// @Success 200 {object} response.Envelope
// @Router /mail/{id} [get]
func (h *MailHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// AddResponse godoc
// @Summary Respond to a correspondence item
// @Tags Mail
// @Accept json
// @Produce json
// @Param id path string true "Mail ID"
// @Param payload body service.RespondRequest true "Response payload"
// @Success 200 {object} response.Envelope
// @Router /mail/{id}/responses [post]
func (h *MailHandler) AddResponse(c *gin.Context) {
	var req service.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.AddResponse(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// ListResponses godoc
// @Summary List responses to a correspondence item
// @Tags Mail
// @Produce json
// @Param id path string true "Mail ID"
// @Success 200 {object} response.Envelope
// @Router /mail/{id}/responses [get]
func (h *MailHandler) ListResponses(c *gin.Context) {
	responses, err := h.service.ListResponses(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, responses, nil)
}

// Close godoc
// @Summary Close a correspondence item
// @Tags Mail
// @Produce json
// @Param id path string true "Mail ID"
// @Success 200 {object} response.Envelope
// @Router /mail/{id}/close [post]
func (h *MailHandler) Close(c *gin.Context) {
	item, err := h.service.Close(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
