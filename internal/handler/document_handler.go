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

type documentService interface {
	Register(ctx context.Context, principal *models.Principal, req service.RegisterDocumentRequest) (*models.Document, error)
	CreateVersion(ctx context.Context, principal *models.Principal, documentID string, req service.CreateVersionRequest) (*models.DocumentVersion, error)
	UpgradeRevision(ctx context.Context, principal *models.Principal, documentID string) (*models.Document, error)
	Transition(ctx context.Context, principal *models.Principal, documentID string, req service.TransitionDocumentRequest) (*models.Document, error)
	ListVersions(ctx context.Context, principal *models.Principal, documentID string) ([]models.DocumentVersion, error)
	Get(ctx context.Context, principal *models.Principal, documentID string) (*models.Document, error)
}

// DocumentHandler exposes controlled-document endpoints.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler builds a new handler.
func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Register godoc
// @Summary Register a controlled document
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body service.RegisterDocumentRequest true "Document payload"
// @Success 201 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Register(c *gin.Context) {
	var req service.RegisterDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	doc, err := h.service.Register(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Get godoc
// @Summary Get document detail
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// CreateVersion godoc
// @Summary Record a new version of a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body service.CreateVersionRequest true "Version payload"
// @Success 201 {object} response.Envelope
// @Router /documents/{id}/versions [post]
func (h *DocumentHandler) CreateVersion(c *gin.Context) {
	var req service.CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	version, err := h.service.CreateVersion(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// ListVersions godoc
// @Summary List version history of a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/versions [get]
func (h *DocumentHandler) ListVersions(c *gin.Context) {
	versions, err := h.service.ListVersions(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// UpgradeRevision godoc
// @Summary Upgrade a document to its next revision
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/revision [post]
func (h *DocumentHandler) UpgradeRevision(c *gin.Context) {
	doc, err := h.service.UpgradeRevision(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Transition godoc
// @Summary Change document status
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body service.TransitionDocumentRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/transition [post]
func (h *DocumentHandler) Transition(c *gin.Context) {
	var req service.TransitionDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	doc, err := h.service.Transition(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}
