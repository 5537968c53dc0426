package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitetrace/cde-api/internal/models"
	"github.com/sitetrace/cde-api/internal/service"
	"github.com/sitetrace/cde-api/pkg/response"
)

// PortalTokenHeader carries the resident's opaque access token.
const PortalTokenHeader = "X-Portal-Token"

type portalService interface {
	IssueToken(ctx context.Context, principal *models.Principal, residentID string) (*service.IssuedToken, error)
	ValidateToken(ctx context.Context, token string) (*models.Resident, error)
	RevokeToken(ctx context.Context, principal *models.Principal, residentID string) error
}

// PortalHandler exposes resident portal token management and the
// token-gated resident session endpoint.
type PortalHandler struct {
	service portalService
}

// NewPortalHandler builds a new handler.
func NewPortalHandler(svc portalService) *PortalHandler {
	return &PortalHandler{service: svc}
}

// IssueToken godoc
// @Summary Issue a portal token for a resident
// @Tags Portal
// @Produce json
// @Param id path string true "Resident ID"
// @Success 201 {object} response.Envelope
// @Router /residents/{id}/portal-token [post]
func (h *PortalHandler) IssueToken(c *gin.Context) {
	issued, err := h.service.IssueToken(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issued)
}

// RevokeToken godoc
// @Summary Revoke a resident's portal token
// @Tags Portal
// @Produce json
// @Param id path string true "Resident ID"
// @Success 204
// @Router /residents/{id}/portal-token [delete]
func (h *PortalHandler) RevokeToken(c *gin.Context) {
	if err := h.service.RevokeToken(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Session godoc
// @Summary Resolve a portal token to its resident
// @Tags Portal
// @Produce json
// @Param X-Portal-Token header string true "Portal token"
// @Success 200 {object} response.Envelope
// @Router /portal/session [get]
func (h *PortalHandler) Session(c *gin.Context) {
	resident, err := h.service.ValidateToken(c.Request.Context(), c.GetHeader(PortalTokenHeader))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resident, nil)
}
