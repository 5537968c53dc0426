package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sitetrace/cde-api/internal/models"
	"github.com/sitetrace/cde-api/internal/service"
	"github.com/sitetrace/cde-api/pkg/response"
)

type auditService interface {
	Query(ctx context.Context, principal *models.Principal, filter models.AuditFilter) (*models.AuditQueryResult, error)
	Export(ctx context.Context, principal *models.Principal, filter models.AuditFilter, format service.ExportFormat) (*service.ExportResult, error)
}

// AuditHandler exposes the compliance ledger read endpoints.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler builds a new handler.
func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

func auditFilterFromQuery(c *gin.Context) models.AuditFilter {
	var filter models.AuditFilter
	filter.EntityType = c.Query("entity_type")
	filter.EntityID = c.Query("entity_id")
	if raw := strings.TrimSpace(c.Query("event_types")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				filter.EventTypes = append(filter.EventTypes, trimmed)
			}
		}
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		filter.Limit = limit
	}
	return filter
}

// Query godoc
// @Summary Query the audit trail
// @Tags Audit
// @Produce json
// @Param entity_type query string false "Entity type filter"
// @Param entity_id query string false "Entity ID filter"
// @Param event_types query string false "Comma-separated event types"
// @Param search query string false "Free-text search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) Query(c *gin.Context) {
	result, err := h.service.Query(c.Request.Context(), principalFromContext(c), auditFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export the audit trail as CSV or PDF
// @Tags Audit
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /audit/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.service.Export(c.Request.Context(), principalFromContext(c), auditFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
