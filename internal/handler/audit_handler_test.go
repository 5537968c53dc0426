package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrace/cde-api/internal/models"
	"github.com/sitetrace/cde-api/internal/service"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

type auditServiceMock struct {
	queryResp  *models.AuditQueryResult
	queryErr   error
	exportResp *service.ExportResult
	exportErr  error
	lastFilter models.AuditFilter
	lastFormat service.ExportFormat
}

func (m *auditServiceMock) Query(ctx context.Context, principal *models.Principal, filter models.AuditFilter) (*models.AuditQueryResult, error) {
	m.lastFilter = filter
	return m.queryResp, m.queryErr
}

func (m *auditServiceMock) Export(ctx context.Context, principal *models.Principal, filter models.AuditFilter, format service.ExportFormat) (*service.ExportResult, error) {
	m.lastFilter = filter
	m.lastFormat = format
	return m.exportResp, m.exportErr
}

func TestAuditHandlerQueryParsesFilter(t *testing.T) {
	mockSvc := &auditServiceMock{
		queryResp: &models.AuditQueryResult{Events: []models.AuditEvent{}, Total: 0, Page: 1, TotalPages: 0},
	}
	handler := NewAuditHandler(mockSvc)

	c, w := testContext(t, http.MethodGet,
		"/audit?entity_type=DOCUMENT&event_types=DOC_CREATED,%20DOC_STATUS_CHANGED&search=slab&page=2&limit=25", nil)

	handler.Query(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DOCUMENT", mockSvc.lastFilter.EntityType)
	assert.Equal(t, []string{"DOC_CREATED", "DOC_STATUS_CHANGED"}, mockSvc.lastFilter.EventTypes)
	assert.Equal(t, "slab", mockSvc.lastFilter.Search)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 25, mockSvc.lastFilter.Limit)
}

func TestAuditHandlerExportSetsAttachmentHeaders(t *testing.T) {
	mockSvc := &auditServiceMock{
		exportResp: &service.ExportResult{
			Content:     []byte("Timestamp,Event\n"),
			ContentType: "text/csv",
			FileName:    "audit-trail.csv",
			RowCount:    1,
		},
	}
	handler := NewAuditHandler(mockSvc)

	c, w := testContext(t, http.MethodGet, "/audit/export?format=CSV", nil)

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ExportFormatCSV, mockSvc.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="audit-trail.csv"`, w.Header().Get("Content-Disposition"))
}

func TestAuditHandlerExportBadFormat(t *testing.T) {
	mockSvc := &auditServiceMock{
		exportErr: appErrors.Clone(appErrors.ErrValidation, "unsupported export format: xlsx"),
	}
	handler := NewAuditHandler(mockSvc)

	c, w := testContext(t, http.MethodGet, "/audit/export?format=xlsx", nil)

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
