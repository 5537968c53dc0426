package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrace/cde-api/internal/models"
	"github.com/sitetrace/cde-api/pkg/config"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

type auditLedgerStub struct {
	events     []models.AuditEvent
	total      int
	lastFilter models.AuditFilter
	appended   []models.AuditEvent
	appendErr  error
}

func (s *auditLedgerStub) Append(ctx context.Context, ext sqlx.ExtContext, event *models.AuditEvent) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, *event)
	return nil
}

func (s *auditLedgerStub) Query(ctx context.Context, tenantID string, filter models.AuditFilter) ([]models.AuditEvent, int, error) {
	s.lastFilter = filter
	return s.events, s.total, nil
}

func TestAuditServiceQueryClampsLimit(t *testing.T) {
	store := &auditLedgerStub{total: 1200}
	svc := NewAuditService(&fakeTxRunner{}, store, config.AuditConfig{}, nil, nil)

	_, err := svc.Query(context.Background(), testPrincipal(), models.AuditFilter{Limit: 9999})
	require.NoError(t, err)
	assert.Equal(t, 500, store.lastFilter.Limit)

	_, err = svc.Query(context.Background(), testPrincipal(), models.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, 100, store.lastFilter.Limit)
	assert.Equal(t, 1, store.lastFilter.Page)
}

func TestAuditServiceQueryTotalPagesRoundsUp(t *testing.T) {
	store := &auditLedgerStub{total: 101}
	svc := NewAuditService(&fakeTxRunner{}, store, config.AuditConfig{}, nil, nil)

	result, err := svc.Query(context.Background(), testPrincipal(), models.AuditFilter{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 101, result.Total)
	assert.Equal(t, 2, result.TotalPages)
}

func TestAuditServiceExportRendersCSVAndAuditsItself(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	store := &auditLedgerStub{
		events: []models.AuditEvent{
			{
				EventType: models.AuditIssueCreated, EntityType: models.EntityTypeIssue,
				EntityRef: "ISS-001", UserName: "Dana Whitfield",
				Detail: "Cracked panel at level 2", CreatedAt: created,
			},
		},
		total: 1,
	}
	svc := NewAuditService(&fakeTxRunner{}, store, config.AuditConfig{}, nil, nil)

	result, err := svc.Export(context.Background(), testPrincipal(), models.AuditFilter{}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "audit-trail.csv", result.FileName)
	assert.Equal(t, 1, result.RowCount)

	body := string(result.Content)
	assert.True(t, strings.HasPrefix(body, "Timestamp,Event,Entity Type,Entity Ref,User,Detail"))
	assert.Contains(t, body, "2026-03-14 09:30:00")
	assert.Contains(t, body, "ISS-001")

	// The export query is pinned to page 1 at the row ceiling.
	assert.Equal(t, 1, store.lastFilter.Page)
	assert.Equal(t, 5000, store.lastFilter.Limit)

	require.Len(t, store.appended, 1)
	assert.Equal(t, models.AuditExport, store.appended[0].EventType)
	assert.Equal(t, "audit-trail.csv", store.appended[0].EntityRef)
	assert.Equal(t, "1 rows exported", store.appended[0].Detail)
}

func TestAuditServiceExportRejectsUnknownFormat(t *testing.T) {
	store := &auditLedgerStub{}
	svc := NewAuditService(&fakeTxRunner{}, store, config.AuditConfig{}, nil, nil)

	_, err := svc.Export(context.Background(), testPrincipal(), models.AuditFilter{}, ExportFormat("xlsx"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, store.appended)
}

func TestAuditServiceExportFailsWhenLedgerWriteFails(t *testing.T) {
	store := &auditLedgerStub{appendErr: errors.New("ledger unavailable")}
	svc := NewAuditService(&fakeTxRunner{}, store, config.AuditConfig{}, nil, nil)

	_, err := svc.Export(context.Background(), testPrincipal(), models.AuditFilter{}, ExportFormatCSV)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrStorage.Code, appErr.Code)
}

func TestAuditServiceAppendCountsEvents(t *testing.T) {
	store := &auditLedgerStub{}
	metrics := NewMetricsService()
	svc := NewAuditService(&fakeTxRunner{}, store, config.AuditConfig{}, metrics, nil)

	require.NoError(t, svc.Append(context.Background(), nil, &models.AuditEvent{
		TenantID: "tenant-1", EventType: models.AuditIssueCreated,
	}))
	require.NoError(t, svc.Append(context.Background(), nil, &models.AuditEvent{
		TenantID: "tenant-1", EventType: models.AuditIssueCreated,
	}))

	counted := testutil.ToFloat64(metrics.auditEvents.WithLabelValues(models.AuditIssueCreated))
	assert.Equal(t, float64(2), counted)
}

func TestAuditServiceAppendSkipsCountOnFailure(t *testing.T) {
	store := &auditLedgerStub{appendErr: errors.New("ledger unavailable")}
	metrics := NewMetricsService()
	svc := NewAuditService(&fakeTxRunner{}, store, config.AuditConfig{}, metrics, nil)

	require.Error(t, svc.Append(context.Background(), nil, &models.AuditEvent{
		TenantID: "tenant-1", EventType: models.AuditIssueCreated,
	}))

	counted := testutil.ToFloat64(metrics.auditEvents.WithLabelValues(models.AuditIssueCreated))
	assert.Equal(t, float64(0), counted)
}

func TestAuditServiceExportObservesDuration(t *testing.T) {
	store := &auditLedgerStub{}
	metrics := NewMetricsService()
	svc := NewAuditService(&fakeTxRunner{}, store, config.AuditConfig{}, metrics, nil)

	_, err := svc.Export(context.Background(), testPrincipal(), models.AuditFilter{}, ExportFormatCSV)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metrics.Handler().ServeHTTP(w, r)
	assert.Contains(t, w.Body.String(), "audit_export_duration_seconds_count 1")
}
