package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sitetrace/cde-api/internal/models"
	"github.com/sitetrace/cde-api/pkg/config"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
	"github.com/sitetrace/cde-api/pkg/export"
)

type auditStore interface {
	Append(ctx context.Context, ext sqlx.ExtContext, event *models.AuditEvent) error
	Query(ctx context.Context, tenantID string, filter models.AuditFilter) ([]models.AuditEvent, int, error)
}

// ExportFormat selects the rendering for an audit export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered export bytes.
type ExportResult struct {
	Content     []byte
	ContentType string
	FileName    string
	RowCount    int
}

// AuditService queries and exports the compliance ledger. Exporting is
// itself a sensitive read: it appends one EXPORT event recording how
// many rows left the system.
type AuditService struct {
	tx      txRunner
	repo    auditStore
	cfg     config.AuditConfig
	metrics *MetricsService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(tx txRunner, repo auditStore, cfg config.AuditConfig, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if cfg.QueryMaxLimit <= 0 {
		cfg.QueryMaxLimit = 500
	}
	if cfg.QueryDefaultLimit <= 0 {
		cfg.QueryDefaultLimit = 100
	}
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		tx:      tx,
		repo:    repo,
		cfg:     cfg,
		metrics: metrics,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Append writes one ledger event and counts it. The other services take
// this service as their appender so every event type shows up in the
// audit_events_total counter.
func (s *AuditService) Append(ctx context.Context, ext sqlx.ExtContext, event *models.AuditEvent) error {
	if err := s.repo.Append(ctx, ext, event); err != nil {
		return err
	}
	s.metrics.CountAuditEvent(event.EventType)
	return nil
}

// Query returns a page of ledger events, newest first.
func (s *AuditService) Query(ctx context.Context, principal *models.Principal, filter models.AuditFilter) (*models.AuditQueryResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = s.cfg.QueryDefaultLimit
	}
	if filter.Limit > s.cfg.QueryMaxLimit {
		filter.Limit = s.cfg.QueryMaxLimit
	}
	events, total, err := s.repo.Query(ctx, principal.TenantID, filter)
	if err != nil {
		return nil, storeError(err, "failed to query audit events")
	}
	totalPages := total / filter.Limit
	if total%filter.Limit != 0 {
		totalPages++
	}
	return &models.AuditQueryResult{
		Events:     events,
		Total:      total,
		Page:       filter.Page,
		TotalPages: totalPages,
	}, nil
}

var exportHeaders = []string{"Timestamp", "Event", "Entity Type", "Entity Ref", "User", "Detail"}

// Export materializes the filtered ledger up to the hard row ceiling,
// renders it in the requested format, and appends one EXPORT event.
func (s *AuditService) Export(ctx context.Context, principal *models.Principal, filter models.AuditFilter, format ExportFormat) (*ExportResult, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	started := time.Now()
	filter.Page = 1
	filter.Limit = s.cfg.ExportMaxRows
	events, _, err := s.repo.Query(ctx, principal.TenantID, filter)
	if err != nil {
		return nil, storeError(err, "failed to query audit events")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(events))}
	for _, event := range events {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Timestamp":   event.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			"Event":       event.EventType,
			"Entity Type": event.EntityType,
			"Entity Ref":  event.EntityRef,
			"User":        event.UserName,
			"Detail":      event.Detail,
		})
	}

	result := &ExportResult{RowCount: len(events)}
	switch format {
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, "Audit trail")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		result.Content = content
		result.ContentType = "application/pdf"
		result.FileName = "audit-trail.pdf"
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		result.Content = content
		result.ContentType = "text/csv"
		result.FileName = "audit-trail.csv"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+string(format))
	}

	// The export itself is audited. A failed ledger write fails the
	// export: an unrecorded export would violate the core guarantee.
	err = s.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		return s.Append(ctx, ext, &models.AuditEvent{
			TenantID:   principal.TenantID,
			EventType:  models.AuditExport,
			EntityType: models.EntityTypeAudit,
			EntityID:   "audit-trail",
			EntityRef:  fmt.Sprintf("audit-trail.%s", format),
			UserID:     principal.UserID,
			UserName:   principal.UserName,
			Detail:     strconv.Itoa(result.RowCount) + " rows exported",
		})
	})
	if err != nil {
		return nil, storeError(err, "failed to record export")
	}
	s.metrics.ObserveExport(time.Since(started))
	return result, nil
}
