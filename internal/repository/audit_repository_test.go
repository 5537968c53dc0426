package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrace/cde-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestAuditRepositoryAppendAssignsIDAndTimestamp(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &models.AuditEvent{
		TenantID:   "tenant-1",
		EventType:  models.AuditIssueCreated,
		EntityType: models.EntityTypeIssue,
		EntityID:   "issue-1",
		EntityRef:  "ISS-001",
		UserID:     "user-1",
		UserName:   "Dana",
		Detail:     "Cracked slab edge",
	}
	require.NoError(t, repo.Append(context.Background(), db, event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryQueryFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_events WHERE tenant_id = $1 AND entity_type = $2")).
		WithArgs("tenant-1", models.EntityTypeIssue).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "event_type", "entity_type", "entity_id", "entity_ref", "user_id", "user_name", "detail", "created_at"}).
		AddRow("evt-2", "tenant-1", models.AuditIssueStatus, models.EntityTypeIssue, "issue-1", "ISS-001", "user-1", "Dana", "OPEN → WORK_DONE", now).
		AddRow("evt-1", "tenant-1", models.AuditIssueCreated, models.EntityTypeIssue, "issue-1", "ISS-001", "user-1", "Dana", "Cracked slab edge", now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("tenant-1", models.EntityTypeIssue).
		WillReturnRows(rows)

	events, total, err := repo.Query(context.Background(), "tenant-1", models.AuditFilter{
		EntityType: models.EntityTypeIssue,
		Page:       1,
		Limit:      50,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-2", events[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryQuerySearchAndEventTypes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_events")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("entity_ref ILIKE $3 OR detail ILIKE $3 OR user_name ILIKE $3")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	events, total, err := repo.Query(context.Background(), "tenant-1", models.AuditFilter{
		EventTypes: []string{models.AuditMailCreated, models.AuditMailClosed},
		Search:     "RFI",
		Page:       1,
		Limit:      20,
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepositoryNext(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSequenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sequences (tenant_id, kind, value) VALUES ($1, $2, 1)")).
		WithArgs("tenant-1", "ISSUE").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(14))

	value, err := repo.Next(context.Background(), db, "tenant-1", "ISSUE")
	require.NoError(t, err)
	assert.Equal(t, 14, value)
	require.NoError(t, mock.ExpectationsWereMet())
}
