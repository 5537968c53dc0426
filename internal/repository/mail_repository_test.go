package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrace/cde-api/internal/models"
)

func TestMailRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMailRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mail_items")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	due := time.Now().UTC().Add(10 * 24 * time.Hour)
	item := &models.MailItem{
		TenantID:   "tenant-1",
		MailNumber: "RFI-001",
		MailType:   models.MailTypeRFI,
		Subject:    "Reinforcement spacing at grid C",
		Status:     models.MailStatusOpen,
		DueDate:    &due,
		CreatedBy:  "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), db, item))
	assert.NotEmpty(t, item.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMailRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMailRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE mail_items SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	closedAt := time.Now().UTC()
	item := &models.MailItem{
		ID:       "mail-1",
		TenantID: "tenant-1",
		Status:   models.MailStatusClosed,
		ClosedAt: &closedAt,
	}
	require.NoError(t, repo.UpdateStatus(context.Background(), db, item))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMailRepositoryInsertResponse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMailRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mail_responses")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := &models.MailResponse{
		TenantID:   "tenant-1",
		MailID:     "mail-1",
		Body:       "Spacing confirmed at 150mm centres.",
		FromUserID: "user-2",
	}
	require.NoError(t, repo.InsertResponse(context.Background(), db, resp))
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMailRepositoryListResponsesOldestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMailRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "mail_id", "response_body", "from_user_id", "created_at"}).
		AddRow("resp-1", "tenant-1", "mail-1", "First reply", "user-2", now.Add(-time.Hour)).
		AddRow("resp-2", "tenant-1", "mail-1", "Second reply", "user-3", now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC")).
		WithArgs("tenant-1", "mail-1").
		WillReturnRows(rows)

	responses, err := repo.ListResponses(context.Background(), "tenant-1", "mail-1")
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, "resp-1", responses[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
