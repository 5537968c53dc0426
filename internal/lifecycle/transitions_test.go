package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrace/cde-api/internal/models"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

func TestIssueTransitionTable(t *testing.T) {
	statuses := []models.IssueStatus{
		models.IssueStatusOpen,
		models.IssueStatusWorkDone,
		models.IssueStatusInspect,
		models.IssueStatusClosed,
	}
	allowed := map[models.IssueStatus][]models.IssueStatus{
		models.IssueStatusOpen:     {models.IssueStatusWorkDone, models.IssueStatusClosed},
		models.IssueStatusWorkDone: {models.IssueStatusInspect, models.IssueStatusOpen},
		models.IssueStatusInspect:  {models.IssueStatusClosed, models.IssueStatusOpen},
		models.IssueStatusClosed:   {models.IssueStatusOpen},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := false
			for _, legal := range allowed[from] {
				if legal == to {
					want = true
				}
			}
			got := CanTransition(KindIssue, string(from), string(to))
			assert.Equal(t, want, got, "%s -> %s", from, to)
		}
	}
}

func TestMailTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(KindMail, string(models.MailStatusOpen), string(models.MailStatusClosed)))
	assert.True(t, CanTransition(KindMail, string(models.MailStatusResponded), string(models.MailStatusClosed)))

	// No reopen path and no direct move into RESPONDED.
	assert.False(t, CanTransition(KindMail, string(models.MailStatusClosed), string(models.MailStatusOpen)))
	assert.False(t, CanTransition(KindMail, string(models.MailStatusClosed), string(models.MailStatusResponded)))
	assert.False(t, CanTransition(KindMail, string(models.MailStatusOpen), string(models.MailStatusResponded)))
}

func TestDocumentTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(KindDocument, string(models.DocumentStatusDraft), string(models.DocumentStatusUnderReview)))
	assert.True(t, CanTransition(KindDocument, string(models.DocumentStatusUnderReview), string(models.DocumentStatusApproved)))
	assert.True(t, CanTransition(KindDocument, string(models.DocumentStatusUnderReview), string(models.DocumentStatusDraft)))
	assert.True(t, CanTransition(KindDocument, string(models.DocumentStatusApproved), string(models.DocumentStatusSuperseded)))

	assert.False(t, CanTransition(KindDocument, string(models.DocumentStatusDraft), string(models.DocumentStatusApproved)))
	assert.False(t, CanTransition(KindDocument, string(models.DocumentStatusSuperseded), string(models.DocumentStatusDraft)))
	assert.False(t, CanTransition(KindDocument, string(models.DocumentStatusApproved), string(models.DocumentStatusDraft)))
}

func TestCheckTransitionUnknownStatusWinsOverIllegalMove(t *testing.T) {
	err := CheckTransition(KindIssue, string(models.IssueStatusOpen), "BOGUS")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErr.Code)
}

func TestCheckTransitionIllegalMove(t *testing.T) {
	err := CheckTransition(KindIssue, string(models.IssueStatusOpen), string(models.IssueStatusInspect))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestApplyIssueTransitionSetsClosedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issue := &models.Issue{Status: models.IssueStatusOpen}

	require.NoError(t, ApplyIssueTransition(issue, models.IssueStatusClosed, now))
	assert.Equal(t, models.IssueStatusClosed, issue.Status)
	require.NotNil(t, issue.ClosedAt)
	assert.Equal(t, now, *issue.ClosedAt)

	// Reopening clears the close timestamp.
	require.NoError(t, ApplyIssueTransition(issue, models.IssueStatusOpen, now.Add(time.Hour)))
	assert.Equal(t, models.IssueStatusOpen, issue.Status)
	assert.Nil(t, issue.ClosedAt)
}

func TestApplyIssueTransitionRejectsIllegalMove(t *testing.T) {
	issue := &models.Issue{Status: models.IssueStatusOpen}
	err := ApplyIssueTransition(issue, models.IssueStatusInspect, time.Now())
	require.Error(t, err)
	assert.Equal(t, models.IssueStatusOpen, issue.Status)
	assert.Nil(t, issue.ClosedAt)
}

func TestTransitionDetail(t *testing.T) {
	assert.Equal(t, "OPEN → WORK_DONE", TransitionDetail("OPEN", "WORK_DONE"))
}
