package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrace/cde-api/internal/models"
)

func TestDefaultDueDays(t *testing.T) {
	assert.Equal(t, 10, DefaultDueDays(models.MailTypeRFI))
	assert.Equal(t, 5, DefaultDueDays(models.MailTypeSI))
	assert.Equal(t, 7, DefaultDueDays(models.MailTypeQRY))
	assert.Equal(t, 7, DefaultDueDays(models.MailType("UNKNOWN")))
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	assert.True(t, IsOverdue(&past, models.MailStatusOpen, now))
	assert.False(t, IsOverdue(&future, models.MailStatusOpen, now))
	assert.False(t, IsOverdue(nil, models.MailStatusOpen, now))

	// Closed items are never overdue regardless of the due date.
	assert.False(t, IsOverdue(&past, models.MailStatusClosed, now))
}

func TestDaysUntilDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Nil(t, DaysUntilDue(nil, now))

	in3d := now.Add(72 * time.Hour)
	days := DaysUntilDue(&in3d, now)
	require.NotNil(t, days)
	assert.Equal(t, 3, *days)

	// Partial days round up.
	in2h := now.Add(2 * time.Hour)
	days = DaysUntilDue(&in2h, now)
	require.NotNil(t, days)
	assert.Equal(t, 1, *days)

	ago2d := now.Add(-48 * time.Hour)
	days = DaysUntilDue(&ago2d, now)
	require.NotNil(t, days)
	assert.Equal(t, -2, *days)
}

func TestFormatDueLabel(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		due    *time.Time
		status models.MailStatus
		want   string
	}{
		{"closed wins", ptrTime(now.Add(-72 * time.Hour)), models.MailStatusClosed, "Closed"},
		{"no due date", nil, models.MailStatusOpen, "No due date"},
		{"due today", ptrTime(now), models.MailStatusOpen, "Due today"},
		{"due tomorrow", ptrTime(now.Add(24 * time.Hour)), models.MailStatusOpen, "Due tomorrow"},
		{"remaining", ptrTime(now.Add(5 * 24 * time.Hour)), models.MailStatusOpen, "5d remaining"},
		{"overdue", ptrTime(now.Add(-3 * 24 * time.Hour)), models.MailStatusOpen, "3d overdue"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDueLabel(tc.due, tc.status, now))
		})
	}
}

func TestNumberFormats(t *testing.T) {
	assert.Equal(t, "RFI-001", MailNumber(models.MailTypeRFI, 1))
	assert.Equal(t, "SI-042", MailNumber(models.MailTypeSI, 42))
	assert.Equal(t, "QRY-1042", MailNumber(models.MailTypeQRY, 1042))
	assert.Equal(t, "ISS-007", IssueNumber(7))
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
