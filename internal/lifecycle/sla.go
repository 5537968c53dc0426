package lifecycle

import (
	"fmt"
	"math"
	"time"

	"github.com/sitetrace/cde-api/internal/models"
)

// DefaultDueDays returns the response SLA for a mail type.
func DefaultDueDays(mailType models.MailType) int {
	switch mailType {
	case models.MailTypeRFI:
		return 10
	case models.MailTypeSI:
		return 5
	case models.MailTypeQRY:
		return 7
	default:
		return 7
	}
}

// IsOverdue reports whether an open item has passed its due date.
// Closed items and items without a due date are never overdue.
func IsOverdue(due *time.Time, status models.MailStatus, now time.Time) bool {
	if due == nil || status == models.MailStatusClosed {
		return false
	}
	return due.Before(now)
}

// DaysUntilDue returns the whole days remaining until the due date,
// rounded up. Negative means overdue by that many days. Nil when there
// is no due date.
func DaysUntilDue(due *time.Time, now time.Time) *int {
	if due == nil {
		return nil
	}
	days := int(math.Ceil(due.Sub(now).Hours() / 24))
	return &days
}

// FormatDueLabel renders the display label for a mail item's due state.
func FormatDueLabel(due *time.Time, status models.MailStatus, now time.Time) string {
	if status == models.MailStatusClosed {
		return "Closed"
	}
	if due == nil {
		return "No due date"
	}
	days := *DaysUntilDue(due, now)
	switch {
	case days < 0:
		return fmt.Sprintf("%dd overdue", -days)
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	default:
		return fmt.Sprintf("%dd remaining", days)
	}
}

// MailNumber formats an allocated sequence value, e.g. RFI-001.
// Sequence values are per tenant and per type and are never reused.
func MailNumber(mailType models.MailType, seq int) string {
	return fmt.Sprintf("%s-%03d", mailType, seq)
}

// IssueNumber formats an allocated issue sequence value, e.g. ISS-014.
func IssueNumber(seq int) string {
	return fmt.Sprintf("ISS-%03d", seq)
}
