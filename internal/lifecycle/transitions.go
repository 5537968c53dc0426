// Package lifecycle holds the pure state-machine rules for compliance
// artifacts: which status moves are legal per entity kind, the workflow
// template catalog, and correspondence SLA arithmetic. Nothing in this
// package touches storage.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/sitetrace/cde-api/internal/models"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

// EntityKind selects a transition table.
type EntityKind string

const (
	KindIssue    EntityKind = "ISSUE"
	KindMail     EntityKind = "MAIL"
	KindDocument EntityKind = "DOCUMENT"
)

var issueTransitions = map[models.IssueStatus][]models.IssueStatus{
	models.IssueStatusOpen:     {models.IssueStatusWorkDone, models.IssueStatusClosed},
	models.IssueStatusWorkDone: {models.IssueStatusInspect, models.IssueStatusOpen},
	models.IssueStatusInspect:  {models.IssueStatusClosed, models.IssueStatusOpen},
	models.IssueStatusClosed:   {models.IssueStatusOpen},
}

// Mail closing is one-way: no reopen edge exists. RESPONDED is only
// reachable through AddResponse, never through a direct status write.
var mailTransitions = map[models.MailStatus][]models.MailStatus{
	models.MailStatusOpen:      {models.MailStatusClosed},
	models.MailStatusResponded: {models.MailStatusClosed},
	models.MailStatusClosed:    {},
}

var documentTransitions = map[models.DocumentStatus][]models.DocumentStatus{
	models.DocumentStatusDraft:       {models.DocumentStatusUnderReview},
	models.DocumentStatusUnderReview: {models.DocumentStatusApproved, models.DocumentStatusDraft},
	models.DocumentStatusApproved:    {models.DocumentStatusSuperseded},
	models.DocumentStatusSuperseded:  {},
}

// KnownStatus reports whether the status belongs to the kind's
// enumerated set at all.
func KnownStatus(kind EntityKind, status string) bool {
	switch kind {
	case KindIssue:
		_, ok := issueTransitions[models.IssueStatus(status)]
		return ok
	case KindMail:
		_, ok := mailTransitions[models.MailStatus(status)]
		return ok
	case KindDocument:
		_, ok := documentTransitions[models.DocumentStatus(status)]
		return ok
	}
	return false
}

// CanTransition reports whether from -> to is a legal move for the kind.
func CanTransition(kind EntityKind, from, to string) bool {
	switch kind {
	case KindIssue:
		return contains(issueTransitions[models.IssueStatus(from)], models.IssueStatus(to))
	case KindMail:
		return contains(mailTransitions[models.MailStatus(from)], models.MailStatus(to))
	case KindDocument:
		return contains(documentTransitions[models.DocumentStatus(from)], models.DocumentStatus(to))
	}
	return false
}

// CheckTransition validates a requested move. Status membership is
// checked before the table is consulted, so an unknown target yields
// InvalidStatus rather than InvalidTransition.
func CheckTransition(kind EntityKind, from, to string) error {
	if !KnownStatus(kind, to) {
		return appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("unknown %s status: %s", kind, to))
	}
	if !CanTransition(kind, from, to) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot transition %s from %s to %s", kind, from, to))
	}
	return nil
}

// ApplyIssueTransition validates and applies a status change to the
// issue in memory, including the closed_at side effects. The caller
// persists the result.
func ApplyIssueTransition(issue *models.Issue, to models.IssueStatus, now time.Time) error {
	if err := CheckTransition(KindIssue, string(issue.Status), string(to)); err != nil {
		return err
	}
	if to == models.IssueStatusClosed {
		issue.ClosedAt = &now
	}
	if to == models.IssueStatusOpen {
		issue.ClosedAt = nil
	}
	issue.Status = to
	return nil
}

// TransitionDetail renders the audit detail string for a status change.
func TransitionDetail(from, to string) string {
	return fmt.Sprintf("%s → %s", from, to)
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
