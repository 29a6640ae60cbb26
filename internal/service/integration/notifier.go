package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
)

// Notifier delivers one workflow notification. Callers treat it as
// fire-and-forget: errors are reported but never undo the transition.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, kind workflow.EventKind, summary workflow.Summary) error
}

type multiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier fans one notification out to every non-nil notifier and
// joins their errors.
func NewMultiNotifier(notifiers ...Notifier) Notifier {
	list := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	return &multiNotifier{notifiers: list}
}

func (m *multiNotifier) Notify(ctx context.Context, recipientID string, kind workflow.EventKind, summary workflow.Summary) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, recipientID, kind, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Message renders the short human text used by the inbox and as e-mail body.
func Message(kind workflow.EventKind, s workflow.Summary) string {
	switch kind {
	case workflow.EventSubmitted:
		return fmt.Sprintf("New %s submitted for review: %s", s.Family, s.Title)
	case workflow.EventResubmitted:
		return fmt.Sprintf("%s resubmitted for review: %s", capitalize(s.Family), s.Title)
	case workflow.EventAcknowledged:
		return fmt.Sprintf("Your %s %q is now under review", s.Family, s.Title)
	case workflow.EventApproved:
		return fmt.Sprintf("Your %s %q was approved (%s)", s.Family, s.Title, s.Status)
	case workflow.EventRejected:
		return fmt.Sprintf("Your %s %q was rejected: %s", s.Family, s.Title, s.Feedback)
	case workflow.EventAssigned:
		return fmt.Sprintf("Your %s %q was assigned to %s", s.Family, s.Title, s.AssigneeID)
	case workflow.EventCompleted:
		return fmt.Sprintf("Your %s %q is completed", s.Family, s.Title)
	default:
		return fmt.Sprintf("Your %s %q changed to %s", s.Family, s.Title, s.Status)
	}
}

func capitalize(f workflow.Family) string {
	s := string(f)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
