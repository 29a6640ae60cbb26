package workflow

import (
	"fmt"
	"strings"
	"time"
)

// The functions in this file decide transitions only. They never mutate the
// entity they are given and never touch storage or notifications.

func ValidatePayload(family Family, payload Payload) error {
	if !family.Valid() {
		return ValidationError("unknown family", map[string]string{"family": "must be subject, report or defense"})
	}

	missing := map[string]string{}
	for _, field := range family.RequiredFields() {
		if !present(payload[field]) {
			missing[field] = "required"
		}
	}
	if len(missing) > 0 {
		return ValidationError("missing required fields", missing)
	}
	return nil
}

func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	default:
		return true
	}
}

// New builds a freshly submitted entity in the family's initial status.
func New(id string, family Family, ownerID string, payload Payload, now time.Time) (Entity, error) {
	if err := ValidatePayload(family, payload); err != nil {
		return Entity{}, err
	}
	if strings.TrimSpace(ownerID) == "" {
		return Entity{}, ValidationError("owner is required", map[string]string{"ownerId": "required"})
	}

	return Entity{
		ID:        id,
		Family:    family,
		OwnerID:   ownerID,
		Status:    family.Initial(),
		Payload:   payload.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Acknowledge moves a freshly submitted subject or defense under review.
func Acknowledge(e Entity, now time.Time) (Entity, error) {
	spec := e.Family.spec()
	if spec.underReview == "" {
		return Entity{}, InvalidStateError(fmt.Sprintf("%s has no review stage", e.Family))
	}
	if e.Status != spec.initial {
		return Entity{}, InvalidStateError(fmt.Sprintf("cannot acknowledge %s in status %s", e.Family, e.Status))
	}

	next := e
	next.Status = spec.underReview
	next.UpdatedAt = now
	return next, nil
}

func Review(e Entity, decision Decision, reason string, now time.Time) (Entity, error) {
	reason = strings.TrimSpace(reason)
	switch decision {
	case DecisionApprove:
	case DecisionReject:
		if reason == "" {
			return Entity{}, ValidationError("a reason is required to reject", map[string]string{"reason": "required"})
		}
	default:
		return Entity{}, ValidationError("invalid decision", map[string]string{"decision": "must be approve or reject"})
	}

	if !e.Family.IsReviewable(e.Status) {
		return Entity{}, InvalidStateError(fmt.Sprintf("cannot review %s in status %s", e.Family, e.Status))
	}

	next := e
	next.UpdatedAt = now
	if decision == DecisionApprove {
		next.Status = e.Family.spec().approved
		next.Feedback = ""
	} else {
		next.Status = StatusRejected
		next.Feedback = reason
	}
	return next, nil
}

// Assign sets the supervisor (subject) or jury (defense). changed is false
// when the entity already had this assignee and status.
func Assign(e Entity, assigneeID string, now time.Time) (next Entity, changed bool, err error) {
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return Entity{}, false, ValidationError("assignee is required", map[string]string{"assigneeId": "required"})
	}

	spec := e.Family.spec()
	if !containsStatus(spec.assignable, e.Status) {
		return Entity{}, false, InvalidStateError(fmt.Sprintf("cannot assign %s in status %s", e.Family, e.Status))
	}

	next = e
	next.AssigneeID = assigneeID
	if spec.assigned != "" {
		next.Status = spec.assigned
	}
	if next.AssigneeID == e.AssigneeID && next.Status == e.Status {
		return e, false, nil
	}
	next.UpdatedAt = now
	return next, true, nil
}

// Complete closes a scheduled defense once it has been held.
func Complete(e Entity, now time.Time) (Entity, error) {
	spec := e.Family.spec()
	if spec.completed == "" {
		return Entity{}, InvalidStateError(fmt.Sprintf("%s cannot be completed", e.Family))
	}
	if e.Status != spec.approved {
		return Entity{}, InvalidStateError(fmt.Sprintf("cannot complete %s in status %s", e.Family, e.Status))
	}

	next := e
	next.Status = spec.completed
	next.UpdatedAt = now
	return next, nil
}

// Resubmit replaces the payload of a rejected entity and sends it back to the
// family's initial status with feedback cleared.
func Resubmit(e Entity, payload Payload, now time.Time) (Entity, error) {
	if e.Status != StatusRejected {
		return Entity{}, InvalidStateError(fmt.Sprintf("only rejected %s can be resubmitted", e.Family))
	}
	if err := ValidatePayload(e.Family, payload); err != nil {
		return Entity{}, err
	}

	next := e
	next.Payload = payload.Clone()
	next.Status = e.Family.Initial()
	next.Feedback = ""
	next.UpdatedAt = now
	return next, nil
}

func CheckRemovable(e Entity) error {
	if e.Family.IsLocked(e.Status) {
		return InvalidStateError(fmt.Sprintf("cannot remove %s in status %s", e.Family, e.Status))
	}
	return nil
}
