package workflow

import (
	"strings"
	"time"
)

// Payload holds the family-specific descriptive fields. Only the required
// keys are checked; everything else is carried through untouched.
type Payload map[string]any

func (p Payload) Clone() Payload {
	if p == nil {
		return Payload{}
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the value under key when it is a string, trimmed.
func (p Payload) String(key string) string {
	v, ok := p[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

type Entity struct {
	ID         string    `json:"id"`
	Family     Family    `json:"family"`
	OwnerID    string    `json:"ownerId"`
	Status     Status    `json:"status"`
	Payload    Payload   `json:"payload"`
	Feedback   string    `json:"feedback,omitempty"`
	AssigneeID string    `json:"assignee,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Title picks a short human label for notifications.
func (e Entity) Title() string {
	for _, key := range []string{"title", "fileUrl", "preferredDate"} {
		if v := e.Payload.String(key); v != "" {
			return v
		}
	}
	return e.ID
}

type EventKind string

const (
	EventSubmitted    EventKind = "submitted"
	EventAcknowledged EventKind = "acknowledged"
	EventApproved     EventKind = "approved"
	EventRejected     EventKind = "rejected"
	EventResubmitted  EventKind = "resubmitted"
	EventAssigned     EventKind = "assigned"
	EventCompleted    EventKind = "completed"
)

// Summary is what a notification carries about an entity.
type Summary struct {
	EntityID   string `json:"entity_id"`
	Family     Family `json:"family"`
	OwnerID    string `json:"owner_id"`
	Status     Status `json:"status"`
	Title      string `json:"title"`
	Feedback   string `json:"feedback,omitempty"`
	AssigneeID string `json:"assignee_id,omitempty"`
}

func (e Entity) Summary() Summary {
	return Summary{
		EntityID:   e.ID,
		Family:     e.Family,
		OwnerID:    e.OwnerID,
		Status:     e.Status,
		Title:      e.Title(),
		Feedback:   e.Feedback,
		AssigneeID: e.AssigneeID,
	}
}
