package models

import (
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
)

type Notification struct {
	ID          string             `json:"id" db:"id"`
	RecipientID string             `json:"recipient_id" db:"recipient_id"`
	EventKind   workflow.EventKind `json:"event_kind" db:"event_kind"`
	EntityID    string             `json:"entity_id" db:"entity_id"`
	Family      workflow.Family    `json:"family" db:"family"`
	Status      workflow.Status    `json:"status" db:"status"`
	Message     string             `json:"message" db:"message"`
	IsRead      bool               `json:"is_read" db:"is_read"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
}

type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	Unread        int            `json:"unread"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}
