package models

import "github.com/NourhenHamza/TalentGo-sub001/internal/workflow"

// WorkflowEvent is the message published for every status-changing
// transition and consumed by the mail worker.
type WorkflowEvent struct {
	RecipientID string             `json:"recipient_id"`
	EventKind   workflow.EventKind `json:"event_kind"`
	Entity      workflow.Summary   `json:"entity"`
	Timestamp   int64              `json:"timestamp"`
}
