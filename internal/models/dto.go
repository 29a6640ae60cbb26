package models

import (
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
)

// Data Transfer Objects

type SubmitRequest struct {
	Payload workflow.Payload `json:"payload"`
}

type ResubmitRequest struct {
	Payload workflow.Payload `json:"payload"`
}

type ReviewRequest struct {
	Decision workflow.Decision `json:"decision"`
	Reason   string            `json:"reason,omitempty"`
}

type AssignRequest struct {
	AssigneeID string `json:"assigneeId"`
}

type EntityFilter struct {
	Status  workflow.Status
	OwnerID string
}

type EntitiesResponse struct {
	Entities []workflow.Entity `json:"entities"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type CreateActorRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GrantRoleRequest struct {
	Role  string `json:"role"`
	Scope string `json:"scope"`
}

type UploadReportFileRequest struct {
	FileName    string
	ContentType string
	Size        int64
}

type UploadReportFileResponse struct {
	Key        string    `json:"key"`
	FileURL    string    `json:"fileUrl"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}
