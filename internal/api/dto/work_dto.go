package dto

import (
	"time"

	"github.com/spec-kit/coordination-service/internal/domain"
)

// Envelope is the uniform response shape.
type Envelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WorkItemResponse describes one work item.
type WorkItemResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	CheckoutMode    domain.CheckoutMode `json:"checkout_mode"`
	SourceTicketID  *string             `json:"source_ticket_id,omitempty"`
	CurrentStageKey *string             `json:"current_stage_key"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// StageAssignmentResponse describes one stage assignment.
type StageAssignmentResponse struct {
	ID          string                  `json:"id"`
	WorkItemID  string                  `json:"work_item_id"`
	StageKey    string                  `json:"stage_key"`
	Role        string                  `json:"role"`
	AssignedTo  string                  `json:"assigned_to"`
	Status      domain.AssignmentStatus `json:"status"`
	AssignedAt  time.Time               `json:"assigned_at"`
	StartedAt   *time.Time              `json:"started_at,omitempty"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
}
