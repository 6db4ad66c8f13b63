package dto

import (
	"time"

	"github.com/spec-kit/coordination-service/internal/domain"
)

// CreateTicketRequest is the check-in payload.
type CreateTicketRequest struct {
	ServiceType string         `json:"service_type"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// ClaimTicketRequest selects which queue to pull from.
type ClaimTicketRequest struct {
	ServiceType string `json:"service_type"`
}

// TicketResponse describes one service ticket.
type TicketResponse struct {
	ID          string              `json:"id"`
	ServiceType string              `json:"service_type"`
	Code        string              `json:"code"`
	Seq         int64               `json:"seq"`
	Status      domain.TicketStatus `json:"status"`
	AssignedTo  *string             `json:"assigned_to,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CalledAt    *time.Time          `json:"called_at,omitempty"`
	ServingAt   *time.Time          `json:"serving_at,omitempty"`
	ClosedAt    *time.Time          `json:"closed_at,omitempty"`
}
