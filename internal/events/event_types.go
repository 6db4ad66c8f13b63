package events

import (
	"time"

	"github.com/spec-kit/coordination-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketCalled  EventType = "ticket_called"
	EventTicketStarted EventType = "ticket_started"
	EventTicketClosed  EventType = "ticket_closed"
	EventTicketSkipped EventType = "ticket_skipped"
	EventStageClaimed  EventType = "stage_claimed"
	EventStageStarted  EventType = "stage_started"
	EventStageDone     EventType = "stage_completed"
	EventOrderCreated  EventType = "order_created"
)

// Event represents a domain event emitted by services.
type Event struct {
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id"`
	BranchID  string      `json:"branch_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketPayload payload for ticket lifecycle events.
type TicketPayload struct {
	TicketID    string              `json:"ticket_id"`
	Code        string              `json:"code"`
	ServiceType string              `json:"service_type"`
	Status      domain.TicketStatus `json:"status"`
}

// StagePayload payload for stage transition events.
type StagePayload struct {
	WorkItemID string                  `json:"work_item_id"`
	StageKey   string                  `json:"stage_key"`
	Status     domain.AssignmentStatus `json:"status"`
	NextStage  string                  `json:"next_stage,omitempty"`
}

// OrderPayload payload for order creation.
type OrderPayload struct {
	WorkItemID   string              `json:"work_item_id"`
	OrderNumber  string              `json:"order_number"`
	CheckoutMode domain.CheckoutMode `json:"checkout_mode"`
	FirstStage   string              `json:"first_stage"`
}
