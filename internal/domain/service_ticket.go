package domain

import "time"

// TicketStatus enumerates lifecycle states for queue tickets.
type TicketStatus string

const (
	TicketStatusWaiting TicketStatus = "WAITING"
	TicketStatusCalled  TicketStatus = "CALLED"
	TicketStatusServing TicketStatus = "SERVING"
	TicketStatusClosed  TicketStatus = "CLOSED"
	TicketStatusSkipped TicketStatus = "SKIPPED"
)

// ticketTransitions maps an action to the statuses it may be applied from.
// Transitions only move forward; CLOSED and SKIPPED are terminal.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusCalled:  {TicketStatusWaiting},
	TicketStatusServing: {TicketStatusCalled},
	TicketStatusClosed:  {TicketStatusCalled, TicketStatusServing},
	TicketStatusSkipped: {TicketStatusWaiting, TicketStatusCalled},
}

// ValidTicketTransition reports whether a ticket may move from one status
// to another.
func ValidTicketTransition(from, to TicketStatus) bool {
	for _, allowed := range ticketTransitions[to] {
		if allowed == from {
			return true
		}
	}
	return false
}

// OpenTicketStatuses are the statuses in which a ticket can still back a sale.
var OpenTicketStatuses = []TicketStatus{
	TicketStatusWaiting,
	TicketStatusCalled,
	TicketStatusServing,
}

// ServiceTicket is a queued walk-in service request.
type ServiceTicket struct {
	ID               string
	TenantID         string
	BranchID         string
	ServiceType      string
	Code             string
	Seq              int64
	DayKey           string
	Status           TicketStatus
	AssignedToUserID *string
	Meta             map[string]any
	CreatedAt        time.Time
	CalledAt         *time.Time
	ServingAt        *time.Time
	ClosedAt         *time.Time
}

// Open reports whether the ticket is still consumable by a checkout.
func (t *ServiceTicket) Open() bool {
	for _, status := range OpenTicketStatuses {
		if t.Status == status {
			return true
		}
	}
	return false
}
