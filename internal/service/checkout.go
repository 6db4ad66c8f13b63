package service

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/spec-kit/coordination-service/internal/domain"
	apperrors "github.com/spec-kit/coordination-service/pkg/util"
)

// CheckoutInput gathers everything needed to classify a sale's origin.
// The ticket, when referenced, has already been fetched by the caller;
// resolution never mutates it.
type CheckoutInput struct {
	TenantID      string
	BranchID      string
	Channel       string
	QueuesEnabled bool
	QueueKey      string
	TicketID      *string
	Ticket        *domain.ServiceTicket
}

// ChannelOnline marks sales arriving from an online storefront rather than
// the counter.
const ChannelOnline = "online"

// ResolveCheckoutMode decides between a direct counter sale, a
// queue-ticket sale and an online sale, validating ticket consistency in a
// fixed order before any order is created.
func ResolveCheckoutMode(in CheckoutInput) (domain.CheckoutResolution, error) {
	if in.Channel == ChannelOnline {
		if in.TicketID != nil {
			return domain.CheckoutResolution{}, apperrors.NewCheckoutError(
				"TICKET_NOT_ALLOWED", "online sales cannot reference a queue ticket", http.StatusConflict)
		}
		return domain.CheckoutResolution{Mode: domain.CheckoutModeOnline}, nil
	}

	if !in.QueuesEnabled {
		if in.TicketID != nil {
			return domain.CheckoutResolution{}, apperrors.NewCheckoutError(
				"TICKET_NOT_ALLOWED", "ticket queues are disabled for this tenant", http.StatusConflict)
		}
		sessionID := uuid.NewString()
		return domain.CheckoutResolution{Mode: domain.CheckoutModeDirect, SessionID: &sessionID}, nil
	}

	if in.TicketID == nil {
		return domain.CheckoutResolution{}, apperrors.NewCheckoutError(
			"TICKET_REQUIRED", "a queue ticket is required for this sale", http.StatusBadRequest)
	}
	ticket := in.Ticket
	if ticket == nil || ticket.TenantID != in.TenantID || ticket.BranchID != in.BranchID {
		return domain.CheckoutResolution{}, apperrors.NewCheckoutError(
			"TICKET_NOT_FOUND", "ticket not found", http.StatusNotFound)
	}
	if !ticket.Open() {
		return domain.CheckoutResolution{}, apperrors.NewCheckoutError(
			"TICKET_NOT_OPEN", "ticket is not in a consumable status", http.StatusConflict)
	}
	if in.QueueKey != "" && ticket.ServiceType != in.QueueKey {
		return domain.CheckoutResolution{}, apperrors.NewCheckoutError(
			"TICKET_WRONG_QUEUE", "ticket belongs to a different queue", http.StatusConflict)
	}

	return domain.CheckoutResolution{Mode: domain.CheckoutModeTicket, TicketID: in.TicketID}, nil
}
