package dto

// CreateOrderRequest finalizes a sale into a work item.
type CreateOrderRequest struct {
	TicketID    *string `json:"ticket_id,omitempty"`
	ServiceType string  `json:"service_type,omitempty"`
	Channel     string  `json:"channel,omitempty"`
}
