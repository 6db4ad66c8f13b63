package domain

// CheckoutMode classifies how a sale was initiated.
type CheckoutMode string

const (
	CheckoutModeDirect CheckoutMode = "DIRECT"
	CheckoutModeTicket CheckoutMode = "TICKET"
	CheckoutModeOnline CheckoutMode = "ONLINE"
)

// CheckoutResolution is the outcome of resolving a sale's origin before the
// work item is created.
type CheckoutResolution struct {
	Mode      CheckoutMode
	TicketID  *string
	SessionID *string
}
