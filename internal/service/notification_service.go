package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/coordination-service/internal/events"
)

// NotificationService is the fan-out sink for coordination events. Handlers
// only log; a failed or slow notification never affects the operation that
// produced the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketCalled,
		events.EventTicketStarted,
		events.EventTicketClosed,
		events.EventTicketSkipped,
		events.EventStageClaimed,
		events.EventStageStarted,
		events.EventStageDone,
		events.EventOrderCreated,
	} {
		n.dispatcher.Subscribe(eventType, n.handleEvent)
	}
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("notify",
		zap.String("event", string(event.Type)),
		zap.String("tenant_id", event.TenantID),
		zap.String("branch_id", event.BranchID),
		zap.Any("payload", event.Payload),
	)
	return nil
}
