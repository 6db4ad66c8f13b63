package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/coordination-service/internal/domain"
	"github.com/spec-kit/coordination-service/internal/events"
	"github.com/spec-kit/coordination-service/internal/repository"
	"github.com/spec-kit/coordination-service/internal/tenant"
	apperrors "github.com/spec-kit/coordination-service/pkg/util"
)

// OrderService finalizes sales into work items entering the stage pipeline.
type OrderService struct {
	workItems  repository.WorkItemRepository
	tickets    repository.TicketRepository
	settings   tenant.SettingsProvider
	numbering  *Numbering
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	WorkItemRepo repository.WorkItemRepository
	TicketRepo   repository.TicketRepository
	Settings     tenant.SettingsProvider
	Numbering    *Numbering
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// OrderCreateInput describes a finalized sale.
type OrderCreateInput struct {
	TicketID    *string
	ServiceType string
	Channel     string
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		workItems:  deps.WorkItemRepo,
		tickets:    deps.TicketRepo,
		settings:   deps.Settings,
		numbering:  deps.Numbering,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateOrder resolves the sale's checkout mode, mints the order number and
// creates the work item at the first enabled pipeline stage. The referenced
// ticket is only read here; closing it remains a separate queue operation.
func (s *OrderService) CreateOrder(ctx context.Context, op Operator, input OrderCreateInput) (*domain.WorkItem, error) {
	settings, err := s.settings.Operations(ctx, op.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var ticket *domain.ServiceTicket
	if input.TicketID != nil {
		ticket, err = s.tickets.GetByID(ctx, *input.TicketID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}

	resolution, err := ResolveCheckoutMode(CheckoutInput{
		TenantID:      op.TenantID,
		BranchID:      op.BranchID,
		Channel:       input.Channel,
		QueuesEnabled: settings.QueuesEnabled,
		QueueKey:      input.ServiceType,
		TicketID:      input.TicketID,
		Ticket:        ticket,
	})
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.numbering.BuildOrderNumber(ctx, op.TenantID, op.BranchID, settings.OrderNumberFmt)
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}

	firstStage := settings.FirstEnabledStage()
	item := &domain.WorkItem{
		TenantID:        op.TenantID,
		BranchID:        op.BranchID,
		OrderNumber:     orderNumber,
		CheckoutMode:    resolution.Mode,
		SourceTicketID:  resolution.TicketID,
		SessionID:       resolution.SessionID,
		CurrentStageKey: &firstStage,
	}
	if err := s.workItems.Create(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishCreated(ctx, op, item, firstStage)
	return item, nil
}

func (s *OrderService) publishCreated(ctx context.Context, op Operator, item *domain.WorkItem, firstStage string) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventOrderCreated,
		TenantID:  item.TenantID,
		BranchID:  item.BranchID,
		ActorID:   op.UserID,
		Timestamp: time.Now().UTC(),
		Payload: events.OrderPayload{
			WorkItemID:   item.ID,
			OrderNumber:  item.OrderNumber,
			CheckoutMode: item.CheckoutMode,
			FirstStage:   firstStage,
		},
	})
	if err != nil {
		s.logger.Warn("event publish failed", zap.String("event", string(events.EventOrderCreated)), zap.Error(err))
	}
}
