package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/coordination-service/internal/domain"
	"github.com/spec-kit/coordination-service/internal/events"
	"github.com/spec-kit/coordination-service/internal/repository"
	"github.com/spec-kit/coordination-service/internal/tenant"
	apperrors "github.com/spec-kit/coordination-service/pkg/util"
)

// QueueService runs the walk-in ticket queue lifecycle.
type QueueService struct {
	tickets     repository.TicketRepository
	sessions    repository.SessionRepository
	settings    tenant.SettingsProvider
	memberships tenant.MembershipChecker
	admission   *AdmissionControl
	numbering   *Numbering
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// QueueDependencies bundles collaborators for the queue service.
type QueueDependencies struct {
	TicketRepo  repository.TicketRepository
	SessionRepo repository.SessionRepository
	Settings    tenant.SettingsProvider
	Memberships tenant.MembershipChecker
	Admission   *AdmissionControl
	Numbering   *Numbering
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewQueueService constructs the service.
func NewQueueService(deps QueueDependencies) *QueueService {
	return &QueueService{
		tickets:     deps.TicketRepo,
		sessions:    deps.SessionRepo,
		settings:    deps.Settings,
		memberships: deps.Memberships,
		admission:   deps.Admission,
		numbering:   deps.Numbering,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// Create checks in a customer: mints the next ticket code for the queue and
// persists the ticket in WAITING.
func (s *QueueService) Create(ctx context.Context, tenantID, branchID, serviceType string, meta map[string]any) (*domain.ServiceTicket, error) {
	if strings.TrimSpace(serviceType) == "" {
		return nil, apperrors.NewValidationError("service_type required", nil)
	}
	settings, err := s.settings.Operations(ctx, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	queue, ok := settings.QueueByKey(serviceType)
	if !ok || !queue.Enabled {
		return nil, apperrors.NewDomainError("QUEUE_DISABLED", "queue is not enabled for this tenant", http.StatusForbidden, map[string]any{"service_type": serviceType})
	}

	number, err := s.numbering.BuildTicketNumber(ctx, tenantID, branchID, serviceType, settings.TicketCodeFmt, queue.TicketPrefix)
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}

	if meta == nil {
		meta = map[string]any{}
	}
	ticket := &domain.ServiceTicket{
		TenantID:    tenantID,
		BranchID:    branchID,
		ServiceType: serviceType,
		Code:        number.Code,
		Seq:         number.Seq,
		DayKey:      number.DayKey,
		Status:      domain.TicketStatusWaiting,
		Meta:        meta,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTicketCreated, Operator{TenantID: tenantID, BranchID: branchID}, ticket)
	return ticket, nil
}

// ClaimNext calls the oldest WAITING ticket of the queue for the operator.
// Returns NOT_FOUND when no ticket is waiting or the race was lost.
func (s *QueueService) ClaimNext(ctx context.Context, op Operator, serviceType string) (*domain.ServiceTicket, error) {
	settings, err := s.settings.Operations(ctx, op.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	queue, ok := settings.QueueByKey(serviceType)
	if !ok || !queue.Enabled {
		return nil, apperrors.NewNotFound("queue", map[string]any{"service_type": serviceType})
	}
	holds, err := s.memberships.HoldsRole(ctx, op.TenantID, op.BranchID, op.UserID, op.Role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !holds {
		return nil, apperrors.NewForbidden("operator does not hold a role at this branch")
	}
	ok, active, err := s.admission.CanClaim(ctx, op.TenantID, op.BranchID, op.UserID, settings.MaxActiveTasks[op.Role])
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewConflict("active task limit reached", map[string]any{
			"active": active,
			"limit":  settings.MaxActiveTasks[op.Role],
		})
	}

	ticket, err := s.tickets.ClaimNext(ctx, op.TenantID, op.BranchID, serviceType, op.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"service_type": serviceType})
	}
	s.updateSession(ctx, op, domain.OperatorStatusBusy, &domain.ActiveTask{Kind: domain.TaskKindTicket, TicketID: ticket.ID})
	s.publish(ctx, events.EventTicketCalled, op, ticket)
	return ticket, nil
}

// Start moves the operator's CALLED ticket to SERVING.
func (s *QueueService) Start(ctx context.Context, op Operator, ticketID string) (*domain.ServiceTicket, error) {
	ticket, err := s.tickets.Start(ctx, ticketID, op.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	s.publish(ctx, events.EventTicketStarted, op, ticket)
	return ticket, nil
}

// Close finishes the operator's CALLED or SERVING ticket.
func (s *QueueService) Close(ctx context.Context, op Operator, ticketID string) (*domain.ServiceTicket, error) {
	ticket, err := s.tickets.Close(ctx, ticketID, op.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	s.updateSession(ctx, op, domain.OperatorStatusAvailable, nil)
	s.publish(ctx, events.EventTicketClosed, op, ticket)
	return ticket, nil
}

// Skip removes a WAITING or CALLED ticket from the queue. Supervisory: no
// ownership guard.
func (s *QueueService) Skip(ctx context.Context, op Operator, ticketID string) (*domain.ServiceTicket, error) {
	ticket, err := s.tickets.Skip(ctx, op.TenantID, op.BranchID, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	s.publish(ctx, events.EventTicketSkipped, op, ticket)
	return ticket, nil
}

// ListWaiting returns the WAITING tickets of a queue for display boards.
func (s *QueueService) ListWaiting(ctx context.Context, tenantID, branchID, serviceType string, limit int) ([]domain.ServiceTicket, error) {
	tickets, err := s.tickets.ListWaiting(ctx, tenantID, branchID, serviceType, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *QueueService) updateSession(ctx context.Context, op Operator, status domain.OperatorStatus, task *domain.ActiveTask) {
	if s.sessions == nil {
		return
	}
	err := s.sessions.Put(ctx, &domain.OperatorSession{
		TenantID:   op.TenantID,
		BranchID:   op.BranchID,
		UserID:     op.UserID,
		Role:       op.Role,
		Status:     status,
		ActiveTask: task,
	})
	if err != nil {
		s.logger.Warn("session update failed", zap.String("user_id", op.UserID), zap.Error(err))
	}
}

func (s *QueueService) publish(ctx context.Context, eventType events.EventType, op Operator, ticket *domain.ServiceTicket) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		TenantID:  ticket.TenantID,
		BranchID:  ticket.BranchID,
		ActorID:   op.UserID,
		Timestamp: time.Now().UTC(),
		Payload: events.TicketPayload{
			TicketID:    ticket.ID,
			Code:        ticket.Code,
			ServiceType: ticket.ServiceType,
			Status:      ticket.Status,
		},
	})
	if err != nil {
		s.logger.Warn("event publish failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
