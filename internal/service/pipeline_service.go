package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/coordination-service/internal/domain"
	"github.com/spec-kit/coordination-service/internal/events"
	"github.com/spec-kit/coordination-service/internal/repository"
	"github.com/spec-kit/coordination-service/internal/tenant"
	apperrors "github.com/spec-kit/coordination-service/pkg/util"
)

// Operator identifies the authenticated caller of a coordination operation.
type Operator struct {
	TenantID string
	BranchID string
	UserID   string
	Role     string
}

// PipelineService moves work items through the tenant's stage pipeline.
type PipelineService struct {
	workItems   repository.WorkItemRepository
	assignments repository.StageAssignmentRepository
	sessions    repository.SessionRepository
	settings    tenant.SettingsProvider
	memberships tenant.MembershipChecker
	admission   *AdmissionControl
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// PipelineDependencies bundles collaborators for the pipeline service.
type PipelineDependencies struct {
	WorkItemRepo   repository.WorkItemRepository
	AssignmentRepo repository.StageAssignmentRepository
	SessionRepo    repository.SessionRepository
	Settings       tenant.SettingsProvider
	Memberships    tenant.MembershipChecker
	Admission      *AdmissionControl
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewPipelineService constructs the service.
func NewPipelineService(deps PipelineDependencies) *PipelineService {
	return &PipelineService{
		workItems:   deps.WorkItemRepo,
		assignments: deps.AssignmentRepo,
		sessions:    deps.SessionRepo,
		settings:    deps.Settings,
		memberships: deps.Memberships,
		admission:   deps.Admission,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// ListAtStage returns work items currently awaiting a claim at stageKey.
func (s *PipelineService) ListAtStage(ctx context.Context, op Operator, stageKey string, limit, offset int) ([]domain.WorkItem, error) {
	if _, err := s.stageForOperator(ctx, op, stageKey); err != nil {
		return nil, err
	}
	items, err := s.workItems.ListAtStage(ctx, op.TenantID, op.BranchID, stageKey, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ClaimNext atomically takes ownership of the oldest work item awaiting
// stageKey. Returns NOT_FOUND when nothing is claimable, which includes
// losing the race to another operator.
func (s *PipelineService) ClaimNext(ctx context.Context, op Operator, stageKey string) (*domain.StageAssignment, error) {
	stage, settings, err := s.stageWithSettings(ctx, op, stageKey)
	if err != nil {
		return nil, err
	}
	if err := s.checkAdmission(ctx, op, stage.Role, settings); err != nil {
		return nil, err
	}
	assignment, err := s.assignments.ClaimNext(ctx, op.TenantID, op.BranchID, stageKey, stage.Role, op.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assignment == nil {
		return nil, apperrors.NewNotFound("work item", map[string]any{"stage_key": stageKey})
	}
	s.afterClaim(ctx, op, assignment)
	return assignment, nil
}

// ClaimSpecific claims one identified work item at stageKey.
func (s *PipelineService) ClaimSpecific(ctx context.Context, op Operator, workItemID, stageKey string) (*domain.StageAssignment, error) {
	stage, settings, err := s.stageWithSettings(ctx, op, stageKey)
	if err != nil {
		return nil, err
	}
	if err := s.checkAdmission(ctx, op, stage.Role, settings); err != nil {
		return nil, err
	}
	assignment, err := s.assignments.ClaimSpecific(ctx, op.TenantID, op.BranchID, workItemID, stageKey, stage.Role, op.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assignment == nil {
		return nil, apperrors.NewNotFound("work item", map[string]any{"work_item_id": workItemID, "stage_key": stageKey})
	}
	s.afterClaim(ctx, op, assignment)
	return assignment, nil
}

// Start moves the caller's ASSIGNED entry to IN_PROGRESS.
func (s *PipelineService) Start(ctx context.Context, op Operator, workItemID, stageKey string) (*domain.StageAssignment, error) {
	assignment, err := s.assignments.Start(ctx, workItemID, stageKey, op.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assignment == nil {
		return nil, apperrors.NewNotFound("assignment", map[string]any{"work_item_id": workItemID, "stage_key": stageKey})
	}
	s.publish(ctx, events.EventStageStarted, op, events.StagePayload{
		WorkItemID: assignment.WorkItemID,
		StageKey:   assignment.StageKey,
		Status:     assignment.Status,
	})
	return assignment, nil
}

// Complete finishes the caller's entry for stageKey and advances the work
// item to the next enabled stage, or to the terminal sentinel when stageKey
// was the last one.
func (s *PipelineService) Complete(ctx context.Context, op Operator, workItemID, stageKey string) (*domain.StageAssignment, error) {
	settings, err := s.settings.Operations(ctx, op.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, ok := settings.StageByKey(stageKey); !ok {
		return nil, apperrors.NewNotFound("stage", map[string]any{"stage_key": stageKey})
	}
	next := settings.NextEnabledStage(stageKey)

	assignment, err := s.assignments.Complete(ctx, workItemID, stageKey, op.UserID, next)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assignment == nil {
		return nil, apperrors.NewNotFound("assignment", map[string]any{"work_item_id": workItemID, "stage_key": stageKey})
	}
	s.updateSession(ctx, op, domain.OperatorStatusAvailable, nil)
	s.publish(ctx, events.EventStageDone, op, events.StagePayload{
		WorkItemID: assignment.WorkItemID,
		StageKey:   assignment.StageKey,
		Status:     assignment.Status,
		NextStage:  next,
	})
	return assignment, nil
}

func (s *PipelineService) stageForOperator(ctx context.Context, op Operator, stageKey string) (domain.StageDefinition, error) {
	stage, _, err := s.stageWithSettings(ctx, op, stageKey)
	return stage, err
}

func (s *PipelineService) stageWithSettings(ctx context.Context, op Operator, stageKey string) (domain.StageDefinition, domain.OperationsSettings, error) {
	settings, err := s.settings.Operations(ctx, op.TenantID)
	if err != nil {
		return domain.StageDefinition{}, settings, apperrors.MapError(err)
	}
	stage, ok := settings.StageByKey(stageKey)
	if !ok || !stage.Enabled {
		return domain.StageDefinition{}, settings, apperrors.NewNotFound("stage", map[string]any{"stage_key": stageKey})
	}
	holds, err := s.memberships.HoldsRole(ctx, op.TenantID, op.BranchID, op.UserID, stage.Role)
	if err != nil {
		return domain.StageDefinition{}, settings, apperrors.MapError(err)
	}
	if !holds {
		return domain.StageDefinition{}, settings, apperrors.NewForbidden("operator does not hold the stage role")
	}
	return stage, settings, nil
}

func (s *PipelineService) checkAdmission(ctx context.Context, op Operator, role string, settings domain.OperationsSettings) error {
	ok, active, err := s.admission.CanClaim(ctx, op.TenantID, op.BranchID, op.UserID, settings.MaxActiveTasks[role])
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewConflict("active task limit reached", map[string]any{
			"active": active,
			"limit":  settings.MaxActiveTasks[role],
		})
	}
	return nil
}

func (s *PipelineService) afterClaim(ctx context.Context, op Operator, assignment *domain.StageAssignment) {
	s.updateSession(ctx, op, domain.OperatorStatusBusy, &domain.ActiveTask{
		Kind:       domain.TaskKindStage,
		WorkItemID: assignment.WorkItemID,
		StageKey:   assignment.StageKey,
	})
	s.publish(ctx, events.EventStageClaimed, op, events.StagePayload{
		WorkItemID: assignment.WorkItemID,
		StageKey:   assignment.StageKey,
		Status:     assignment.Status,
	})
}

// updateSession refreshes operator presence after a successful transition.
// The claim record is authoritative, so failures here are logged and
// swallowed.
func (s *PipelineService) updateSession(ctx context.Context, op Operator, status domain.OperatorStatus, task *domain.ActiveTask) {
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

func (s *PipelineService) publish(ctx context.Context, eventType events.EventType, op Operator, payload any) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		TenantID:  op.TenantID,
		BranchID:  op.BranchID,
		ActorID:   op.UserID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("event publish failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
