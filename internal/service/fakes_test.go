package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/coordination-service/internal/domain"
)

// The fakes below mirror the atomicity contract of the real repositories:
// every transition checks its guard and applies its mutation under one lock
// acquisition, so concurrent test claims race exactly like concurrent
// conditional updates do against the store.

type fakeSequenceRepo struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{counters: make(map[string]int64)}
}

func (f *fakeSequenceRepo) Next(_ context.Context, scope string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[scope]++
	return f.counters[scope], nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	order   []string
	tickets map[string]*domain.ServiceTicket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.ServiceTicket)}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.ServiceTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", f.seq)
	ticket.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	stored := *ticket
	f.tickets[ticket.ID] = &stored
	f.order = append(f.order, ticket.ID)
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.ServiceTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTicketRepo) ClaimNext(_ context.Context, tenantID, branchID, serviceType, userID string) (*domain.ServiceTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		t := f.tickets[id]
		if t.TenantID != tenantID || t.BranchID != branchID || t.ServiceType != serviceType {
			continue
		}
		if t.Status != domain.TicketStatusWaiting {
			continue
		}
		now := time.Now()
		t.Status = domain.TicketStatusCalled
		t.AssignedToUserID = &userID
		t.CalledAt = &now
		clone := *t
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeTicketRepo) Start(_ context.Context, ticketID, userID string) (*domain.ServiceTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketID]
	if !ok || t.Status != domain.TicketStatusCalled || t.AssignedToUserID == nil || *t.AssignedToUserID != userID {
		return nil, nil
	}
	now := time.Now()
	t.Status = domain.TicketStatusServing
	t.ServingAt = &now
	clone := *t
	return &clone, nil
}

func (f *fakeTicketRepo) Close(_ context.Context, ticketID, userID string) (*domain.ServiceTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketID]
	if !ok || t.AssignedToUserID == nil || *t.AssignedToUserID != userID {
		return nil, nil
	}
	if t.Status != domain.TicketStatusCalled && t.Status != domain.TicketStatusServing {
		return nil, nil
	}
	now := time.Now()
	t.Status = domain.TicketStatusClosed
	t.ClosedAt = &now
	clone := *t
	return &clone, nil
}

func (f *fakeTicketRepo) Skip(_ context.Context, tenantID, branchID, ticketID string) (*domain.ServiceTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketID]
	if !ok || t.TenantID != tenantID || t.BranchID != branchID {
		return nil, nil
	}
	if t.Status != domain.TicketStatusWaiting && t.Status != domain.TicketStatusCalled {
		return nil, nil
	}
	now := time.Now()
	t.Status = domain.TicketStatusSkipped
	t.ClosedAt = &now
	clone := *t
	return &clone, nil
}

func (f *fakeTicketRepo) CountActiveForOperator(_ context.Context, tenantID, branchID, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, t := range f.tickets {
		if t.TenantID != tenantID || t.BranchID != branchID {
			continue
		}
		if t.AssignedToUserID == nil || *t.AssignedToUserID != userID {
			continue
		}
		if t.Status == domain.TicketStatusCalled || t.Status == domain.TicketStatusServing {
			count++
		}
	}
	return count, nil
}

func (f *fakeTicketRepo) ListWaiting(_ context.Context, tenantID, branchID, serviceType string, limit int) ([]domain.ServiceTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.ServiceTicket
	for _, id := range f.order {
		t := f.tickets[id]
		if t.TenantID == tenantID && t.BranchID == branchID && t.ServiceType == serviceType && t.Status == domain.TicketStatusWaiting {
			result = append(result, *t)
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

type fakeWorkItemRepo struct {
	mu    sync.Mutex
	seq   int
	order []string
	items map[string]*domain.WorkItem
}

func newFakeWorkItemRepo() *fakeWorkItemRepo {
	return &fakeWorkItemRepo{items: make(map[string]*domain.WorkItem)}
}

func (f *fakeWorkItemRepo) Create(_ context.Context, item *domain.WorkItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	item.ID = fmt.Sprintf("work-%d", f.seq)
	item.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	item.UpdatedAt = item.CreatedAt
	stored := *item
	f.items[item.ID] = &stored
	f.order = append(f.order, item.ID)
	return nil
}

func (f *fakeWorkItemRepo) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (f *fakeWorkItemRepo) ListAtStage(_ context.Context, tenantID, branchID, stageKey string, limit, offset int) ([]domain.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.WorkItem
	for _, id := range f.order {
		item := f.items[id]
		if item.TenantID == tenantID && item.BranchID == branchID && item.AtStage(stageKey) {
			result = append(result, *item)
		}
	}
	return result, nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	seq         int
	assignments []*domain.StageAssignment
	items       *fakeWorkItemRepo
}

func newFakeAssignmentRepo(items *fakeWorkItemRepo) *fakeAssignmentRepo {
	return &fakeAssignmentRepo{items: items}
}

func (f *fakeAssignmentRepo) hasActiveLocked(workItemID, stageKey string) bool {
	for _, a := range f.assignments {
		if a.WorkItemID == workItemID && a.StageKey == stageKey &&
			(a.Status == domain.AssignmentStatusAssigned || a.Status == domain.AssignmentStatusInProgress) {
			return true
		}
	}
	return false
}

func (f *fakeAssignmentRepo) insertLocked(item *domain.WorkItem, stageKey, role, userID string) *domain.StageAssignment {
	f.seq++
	a := &domain.StageAssignment{
		ID:         fmt.Sprintf("assign-%d", f.seq),
		TenantID:   item.TenantID,
		BranchID:   item.BranchID,
		WorkItemID: item.ID,
		StageKey:   stageKey,
		Role:       role,
		AssignedTo: userID,
		Status:     domain.AssignmentStatusAssigned,
		AssignedAt: time.Now(),
	}
	f.assignments = append(f.assignments, a)
	clone := *a
	return &clone
}

func (f *fakeAssignmentRepo) ClaimNext(_ context.Context, tenantID, branchID, stageKey, role, userID string) (*domain.StageAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items.mu.Lock()
	defer f.items.mu.Unlock()
	for _, id := range f.items.order {
		item := f.items.items[id]
		if item.TenantID != tenantID || item.BranchID != branchID || !item.AtStage(stageKey) {
			continue
		}
		if f.hasActiveLocked(item.ID, stageKey) {
			continue
		}
		return f.insertLocked(item, stageKey, role, userID), nil
	}
	return nil, nil
}

func (f *fakeAssignmentRepo) ClaimSpecific(_ context.Context, tenantID, branchID, workItemID, stageKey, role, userID string) (*domain.StageAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items.mu.Lock()
	defer f.items.mu.Unlock()
	item, ok := f.items.items[workItemID]
	if !ok || item.TenantID != tenantID || item.BranchID != branchID {
		return nil, nil
	}
	if !item.AtStage(stageKey) || f.hasActiveLocked(workItemID, stageKey) {
		return nil, nil
	}
	return f.insertLocked(item, stageKey, role, userID), nil
}

func (f *fakeAssignmentRepo) Start(_ context.Context, workItemID, stageKey, userID string) (*domain.StageAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.WorkItemID == workItemID && a.StageKey == stageKey && a.AssignedTo == userID &&
			a.Status == domain.AssignmentStatusAssigned {
			now := time.Now()
			a.Status = domain.AssignmentStatusInProgress
			a.StartedAt = &now
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeAssignmentRepo) Complete(_ context.Context, workItemID, stageKey, userID, nextStageKey string) (*domain.StageAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.WorkItemID == workItemID && a.StageKey == stageKey && a.AssignedTo == userID &&
			(a.Status == domain.AssignmentStatusAssigned || a.Status == domain.AssignmentStatusInProgress) {
			now := time.Now()
			a.Status = domain.AssignmentStatusCompleted
			a.CompletedAt = &now
			f.items.mu.Lock()
			if item, ok := f.items.items[workItemID]; ok {
				next := nextStageKey
				item.CurrentStageKey = &next
				item.UpdatedAt = now
			}
			f.items.mu.Unlock()
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeAssignmentRepo) CountActiveForOperator(_ context.Context, tenantID, branchID, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.assignments {
		if a.TenantID == tenantID && a.BranchID == branchID && a.AssignedTo == userID &&
			(a.Status == domain.AssignmentStatusAssigned || a.Status == domain.AssignmentStatusInProgress) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAssignmentRepo) ListForWorkItem(_ context.Context, workItemID string) ([]domain.StageAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.StageAssignment
	for _, a := range f.assignments {
		if a.WorkItemID == workItemID {
			result = append(result, *a)
		}
	}
	return result, nil
}

type fakeSettingsProvider struct {
	settings domain.OperationsSettings
}

func (f *fakeSettingsProvider) Operations(context.Context, string) (domain.OperationsSettings, error) {
	return f.settings, nil
}

type fakeMembershipChecker struct {
	denied map[string]bool
}

func (f *fakeMembershipChecker) HoldsRole(_ context.Context, _, _, userID, role string) (bool, error) {
	if f.denied != nil && f.denied[userID+":"+role] {
		return false, nil
	}
	return true, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.OperatorSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.OperatorSession)}
}

func (f *fakeSessionRepo) Get(_ context.Context, tenantID, branchID, userID string) (*domain.OperatorSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[tenantID+":"+branchID+":"+userID]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSessionRepo) Put(_ context.Context, session *domain.OperatorSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *session
	f.sessions[session.TenantID+":"+session.BranchID+":"+session.UserID] = &clone
	return nil
}
