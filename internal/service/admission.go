package service

import (
	"context"

	"github.com/spec-kit/coordination-service/internal/repository"
)

// AdmissionControl caps how many units of work one operator may hold at a
// time. An operator's active load is their ASSIGNED/IN_PROGRESS stage
// assignments plus their CALLED/SERVING tickets.
//
// The count and the subsequent claim are two separate statements (the load
// spans two tables), so a burst of concurrent claims from the same operator
// can overshoot the limit by a small margin. That overshoot is accepted;
// the per-item mutual exclusion is unaffected.
type AdmissionControl struct {
	assignments repository.StageAssignmentRepository
	tickets     repository.TicketRepository
}

// NewAdmissionControl constructs the service.
func NewAdmissionControl(assignments repository.StageAssignmentRepository, tickets repository.TicketRepository) *AdmissionControl {
	return &AdmissionControl{assignments: assignments, tickets: tickets}
}

// CanClaim reports whether the operator is under the role's concurrent
// task ceiling. A ceiling of zero or below means the role is uncapped.
func (a *AdmissionControl) CanClaim(ctx context.Context, tenantID, branchID, userID string, maxActiveForRole int) (bool, int, error) {
	if maxActiveForRole <= 0 {
		return true, 0, nil
	}
	stageCount, err := a.assignments.CountActiveForOperator(ctx, tenantID, branchID, userID)
	if err != nil {
		return false, 0, err
	}
	ticketCount, err := a.tickets.CountActiveForOperator(ctx, tenantID, branchID, userID)
	if err != nil {
		return false, 0, err
	}
	active := stageCount + ticketCount
	return active < maxActiveForRole, active, nil
}
