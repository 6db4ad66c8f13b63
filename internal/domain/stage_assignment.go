package domain

import "time"

// AssignmentStatus enumerates lifecycle states of a stage assignment.
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "ASSIGNED"
	AssignmentStatusInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentStatusCompleted  AssignmentStatus = "COMPLETED"
)

// ActiveAssignmentStatuses are the statuses covered by the one-operator-per-stage
// invariant: at most one assignment per (work item, stage) may hold one of these.
var ActiveAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusInProgress,
}

// StageAssignment is an append-only record of one operator working one
// stage of one work item.
type StageAssignment struct {
	ID          string
	TenantID    string
	BranchID    string
	WorkItemID  string
	StageKey    string
	Role        string
	AssignedTo  string
	Status      AssignmentStatus
	AssignedAt  time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}
