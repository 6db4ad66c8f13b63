package domain

import "time"

// OperatorStatus enumerates presence states for an operator session.
type OperatorStatus string

const (
	OperatorStatusAvailable OperatorStatus = "AVAILABLE"
	OperatorStatusBusy      OperatorStatus = "BUSY"
	OperatorStatusPaused    OperatorStatus = "PAUSED"
	OperatorStatusOffline   OperatorStatus = "OFFLINE"
)

// TaskKind distinguishes what an operator's active task points at.
type TaskKind string

const (
	TaskKindStage  TaskKind = "STAGE"
	TaskKindTicket TaskKind = "TICKET"
)

// ActiveTask references the work an operator currently holds.
type ActiveTask struct {
	Kind       TaskKind `json:"kind"`
	WorkItemID string   `json:"work_item_id,omitempty"`
	StageKey   string   `json:"stage_key,omitempty"`
	TicketID   string   `json:"ticket_id,omitempty"`
}

// OperatorSession is the presence record for one operator at one branch.
// It is written best effort after claims and closes; the claim itself is
// the source of truth.
type OperatorSession struct {
	TenantID   string         `json:"tenant_id"`
	BranchID   string         `json:"branch_id"`
	UserID     string         `json:"user_id"`
	Role       string         `json:"role"`
	Status     OperatorStatus `json:"status"`
	ActiveTask *ActiveTask    `json:"active_task,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
