package domain

import "time"

// StageTerminal is the sentinel stored in CurrentStageKey once every
// enabled stage of the pipeline has been completed.
const StageTerminal = "DONE"

// WorkItem is the unit of work (a finalized order) moving through the
// tenant's stage pipeline.
type WorkItem struct {
	ID              string
	TenantID        string
	BranchID        string
	OrderNumber     string
	CheckoutMode    CheckoutMode
	SourceTicketID  *string
	SessionID       *string
	CurrentStageKey *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AtStage reports whether the item is currently awaiting a claim on stageKey.
func (w *WorkItem) AtStage(stageKey string) bool {
	return w.CurrentStageKey != nil && *w.CurrentStageKey == stageKey
}

// Done reports whether the pipeline has been exhausted.
func (w *WorkItem) Done() bool {
	return w.CurrentStageKey == nil || *w.CurrentStageKey == StageTerminal
}
