package domain

// StageDefinition is one step in a tenant's ordered workflow pipeline.
type StageDefinition struct {
	Key     string `json:"key"`
	Role    string `json:"role"`
	Enabled bool   `json:"enabled"`
}

// QueueDefinition describes one walk-in service queue.
type QueueDefinition struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	TicketPrefix string `json:"ticketPrefix"`
	Enabled      bool   `json:"enabled"`
}

// OperationsSettings is the slice of tenant configuration this service reads.
type OperationsSettings struct {
	Stages         []StageDefinition `json:"stages"`
	Queues         []QueueDefinition `json:"queues"`
	QueuesEnabled  bool              `json:"queuesEnabled"`
	MaxActiveTasks map[string]int    `json:"maxActiveTasks"`
	OrderNumberFmt string            `json:"orderNumberFormat"`
	TicketCodeFmt  string            `json:"ticketCodeFormat"`
}

// QueueByKey returns the queue definition for a service type, if present.
func (s OperationsSettings) QueueByKey(key string) (QueueDefinition, bool) {
	for _, q := range s.Queues {
		if q.Key == key {
			return q, true
		}
	}
	return QueueDefinition{}, false
}

// StageByKey returns the stage definition for a stage key, if present.
func (s OperationsSettings) StageByKey(key string) (StageDefinition, bool) {
	for _, st := range s.Stages {
		if st.Key == key {
			return st, true
		}
	}
	return StageDefinition{}, false
}

// NextEnabledStage returns the key of the next enabled stage after stageKey
// in the ordered stage list, or StageTerminal when stageKey is the last
// enabled stage. Disabled stages are skipped.
func (s OperationsSettings) NextEnabledStage(stageKey string) string {
	idx := -1
	for i, st := range s.Stages {
		if st.Key == stageKey {
			idx = i
			break
		}
	}
	if idx < 0 {
		return StageTerminal
	}
	for _, st := range s.Stages[idx+1:] {
		if st.Enabled {
			return st.Key
		}
	}
	return StageTerminal
}

// FirstEnabledStage returns the entry stage for a new work item, or
// StageTerminal when the tenant has no enabled stages.
func (s OperationsSettings) FirstEnabledStage() string {
	for _, st := range s.Stages {
		if st.Enabled {
			return st.Key
		}
	}
	return StageTerminal
}

// Membership ties an operator to a role at a branch.
type Membership struct {
	TenantID string
	BranchID string
	UserID   string
	Role     string
	Active   bool
}
