package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/coordination-service/internal/domain"
	"github.com/spec-kit/coordination-service/internal/events"
	apperrors "github.com/spec-kit/coordination-service/pkg/util"
)

func queueSettings() domain.OperationsSettings {
	return domain.OperationsSettings{
		QueuesEnabled: true,
		Queues: []domain.QueueDefinition{
			{Key: "checkout", Label: "Checkout", TicketPrefix: "C", Enabled: true},
			{Key: "returns", Label: "Returns", TicketPrefix: "R", Enabled: false},
		},
		MaxActiveTasks: map[string]int{"CASHIER": 1},
	}
}

func newQueueFixture(settings domain.OperationsSettings) (*QueueService, *fakeTicketRepo) {
	tickets := newFakeTicketRepo()
	items := newFakeWorkItemRepo()
	return NewQueueService(QueueDependencies{
		TicketRepo:  tickets,
		SessionRepo: newFakeSessionRepo(),
		Settings:    &fakeSettingsProvider{settings: settings},
		Memberships: &fakeMembershipChecker{},
		Admission:   NewAdmissionControl(newFakeAssignmentRepo(items), tickets),
		Numbering:   NewNumbering(newFakeSequenceRepo()),
		Dispatcher:  events.NewInMemoryDispatcher(),
		Logger:      zap.NewNop(),
	}), tickets
}

func cashier(user string) Operator {
	return Operator{TenantID: "t1", BranchID: "b1", UserID: user, Role: "CASHIER"}
}

func TestCreateTicketMintsCode(t *testing.T) {
	queue, _ := newQueueFixture(queueSettings())

	ticket, err := queue.Create(context.Background(), "t1", "b1", "checkout", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusWaiting, ticket.Status)
	assert.Equal(t, "C-0001", ticket.Code)
	assert.Equal(t, int64(1), ticket.Seq)

	second, err := queue.Create(context.Background(), "t1", "b1", "checkout", nil)
	require.NoError(t, err)
	assert.Equal(t, "C-0002", second.Code)
}

func TestCreateTicketQueueDisabled(t *testing.T) {
	queue, _ := newQueueFixture(queueSettings())

	_, err := queue.Create(context.Background(), "t1", "b1", "returns", nil)
	require.Error(t, err)
	assert.Equal(t, "QUEUE_DISABLED", apperrors.ToDomainError(err).Code)

	_, err = queue.Create(context.Background(), "t1", "b1", "unknown", nil)
	require.Error(t, err)
	assert.Equal(t, "QUEUE_DISABLED", apperrors.ToDomainError(err).Code)
}

func TestClaimNextFIFO(t *testing.T) {
	ctx := context.Background()
	queue, _ := newQueueFixture(queueSettings())

	first, err := queue.Create(ctx, "t1", "b1", "checkout", nil)
	require.NoError(t, err)
	_, err = queue.Create(ctx, "t1", "b1", "checkout", nil)
	require.NoError(t, err)

	claimed, err := queue.ClaimNext(ctx, cashier("u1"), "checkout")
	require.NoError(t, err)
	assert.Equal(t, first.ID, claimed.ID)
	assert.Equal(t, domain.TicketStatusCalled, claimed.Status)
	require.NotNil(t, claimed.AssignedToUserID)
	assert.Equal(t, "u1", *claimed.AssignedToUserID)
}

func TestClaimNextEmptyQueueIsNotFound(t *testing.T) {
	queue, _ := newQueueFixture(queueSettings())

	_, err := queue.ClaimNext(context.Background(), cashier("u1"), "checkout")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestConcurrentClaimsNeverShareATicket(t *testing.T) {
	ctx := context.Background()
	queue, _ := newQueueFixture(domain.OperationsSettings{
		QueuesEnabled: true,
		Queues:        []domain.QueueDefinition{{Key: "checkout", TicketPrefix: "C", Enabled: true}},
	})

	for i := 0; i < 3; i++ {
		_, err := queue.Create(ctx, "t1", "b1", "checkout", nil)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	claimed := make(chan *domain.ServiceTicket, 2)
	for _, user := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			ticket, err := queue.ClaimNext(ctx, cashier(user), "checkout")
			assert.NoError(t, err)
			claimed <- ticket
		}(user)
	}
	wg.Wait()
	close(claimed)

	seen := make(map[string]string)
	for ticket := range claimed {
		require.NotNil(t, ticket)
		prev, dup := seen[ticket.ID]
		assert.False(t, dup, "ticket %s claimed by both %s and %s", ticket.ID, prev, *ticket.AssignedToUserID)
		seen[ticket.ID] = *ticket.AssignedToUserID
	}
	assert.Len(t, seen, 2)

	waiting, err := queue.ListWaiting(ctx, "t1", "b1", "checkout", 0)
	require.NoError(t, err)
	assert.Len(t, waiting, 1)
}

func TestClaimNextBlockedByAdmissionLimit(t *testing.T) {
	ctx := context.Background()
	queue, tickets := newQueueFixture(queueSettings())

	_, err := queue.Create(ctx, "t1", "b1", "checkout", nil)
	require.NoError(t, err)
	_, err = queue.Create(ctx, "t1", "b1", "checkout", nil)
	require.NoError(t, err)

	_, err = queue.ClaimNext(ctx, cashier("u1"), "checkout")
	require.NoError(t, err)

	// CASHIER limit is 1; second claim is rejected before any ticket moves
	_, err = queue.ClaimNext(ctx, cashier("u1"), "checkout")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	waiting, err := tickets.ListWaiting(ctx, "t1", "b1", "checkout", 0)
	require.NoError(t, err)
	assert.Len(t, waiting, 1)
}

func TestTicketLifecycleOwnershipGuards(t *testing.T) {
	ctx := context.Background()
	queue, _ := newQueueFixture(queueSettings())

	created, err := queue.Create(ctx, "t1", "b1", "checkout", nil)
	require.NoError(t, err)
	claimed, err := queue.ClaimNext(ctx, cashier("u1"), "checkout")
	require.NoError(t, err)
	require.Equal(t, created.ID, claimed.ID)

	// a different operator cannot start or close it
	_, err = queue.Start(ctx, cashier("u2"), claimed.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	_, err = queue.Close(ctx, cashier("u2"), claimed.ID)
	require.Error(t, err)

	serving, err := queue.Start(ctx, cashier("u1"), claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusServing, serving.Status)

	// starting twice fails: SERVING is not CALLED
	_, err = queue.Start(ctx, cashier("u1"), claimed.ID)
	require.Error(t, err)

	closed, err := queue.Close(ctx, cashier("u1"), claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
}

func TestSkipScopedToOperatorTenant(t *testing.T) {
	ctx := context.Background()
	queue, tickets := newQueueFixture(queueSettings())

	created, err := queue.Create(ctx, "t1", "b1", "checkout", nil)
	require.NoError(t, err)

	// an operator from another tenant cannot skip the ticket by id
	outsider := Operator{TenantID: "t2", BranchID: "b1", UserID: "s1", Role: "CASHIER"}
	_, err = queue.Skip(ctx, outsider, created.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	// nor can one from another branch of the same tenant
	sibling := Operator{TenantID: "t1", BranchID: "b2", UserID: "s2", Role: "CASHIER"}
	_, err = queue.Skip(ctx, sibling, created.ID)
	require.Error(t, err)

	current, err := tickets.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusWaiting, current.Status)
}

func TestSkipIsSupervisoryAndTerminal(t *testing.T) {
	ctx := context.Background()
	queue, _ := newQueueFixture(queueSettings())

	created, err := queue.Create(ctx, "t1", "b1", "checkout", nil)
	require.NoError(t, err)

	skipped, err := queue.Skip(ctx, cashier("supervisor"), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusSkipped, skipped.Status)

	// terminal: cannot be skipped or claimed again
	_, err = queue.Skip(ctx, cashier("supervisor"), created.ID)
	require.Error(t, err)
	_, err = queue.ClaimNext(ctx, cashier("u1"), "checkout")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
