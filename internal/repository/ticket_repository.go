package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/coordination-service/internal/domain"
)

// TicketRepository encapsulates service ticket persistence. All status
// transitions are single conditional statements; a transition whose guard
// does not match returns nil, nil so callers treat "already taken" and
// "does not exist" identically.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.ServiceTicket) error
	GetByID(ctx context.Context, id string) (*domain.ServiceTicket, error)
	ClaimNext(ctx context.Context, tenantID, branchID, serviceType, userID string) (*domain.ServiceTicket, error)
	Start(ctx context.Context, ticketID, userID string) (*domain.ServiceTicket, error)
	Close(ctx context.Context, ticketID, userID string) (*domain.ServiceTicket, error)
	Skip(ctx context.Context, tenantID, branchID, ticketID string) (*domain.ServiceTicket, error)
	CountActiveForOperator(ctx context.Context, tenantID, branchID, userID string) (int, error)
	ListWaiting(ctx context.Context, tenantID, branchID, serviceType string, limit int) ([]domain.ServiceTicket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, tenant_id, branch_id, service_type, code, seq, day_key, status, assigned_to, meta, created_at, called_at, serving_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.ServiceTicket) error {
	const query = `
        INSERT INTO service_tickets (tenant_id, branch_id, service_type, code, seq, day_key, status, meta)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TenantID,
		ticket.BranchID,
		ticket.ServiceType,
		ticket.Code,
		ticket.Seq,
		ticket.DayKey,
		ticket.Status,
		ticket.Meta,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.ServiceTicket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM service_tickets WHERE id=$1`
	ticket, err := r.scanOne(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, pgx.ErrNoRows
	}
	return ticket, nil
}

// ClaimNext calls the oldest WAITING ticket for the queue. The inner select
// locks the chosen row and skips rows already locked by a concurrent claim,
// so two operators never call the same ticket; FIFO order among tickets that
// are eligible at the same instant is best effort.
func (r *ticketRepository) ClaimNext(ctx context.Context, tenantID, branchID, serviceType, userID string) (*domain.ServiceTicket, error) {
	const query = `
        UPDATE service_tickets SET status='CALLED', assigned_to=$4, called_at=NOW()
        WHERE id = (
            SELECT id FROM service_tickets
            WHERE tenant_id=$1 AND branch_id=$2 AND service_type=$3 AND status='WAITING'
            ORDER BY created_at ASC
            LIMIT 1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING ` + ticketColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, branchID, serviceType, userID))
}

func (r *ticketRepository) Start(ctx context.Context, ticketID, userID string) (*domain.ServiceTicket, error) {
	const query = `
        UPDATE service_tickets SET status='SERVING', serving_at=NOW()
        WHERE id=$1 AND assigned_to=$2 AND status='CALLED'
        RETURNING ` + ticketColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, ticketID, userID))
}

func (r *ticketRepository) Close(ctx context.Context, ticketID, userID string) (*domain.ServiceTicket, error) {
	const query = `
        UPDATE service_tickets SET status='CLOSED', closed_at=NOW()
        WHERE id=$1 AND assigned_to=$2 AND status IN ('CALLED','SERVING')
        RETURNING ` + ticketColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, ticketID, userID))
}

// Skip is a supervisory action and carries no ownership guard, but is
// still scoped to the caller's tenant and branch.
func (r *ticketRepository) Skip(ctx context.Context, tenantID, branchID, ticketID string) (*domain.ServiceTicket, error) {
	const query = `
        UPDATE service_tickets SET status='SKIPPED', closed_at=NOW()
        WHERE id=$1 AND tenant_id=$2 AND branch_id=$3 AND status IN ('WAITING','CALLED')
        RETURNING ` + ticketColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, ticketID, tenantID, branchID))
}

func (r *ticketRepository) CountActiveForOperator(ctx context.Context, tenantID, branchID, userID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM service_tickets
        WHERE tenant_id=$1 AND branch_id=$2 AND assigned_to=$3
          AND status IN ('CALLED','SERVING')`
	var count int
	if err := r.pool.QueryRow(ctx, query, tenantID, branchID, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) ListWaiting(ctx context.Context, tenantID, branchID, serviceType string, limit int) ([]domain.ServiceTicket, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT ` + ticketColumns + ` FROM service_tickets
        WHERE tenant_id=$1 AND branch_id=$2 AND service_type=$3 AND status='WAITING'
        ORDER BY created_at ASC
        LIMIT $4`
	rows, err := r.pool.Query(ctx, query, tenantID, branchID, serviceType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceTicket
	for rows.Next() {
		var t domain.ServiceTicket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *ticketRepository) scanOne(row pgx.Row) (*domain.ServiceTicket, error) {
	var t domain.ServiceTicket
	if err := scanTicket(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func scanTicket(row pgx.Row, t *domain.ServiceTicket) error {
	return row.Scan(
		&t.ID,
		&t.TenantID,
		&t.BranchID,
		&t.ServiceType,
		&t.Code,
		&t.Seq,
		&t.DayKey,
		&t.Status,
		&t.AssignedToUserID,
		&t.Meta,
		&t.CreatedAt,
		&t.CalledAt,
		&t.ServingAt,
		&t.ClosedAt,
	)
}
