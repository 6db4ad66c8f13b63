package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/coordination-service/internal/domain"
)

// WorkItemRepository encapsulates work item persistence.
type WorkItemRepository interface {
	Create(ctx context.Context, item *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	ListAtStage(ctx context.Context, tenantID, branchID, stageKey string, limit, offset int) ([]domain.WorkItem, error)
}

type workItemRepository struct {
	pool *pgxpool.Pool
}

// NewWorkItemRepository instantiates repository.
func NewWorkItemRepository(pool *pgxpool.Pool) WorkItemRepository {
	return &workItemRepository{pool: pool}
}

func (r *workItemRepository) Create(ctx context.Context, item *domain.WorkItem) error {
	const query = `
        INSERT INTO work_items (tenant_id, branch_id, order_number, checkout_mode, source_ticket_id, session_id, current_stage_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		item.TenantID,
		item.BranchID,
		item.OrderNumber,
		item.CheckoutMode,
		item.SourceTicketID,
		item.SessionID,
		item.CurrentStageKey,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *workItemRepository) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	const query = `
        SELECT id, tenant_id, branch_id, order_number, checkout_mode, source_ticket_id, session_id, current_stage_key, created_at, updated_at
        FROM work_items WHERE id=$1`
	var item domain.WorkItem
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.TenantID,
		&item.BranchID,
		&item.OrderNumber,
		&item.CheckoutMode,
		&item.SourceTicketID,
		&item.SessionID,
		&item.CurrentStageKey,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *workItemRepository) ListAtStage(ctx context.Context, tenantID, branchID, stageKey string, limit, offset int) ([]domain.WorkItem, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, tenant_id, branch_id, order_number, checkout_mode, source_ticket_id, session_id, current_stage_key, created_at, updated_at
        FROM work_items
        WHERE tenant_id=$1 AND branch_id=$2 AND current_stage_key=$3
        ORDER BY created_at ASC
        LIMIT $4 OFFSET $5`
	rows, err := r.pool.Query(ctx, query, tenantID, branchID, stageKey, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

func scanWorkItems(rows pgx.Rows) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for rows.Next() {
		var item domain.WorkItem
		if err := rows.Scan(
			&item.ID,
			&item.TenantID,
			&item.BranchID,
			&item.OrderNumber,
			&item.CheckoutMode,
			&item.SourceTicketID,
			&item.SessionID,
			&item.CurrentStageKey,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
