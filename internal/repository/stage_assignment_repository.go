package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/coordination-service/internal/domain"
)

// StageAssignmentRepository performs the atomic claim/start/complete
// transitions on stage assignments. Every mutation is a single statement
// whose WHERE clause carries the precondition, so losing a race surfaces
// as "no row matched" (returned as nil, nil), never as a double grant.
type StageAssignmentRepository interface {
	ClaimNext(ctx context.Context, tenantID, branchID, stageKey, role, userID string) (*domain.StageAssignment, error)
	ClaimSpecific(ctx context.Context, tenantID, branchID, workItemID, stageKey, role, userID string) (*domain.StageAssignment, error)
	Start(ctx context.Context, workItemID, stageKey, userID string) (*domain.StageAssignment, error)
	Complete(ctx context.Context, workItemID, stageKey, userID, nextStageKey string) (*domain.StageAssignment, error)
	CountActiveForOperator(ctx context.Context, tenantID, branchID, userID string) (int, error)
	ListForWorkItem(ctx context.Context, workItemID string) ([]domain.StageAssignment, error)
}

type stageAssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewStageAssignmentRepository instantiates repository.
func NewStageAssignmentRepository(pool *pgxpool.Pool) StageAssignmentRepository {
	return &stageAssignmentRepository{pool: pool}
}

const assignmentColumns = `id, tenant_id, branch_id, work_item_id, stage_key, role, assigned_to, status, assigned_at, started_at, completed_at`

// ClaimNext picks the oldest work item waiting at stageKey that has no
// active assignment for that stage and inserts the ASSIGNED record. The
// partial unique index on (work_item_id, stage_key) makes the insert the
// arbiter: a concurrent claim on the same item conflicts and gets no row.
func (r *stageAssignmentRepository) ClaimNext(ctx context.Context, tenantID, branchID, stageKey, role, userID string) (*domain.StageAssignment, error) {
	const query = `
        INSERT INTO stage_assignments (tenant_id, branch_id, work_item_id, stage_key, role, assigned_to, status)
        SELECT w.tenant_id, w.branch_id, w.id, $3, $4, $5, 'ASSIGNED'
        FROM work_items w
        WHERE w.tenant_id=$1 AND w.branch_id=$2 AND w.current_stage_key=$3
          AND NOT EXISTS (
              SELECT 1 FROM stage_assignments a
              WHERE a.work_item_id = w.id AND a.stage_key = $3
                AND a.status IN ('ASSIGNED','IN_PROGRESS'))
        ORDER BY w.created_at ASC
        LIMIT 1
        ON CONFLICT (work_item_id, stage_key) WHERE status IN ('ASSIGNED','IN_PROGRESS') DO NOTHING
        RETURNING ` + assignmentColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, branchID, stageKey, role, userID))
}

// ClaimSpecific is ClaimNext scoped to one identified work item. The item
// must belong to the caller's tenant and branch; a foreign id misses the
// guard and reads as not found.
func (r *stageAssignmentRepository) ClaimSpecific(ctx context.Context, tenantID, branchID, workItemID, stageKey, role, userID string) (*domain.StageAssignment, error) {
	const query = `
        INSERT INTO stage_assignments (tenant_id, branch_id, work_item_id, stage_key, role, assigned_to, status)
        SELECT w.tenant_id, w.branch_id, w.id, $4, $5, $6, 'ASSIGNED'
        FROM work_items w
        WHERE w.id=$1 AND w.tenant_id=$2 AND w.branch_id=$3 AND w.current_stage_key=$4
          AND NOT EXISTS (
              SELECT 1 FROM stage_assignments a
              WHERE a.work_item_id = w.id AND a.stage_key = $4
                AND a.status IN ('ASSIGNED','IN_PROGRESS'))
        ON CONFLICT (work_item_id, stage_key) WHERE status IN ('ASSIGNED','IN_PROGRESS') DO NOTHING
        RETURNING ` + assignmentColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, workItemID, tenantID, branchID, stageKey, role, userID))
}

func (r *stageAssignmentRepository) Start(ctx context.Context, workItemID, stageKey, userID string) (*domain.StageAssignment, error) {
	const query = `
        UPDATE stage_assignments SET status='IN_PROGRESS', started_at=NOW()
        WHERE work_item_id=$1 AND stage_key=$2 AND assigned_to=$3 AND status='ASSIGNED'
        RETURNING ` + assignmentColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, workItemID, stageKey, userID))
}

// Complete finishes the caller's assignment and advances the work item to
// nextStageKey in the same statement.
func (r *stageAssignmentRepository) Complete(ctx context.Context, workItemID, stageKey, userID, nextStageKey string) (*domain.StageAssignment, error) {
	const query = `
        WITH done AS (
            UPDATE stage_assignments SET status='COMPLETED', completed_at=NOW()
            WHERE work_item_id=$1 AND stage_key=$2 AND assigned_to=$3
              AND status IN ('ASSIGNED','IN_PROGRESS')
            RETURNING ` + assignmentColumns + `
        ), advanced AS (
            UPDATE work_items w SET current_stage_key=$4, updated_at=NOW()
            FROM done WHERE w.id = done.work_item_id
        )
        SELECT ` + assignmentColumns + ` FROM done`
	return r.scanOne(r.pool.QueryRow(ctx, query, workItemID, stageKey, userID, nextStageKey))
}

func (r *stageAssignmentRepository) CountActiveForOperator(ctx context.Context, tenantID, branchID, userID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM stage_assignments
        WHERE tenant_id=$1 AND branch_id=$2 AND assigned_to=$3
          AND status IN ('ASSIGNED','IN_PROGRESS')`
	var count int
	if err := r.pool.QueryRow(ctx, query, tenantID, branchID, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *stageAssignmentRepository) ListForWorkItem(ctx context.Context, workItemID string) ([]domain.StageAssignment, error) {
	const query = `
        SELECT ` + assignmentColumns + ` FROM stage_assignments
        WHERE work_item_id=$1 ORDER BY assigned_at ASC`
	rows, err := r.pool.Query(ctx, query, workItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StageAssignment
	for rows.Next() {
		var a domain.StageAssignment
		if err := rows.Scan(
			&a.ID,
			&a.TenantID,
			&a.BranchID,
			&a.WorkItemID,
			&a.StageKey,
			&a.Role,
			&a.AssignedTo,
			&a.Status,
			&a.AssignedAt,
			&a.StartedAt,
			&a.CompletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *stageAssignmentRepository) scanOne(row pgx.Row) (*domain.StageAssignment, error) {
	var a domain.StageAssignment
	if err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.BranchID,
		&a.WorkItemID,
		&a.StageKey,
		&a.Role,
		&a.AssignedTo,
		&a.Status,
		&a.AssignedAt,
		&a.StartedAt,
		&a.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
