package tenant

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipChecker answers whether an operator holds a role at a branch.
type MembershipChecker interface {
	HoldsRole(ctx context.Context, tenantID, branchID, userID, role string) (bool, error)
}

type membershipChecker struct {
	pool *pgxpool.Pool
}

// NewMembershipChecker instantiates the checker.
func NewMembershipChecker(pool *pgxpool.Pool) MembershipChecker {
	return &membershipChecker{pool: pool}
}

func (c *membershipChecker) HoldsRole(ctx context.Context, tenantID, branchID, userID, role string) (bool, error) {
	const query = `
        SELECT active FROM memberships
        WHERE tenant_id=$1 AND branch_id=$2 AND user_id=$3 AND role=$4`
	var active bool
	if err := c.pool.QueryRow(ctx, query, tenantID, branchID, userID, role).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return active, nil
}
