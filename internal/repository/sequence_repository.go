package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepository hands out dense per-scope sequence numbers.
type SequenceRepository interface {
	Next(ctx context.Context, scope string) (int64, error)
}

type sequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository instantiates repository.
func NewSequenceRepository(pool *pgxpool.Pool) SequenceRepository {
	return &sequenceRepository{pool: pool}
}

// Next increments and returns the counter for scope in one statement.
// Concurrent callers on the same scope serialize on the row, so the values
// handed out over the scope's lifetime are exactly 1..N.
func (r *sequenceRepository) Next(ctx context.Context, scope string) (int64, error) {
	const query = `
        INSERT INTO sequence_counters (scope, seq) VALUES ($1, 1)
        ON CONFLICT (scope) DO UPDATE SET seq = sequence_counters.seq + 1
        RETURNING seq`
	var seq int64
	if err := r.pool.QueryRow(ctx, query, scope).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}
