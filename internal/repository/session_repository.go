package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/coordination-service/internal/domain"
)

const sessionTTL = 12 * time.Hour

// SessionRepository stores operator presence in Redis. Sessions are written
// best effort after claims and closes; the claim record is authoritative,
// so a crash between the two only leaves a stale presence entry.
type SessionRepository interface {
	Get(ctx context.Context, tenantID, branchID, userID string) (*domain.OperatorSession, error)
	Put(ctx context.Context, session *domain.OperatorSession) error
}

type sessionRepository struct {
	client *redis.Client
}

// NewSessionRepository instantiates repository.
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client}
}

func sessionKey(tenantID, branchID, userID string) string {
	return fmt.Sprintf("session:%s:%s:%s", tenantID, branchID, userID)
}

func (r *sessionRepository) Get(ctx context.Context, tenantID, branchID, userID string) (*domain.OperatorSession, error) {
	raw, err := r.client.Get(ctx, sessionKey(tenantID, branchID, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var session domain.OperatorSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Put(ctx context.Context, session *domain.OperatorSession) error {
	session.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	key := sessionKey(session.TenantID, session.BranchID, session.UserID)
	return r.client.Set(ctx, key, raw, sessionTTL).Err()
}
