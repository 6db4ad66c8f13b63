// Package tenant reads the slice of tenant configuration the coordination
// engine depends on: the ordered workflow stages, the walk-in queue
// definitions and the per-role admission limits.
package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/coordination-service/internal/domain"
)

// SettingsProvider supplies tenant operations settings.
type SettingsProvider interface {
	Operations(ctx context.Context, tenantID string) (domain.OperationsSettings, error)
}

type settingsProvider struct {
	pool   *pgxpool.Pool
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSettingsProvider builds a provider backed by tenant_settings with a
// Redis read-through cache. Cache failures degrade to database reads.
func NewSettingsProvider(pool *pgxpool.Pool, cache *redis.Client, ttl time.Duration, logger *zap.Logger) SettingsProvider {
	return &settingsProvider{pool: pool, cache: cache, ttl: ttl, logger: logger}
}

func settingsCacheKey(tenantID string) string {
	return fmt.Sprintf("tenant:ops:%s", tenantID)
}

func (p *settingsProvider) Operations(ctx context.Context, tenantID string) (domain.OperationsSettings, error) {
	if p.cache != nil {
		raw, err := p.cache.Get(ctx, settingsCacheKey(tenantID)).Bytes()
		if err == nil {
			var settings domain.OperationsSettings
			if err := json.Unmarshal(raw, &settings); err == nil {
				return settings, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			p.logger.Warn("tenant settings cache read failed", zap.Error(err))
		}
	}

	const query = `SELECT operations FROM tenant_settings WHERE tenant_id=$1`
	var raw []byte
	if err := p.pool.QueryRow(ctx, query, tenantID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OperationsSettings{}, nil
		}
		return domain.OperationsSettings{}, err
	}

	var settings domain.OperationsSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return domain.OperationsSettings{}, fmt.Errorf("decode tenant settings: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, settingsCacheKey(tenantID), raw, p.ttl).Err(); err != nil {
			p.logger.Warn("tenant settings cache write failed", zap.Error(err))
		}
	}
	return settings, nil
}
