package cache

import (
	"fmt"

	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/resto/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore builds the idempotency store selected by
// cfg.Ledger.IdempotencyBackend. When the backend is "redis" but Redis
// is unreachable, it falls back to the in-memory store with a warning
// rather than refusing to start.
func NewIdempotencyStore(cfg *config.Config, logger *zap.Logger) (shared.IdempotencyStore, error) {
	switch cfg.Ledger.IdempotencyBackend {
	case "memory":
		logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	case "redis":
		store, err := NewRedisIdempotencyStore(cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
				"duplicate deposits may slip through in multi-instance deployments",
				zap.Error(err),
			)
			return NewInMemoryIdempotencyStore(), nil
		}
		logger.Info("using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Ledger.IdempotencyBackend)
	}
}
