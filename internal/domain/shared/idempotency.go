package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed request keys so that client retries
// of the same logical operation are not applied twice.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether a key has already been processed.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// IdempotencyConfig holds idempotency checking configuration
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
