package shared

import (
	"context"
	"time"
)

// IdempotencyStore holds short-lived reservations keyed by an idempotency key
// (for order sync, the external order reference). Implementations must make
// MarkProcessed atomic across every process sharing the store.
type IdempotencyStore interface {
	// MarkProcessed reserves key for ttl.
	// Returns true if the key was newly reserved, false if it was already held.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a reservation so the key can be claimed again.
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
