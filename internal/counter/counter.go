// Package counter provides the ephemeral counter store backing rate
// limiting, usage metering, and one-shot key reveals. A Redis-backed store
// is used when REDIS_URL is configured; development and test environments
// may fall back to an in-process store.
package counter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNil is returned by Get when the key does not exist or has expired.
var ErrNil = errors.New("counter: nil")

// Store is the counter service contract. INCR is atomic; no cross-key
// transactions are offered.
type Store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Close() error
}

// New selects a store implementation. An empty URL is only permitted when
// devOrTest is true; outside those environments it is a startup error.
func New(url string, devOrTest bool) (Store, error) {
	if url == "" {
		if !devOrTest {
			return nil, fmt.Errorf("counter: REDIS_URL is required outside development/test")
		}
		return NewMemory(), nil
	}
	return NewRedis(url)
}
