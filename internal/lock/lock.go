// Package lock provides per-principal mutual-exclusion leases backed by Redis.
// Acquisition is a single atomic set-if-absent with expiry; there is no
// read-then-write window for two concurrent admissions to race through.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Manager hands out expiring leases keyed by (domain, principal).
type Manager struct {
	rdb *redis.Client
}

// NewManager constructs a Manager on top of an existing Redis client.
func NewManager(rdb *redis.Client) *Manager {
	return &Manager{rdb: rdb}
}

// Acquire atomically creates the lock if absent and reports whether this call
// created it. A false return with nil error means another holder is live.
func (m *Manager) Acquire(ctx context.Context, domain, principal string, ttl time.Duration) (bool, error) {
	ok, err := m.rdb.SetNX(ctx, key(domain, principal), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s/%s: %w", domain, principal, err)
	}
	return ok, nil
}

// Release removes the lock unconditionally. Releasing a lock that does not
// exist is a no-op, not an error.
func (m *Manager) Release(ctx context.Context, domain, principal string) error {
	if err := m.rdb.Del(ctx, key(domain, principal)).Err(); err != nil {
		return fmt.Errorf("release lock %s/%s: %w", domain, principal, err)
	}
	return nil
}

func key(domain, principal string) string {
	return fmt.Sprintf("lock:%s:%s", domain, principal)
}
