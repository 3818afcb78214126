// Package cache holds the in-process entity and collection stores the
// fetcher consults before going to the remote, plus an optional shared
// second tier for entities.
package cache

import (
	"context"
	"time"
)

// Backend is a byte-oriented second tier behind the entity cache. Backends
// fail soft: an unreachable backend reports a miss and drops writes.
type Backend interface {
	// Get retrieves a value by key. The boolean reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores val under key. A zero TTL means no expiration.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// entityKey is the backend key of one entity.
func entityKey(typ, id string) string {
	return "entity:" + typ + ":" + id
}
