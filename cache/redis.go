package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by Redis.
const DefaultRedisPrefix = "rendr:"

// Redis is a Backend on top of a Redis server. All operations fail soft: if
// Redis is unavailable, reads miss and writes are dropped.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects to the Redis server at addr.
func NewRedis(addr, password string, db int) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{rdb: rdb, prefix: DefaultRedisPrefix}
}

// WithPrefix replaces the key prefix and returns r.
func (r *Redis) WithPrefix(prefix string) *Redis {
	r.prefix = prefix
	return r
}

// Get returns (nil, false, nil) on a miss or when Redis is unreachable.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		// redis.Nil and connection errors both read as a miss.
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores val under key. Errors are discarded.
func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = r.rdb.Set(ctx, r.prefix+key, val, ttl).Err()
	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
