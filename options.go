package rendr

import (
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/nagiek/rendr/cache"
	"github.com/nagiek/rendr/fetcher"
	"github.com/nagiek/rendr/policy"
	"github.com/nagiek/rendr/registry"
	"github.com/nagiek/rendr/remote"
)

// Option configures a Client.
type Option func(*config)

// WithMode selects client or server behavior. The default is client.
func WithMode(m fetcher.Mode) Option {
	return func(c *config) { c.mode = m }
}

// WithRegistry sets the type registry.
func WithRegistry(r registry.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithFreshInterval sets the minimum time between two freshness checks of
// the same spec.
func WithFreshInterval(d time.Duration) Option {
	return func(c *config) { c.freshInterval = d }
}

// WithFreshCapacity bounds how many specs the freshness throttle remembers.
func WithFreshCapacity(n int64) Option {
	return func(c *config) { c.freshCapacity = n }
}

// WithPolicies sets per-type policy groups. Their fresh intervals override
// the default and their revalidation rules get their own limiter.
func WithPolicies(r *policy.Resolver) Option {
	return func(c *config) { c.policies = r }
}

// WithRevalidateLimit caps background revalidations at rps per second across
// all types without a group limiter.
func WithRevalidateLimit(rps float64, burst int) Option {
	return func(c *config) {
		c.revalidateRPS = rps
		c.revalidateBurst = burst
	}
}

// WithoutRevalidation disables background freshness checks.
func WithoutRevalidation() Option {
	return func(c *config) { c.noRevalidation = true }
}

// WithoutDedup sends every cache miss to the remote even when an identical
// request is in flight.
func WithoutDedup() Option {
	return func(c *config) { c.noDedup = true }
}

// WithBackend adds a second tier behind the entity cache. Entities written
// to it expire after ttl; zero means never.
func WithBackend(b cache.Backend, ttl time.Duration) Option {
	return func(c *config) {
		c.backend = b
		c.backendTTL = ttl
	}
}

// WithRedis uses a Redis server as the second tier. The connection is closed
// by Client.Close.
func WithRedis(addr, password string, db int, ttl time.Duration) Option {
	return WithRedisClient(cache.NewRedis(addr, password, db), ttl)
}

// WithRedisClient is WithRedis for a client the caller has set up. Client.Close
// closes it.
func WithRedisClient(r *cache.Redis, ttl time.Duration) Option {
	return func(c *config) {
		c.backend = r
		c.backendTTL = ttl
		c.closers = append(c.closers, r.Close)
	}
}

// WithMetrics registers the Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) { c.registerer = reg }
}

// WithOpenTelemetry traces fetch batches and remote calls with tp.
func WithOpenTelemetry(tp trace.TracerProvider) Option {
	return func(c *config) { c.tracerProvider = tp }
}

// WithLogger sets the logger. The default is the apex/log default logger.
func WithLogger(l log.Interface) Option {
	return func(c *config) { c.logger = l }
}

// WithRemoteMiddleware wraps the remote. The first middleware is outermost.
func WithRemoteMiddleware(mws ...remote.Middleware) Option {
	return func(c *config) { c.middlewares = append(c.middlewares, mws...) }
}
