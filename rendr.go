// Package rendr fetches entities and collections through two in-process
// caches, falling back to a remote for whatever the caches cannot answer.
//
//	c, err := rendr.New(backend,
//		rendr.WithMode(fetcher.ModeClient),
//		rendr.WithFreshInterval(30*time.Second),
//	)
//	defer c.Close()
//	res, err := c.Fetch(ctx, map[string]model.Spec{
//		"user": &model.EntitySpec{Type: "User", ID: "42"},
//	})
package rendr

import (
	"errors"
	"fmt"

	"github.com/apex/log"

	"github.com/nagiek/rendr/cache"
	"github.com/nagiek/rendr/fetcher"
	"github.com/nagiek/rendr/freshness"
	"github.com/nagiek/rendr/metrics"
	"github.com/nagiek/rendr/ratelimit"
	"github.com/nagiek/rendr/remote"
)

// Client is a Fetcher together with the resources New created for it.
type Client struct {
	*fetcher.Fetcher

	metrics *metrics.Metrics
	closers []func() error
}

// New builds a Client over r by applying the options in order.
func New(r remote.Remote, opts ...Option) (*Client, error) {
	if r == nil {
		return nil, fetcher.ErrNoRemote
	}
	cfg := config{logger: log.Log}
	for _, o := range opts {
		o(&cfg)
	}

	throttle, err := freshness.New(freshness.Config{
		Interval: cfg.freshInterval,
		Capacity: cfg.freshCapacity,
		Policies: cfg.policies,
	})
	if err != nil {
		return nil, fmt.Errorf("rendr: %w", err)
	}

	entityOpts := []cache.EntityOption{cache.WithLogger(cfg.logger)}
	if cfg.backend != nil {
		entityOpts = append(entityOpts, cache.WithBackend(cfg.backend, cfg.backendTTL))
	}
	entities := cache.NewEntityCache(entityOpts...)

	var gate *ratelimit.Keyed
	if cfg.revalidateRPS > 0 || cfg.policies != nil {
		gate = ratelimit.NewKeyed(ratelimit.NewLimiter(cfg.revalidateRPS, cfg.revalidateBurst), cfg.policies)
	}

	var m *metrics.Metrics
	if cfg.registerer != nil {
		m = metrics.New(cfg.registerer)
	}

	f, err := fetcher.New(fetcher.Config{
		Remote:              remote.Wrap(r, cfg.middlewares...),
		Registry:            cfg.registry,
		Mode:                cfg.mode,
		Entities:            entities,
		Collections:         cache.NewCollectionCache(entities),
		Throttle:            throttle,
		Gate:                gate,
		DisableRevalidation: cfg.noRevalidation,
		DisableDedup:        cfg.noDedup,
		Metrics:             m,
		TracerProvider:      cfg.tracerProvider,
		Logger:              cfg.logger,
	})
	if err != nil {
		throttle.Close()
		return nil, err
	}

	closers := []func() error{func() error { throttle.Close(); return nil }}
	return &Client{Fetcher: f, metrics: m, closers: append(closers, cfg.closers...)}, nil
}

// Metrics returns the collectors, or nil without WithMetrics.
func (c *Client) Metrics() *metrics.Metrics { return c.metrics }

// Close waits for background revalidations and releases the throttle and any
// Redis connection opened by WithRedis.
func (c *Client) Close() error {
	c.Fetcher.Close()
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
