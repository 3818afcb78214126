package config

import (
	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nagiek/rendr"
	"github.com/nagiek/rendr/cache"
	"github.com/nagiek/rendr/remote/rest"
)

// Options turns the file into facade options. reg may be nil to skip
// metrics.
func (c *Config) Options(logger log.Interface, reg prometheus.Registerer) []rendr.Option {
	opts := []rendr.Option{
		rendr.WithMode(c.FetchMode()),
		rendr.WithRegistry(c.Registry()),
		rendr.WithLogger(logger),
		rendr.WithFreshInterval(c.Freshness.Interval.Duration()),
		rendr.WithFreshCapacity(int64(c.Freshness.Capacity)),
		rendr.WithRevalidateLimit(c.Revalidation.Rate, c.Revalidation.Burst),
	}
	if len(c.Policies) > 0 {
		opts = append(opts, rendr.WithPolicies(c.Resolver()))
	}
	if c.Revalidation.Enabled != nil && !*c.Revalidation.Enabled {
		opts = append(opts, rendr.WithoutRevalidation())
	}
	if c.Dedup != nil && !*c.Dedup {
		opts = append(opts, rendr.WithoutDedup())
	}
	if r := c.Redis; r != nil && r.Addr != "" {
		client := cache.NewRedis(r.Addr, r.Password, r.DB)
		if r.Prefix != "" {
			client.WithPrefix(r.Prefix)
		}
		opts = append(opts, rendr.WithRedisClient(client, r.TTL.Duration()))
	}
	if reg != nil {
		opts = append(opts, rendr.WithMetrics(reg))
	}
	return opts
}

// RESTConfig returns the REST remote settings.
func (c *Config) RESTConfig(logger log.Interface) rest.Config {
	return rest.Config{
		BaseURL:       c.Remote.URL,
		ApplicationID: c.Remote.ApplicationID,
		RESTKey:       c.Remote.RESTKey,
		Timeout:       c.Remote.Timeout.Duration(),
		Retry:         c.RetryConfig(),
		Breaker:       c.Breaker(),
		Registry:      c.Registry(),
		Logger:        logger,
	}
}
