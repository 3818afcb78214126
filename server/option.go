package server

import (
	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"

	"github.com/nagiek/rendr/auth"
	"github.com/nagiek/rendr/interceptors"
	"github.com/nagiek/rendr/internal/core"
	"github.com/nagiek/rendr/ratelimit"
	"github.com/nagiek/rendr/tracing"
)

// Fixed positions in the interceptor chain. Lower values run first, whatever
// order the options are passed in.
const (
	OrderRecovery  = 100
	OrderRequestID = 200
	OrderTracing   = 300
	OrderAuth      = 400
	OrderRateLimit = 500
	OrderCustom    = 1000
)

// config holds the configuration assembled via functional options.
type config struct {
	middlewares core.MiddlewareBuilder
	gatherer    prometheus.Gatherer
	serverOpts  []grpc.ServerOption
}

// Option configures a Server.
type Option func(*config)

// WithUnaryInterceptor adds an interceptor after the built-in ones.
func WithUnaryInterceptor(i grpc.UnaryServerInterceptor) Option {
	return func(c *config) { c.middlewares.Add(OrderCustom, i) }
}

// WithRecovery turns handler panics into Internal errors, logged to logger.
func WithRecovery(logger log.Interface) Option {
	return func(c *config) { c.middlewares.Add(OrderRecovery, interceptors.RecoveryUnary(logger)) }
}

// WithRequestID assigns every call a request ID.
func WithRequestID() Option {
	return func(c *config) { c.middlewares.Add(OrderRequestID, interceptors.RequestIDUnary()) }
}

// WithOpenTelemetry opens a server span per call.
func WithOpenTelemetry(cfg tracing.Config) Option {
	return func(c *config) { c.middlewares.Add(OrderTracing, tracing.UnaryServerInterceptor(&cfg)) }
}

// WithAuth authenticates calls with fn.
func WithAuth(fn auth.AuthFunc) Option {
	return func(c *config) { c.middlewares.Add(OrderAuth, interceptors.AuthUnary(fn)) }
}

// WithRateLimit rejects calls once the bucket of the requested type is empty.
func WithRateLimit(k *ratelimit.Keyed) Option {
	return func(c *config) { c.middlewares.Add(OrderRateLimit, interceptors.RateLimitUnary(k)) }
}

// WithMetricsGatherer sets what MetricsHandler serves. The default is the
// global Prometheus registry.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(c *config) { c.gatherer = g }
}

// WithServerOptions passes extra options to grpc.NewServer.
func WithServerOptions(opts ...grpc.ServerOption) Option {
	return func(c *config) { c.serverOpts = append(c.serverOpts, opts...) }
}

// DefaultOptions returns the recommended options for production use.
func DefaultOptions(logger log.Interface) []Option {
	return []Option{
		WithRecovery(logger),
		WithRequestID(),
	}
}
