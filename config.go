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

// config holds the configuration assembled via functional options.
type config struct {
	mode     fetcher.Mode
	registry registry.Registry
	logger   log.Interface

	freshInterval time.Duration
	freshCapacity int64
	policies      *policy.Resolver

	revalidateRPS   float64
	revalidateBurst int
	noRevalidation  bool
	noDedup         bool

	backend    cache.Backend
	backendTTL time.Duration

	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
	middlewares    []remote.Middleware

	closers []func() error
}
