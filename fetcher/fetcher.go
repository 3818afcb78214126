// Package fetcher resolves batches of specs to entities and collections,
// answering from the caches where it can and from the remote where it must.
package fetcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nagiek/rendr/cache"
	"github.com/nagiek/rendr/freshness"
	"github.com/nagiek/rendr/metrics"
	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/ratelimit"
	"github.com/nagiek/rendr/registry"
	"github.com/nagiek/rendr/remote"
	"github.com/nagiek/rendr/tracing"
)

// Config wires a Fetcher. Only Remote is required.
type Config struct {
	Remote   remote.Remote
	Registry registry.Registry
	Mode     Mode

	// Entities and Collections default to fresh in-process caches. When
	// both are given, Collections must write through to Entities.
	Entities    *cache.EntityCache
	Collections *cache.CollectionCache

	// Throttle defaults to a freshness.Throttle with default settings; the
	// Fetcher closes a throttle it created itself.
	Throttle *freshness.Throttle

	// Gate bounds how many revalidations may start. Nil means unbounded.
	Gate *ratelimit.Keyed

	// DisableRevalidation turns background freshness checks off in client
	// mode too.
	DisableRevalidation bool

	// DisableDedup sends every cache miss to the remote, even when an
	// identical request is already in flight.
	DisableDedup bool

	Metrics        *metrics.Metrics
	TracerProvider trace.TracerProvider
	Logger         log.Interface
}

// Results maps the names of a batch to their resolved resources.
type Results map[string]model.Resource

// Entity returns the named result if it is an entity.
func (r Results) Entity(name string) *model.Entity {
	e, _ := r[name].(*model.Entity)
	return e
}

// Collection returns the named result if it is a collection.
func (r Results) Collection(name string) *model.Collection {
	c, _ := r[name].(*model.Collection)
	return c
}

// Fetcher is safe for concurrent use. Call Close to wait for background
// revalidations.
type Fetcher struct {
	remote      remote.Remote
	registry    registry.Registry
	mode        Mode
	entities    *cache.EntityCache
	collections *cache.CollectionCache
	throttle    *freshness.Throttle
	ownThrottle bool
	gate        *ratelimit.Keyed
	revalidate  bool
	dedup       bool
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	log         log.Interface

	flights singleflight.Group
	bg      sync.WaitGroup
	pending atomic.Int64
	events  model.Signal[Event]
}

// New creates a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Remote == nil {
		return nil, ErrNoRemote
	}
	f := &Fetcher{
		remote:      cfg.Remote,
		registry:    cfg.Registry,
		mode:        cfg.Mode,
		entities:    cfg.Entities,
		collections: cfg.Collections,
		throttle:    cfg.Throttle,
		gate:        cfg.Gate,
		revalidate:  cfg.Mode == ModeClient && !cfg.DisableRevalidation,
		dedup:       !cfg.DisableDedup,
		metrics:     cfg.Metrics,
		tracer:      tracing.Tracer(cfg.TracerProvider),
		log:         cfg.Logger,
	}
	if f.registry == nil {
		f.registry = &registry.Static{}
	}
	if f.log == nil {
		f.log = log.Log
	}
	if f.entities == nil {
		f.entities = cache.NewEntityCache(cache.WithLogger(f.log))
	}
	if f.collections == nil {
		f.collections = cache.NewCollectionCache(f.entities)
	}
	if f.throttle == nil {
		th, err := freshness.New(freshness.Config{})
		if err != nil {
			return nil, fmt.Errorf("fetcher: creating throttle: %w", err)
		}
		f.throttle = th
		f.ownThrottle = true
	}
	return f, nil
}

// Mode returns the configured mode.
func (f *Fetcher) Mode() Mode { return f.mode }

// Entities returns the entity cache.
func (f *Fetcher) Entities() *cache.EntityCache { return f.entities }

// Collections returns the collection cache.
func (f *Fetcher) Collections() *cache.CollectionCache { return f.collections }

// PendingFetches returns the number of Fetch batches in flight.
func (f *Fetcher) PendingFetches() int64 { return f.pending.Load() }

// Close waits for background revalidations to finish and releases the
// throttle if the Fetcher created it.
func (f *Fetcher) Close() {
	f.bg.Wait()
	if f.ownThrottle {
		f.throttle.Close()
	}
}

// Fetch resolves every spec of the batch concurrently. The first failure
// cancels the rest and is returned; no partial results are ever returned.
// In client mode specs are answered from the caches and results written back;
// in server mode neither happens. ReadFromCache and WriteToCache override the
// mode for one call.
func (f *Fetcher) Fetch(ctx context.Context, specs map[string]model.Spec, opts ...FetchOption) (Results, error) {
	o := f.mode.defaults()
	for _, fn := range opts {
		fn(&o)
	}

	ctx, span := f.tracer.Start(ctx, tracing.SpanFetch, trace.WithAttributes(
		attribute.Int("rendr.batch.size", len(specs)),
		attribute.Bool("rendr.read_from_cache", o.readFromCache),
		attribute.Bool("rendr.write_to_cache", o.writeToCache),
	))
	start := time.Now()
	f.pending.Add(1)
	f.metrics.BatchStarted()
	f.events.Notify(Event{Kind: EventStart, Specs: specs})

	results, err := f.retrieve(ctx, specs, o)

	f.pending.Add(-1)
	f.metrics.BatchFinished(time.Since(start))
	f.events.Notify(Event{Kind: EventEnd, Specs: specs, Results: results, Err: err})
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	if o.writeToCache {
		f.store(ctx, results)
	}
	return results, nil
}

func (f *Fetcher) retrieve(ctx context.Context, specs map[string]model.Spec, o fetchOptions) (Results, error) {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	results := make(Results, len(specs))

	for name, s := range specs {
		g.Go(func() error {
			r, err := f.resolve(gctx, s, o)
			if err != nil {
				return err
			}
			mu.Lock()
			results[name] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// resolve answers one spec.
func (f *Fetcher) resolve(ctx context.Context, s model.Spec, o fetchOptions) (model.Resource, error) {
	if s == nil {
		return nil, fmt.Errorf("fetcher: nil spec")
	}
	if !o.readFromCache {
		return f.fetchRemote(ctx, s)
	}

	candidate := f.lookup(ctx, s)
	if !NeedsFetch(candidate, s) {
		f.metrics.CacheLookup(kindOf(s), true)
		f.maybeRevalidate(ctx, s, candidate)
		return candidate, nil
	}
	f.metrics.CacheLookup(kindOf(s), false)
	return f.fetchRemote(ctx, s)
}

// lookup finds the cache candidate for s. Entities are found by id, or else
// by params; collections by type and params.
func (f *Fetcher) lookup(ctx context.Context, s model.Spec) model.Resource {
	switch s := s.(type) {
	case *model.EntitySpec:
		var e *model.Entity
		if s.ID != "" {
			e = f.entities.Get(ctx, s.Type, s.ID)
		} else {
			e = f.entities.Find(ctx, s.Type, s.Params, f.registry.IDAttribute(s.Type))
		}
		if e != nil {
			return e
		}
	case *model.CollectionSpec:
		if c, ok := f.collections.Get(ctx, s.Type, s.CacheParams()); ok {
			return c
		}
	}
	return nil
}

// fetchRemote goes to the remote, joining an identical request already in
// flight unless deduplication is off. A joined request runs detached from
// any single caller's cancellation; each caller still stops waiting when its
// own context ends.
func (f *Fetcher) fetchRemote(ctx context.Context, s model.Spec) (model.Resource, error) {
	if !f.dedup {
		return f.callRemote(ctx, s)
	}
	ch := f.flights.DoChan(model.IdentityKey(s), func() (any, error) {
		return f.callRemote(context.WithoutCancel(ctx), s)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(model.Resource), nil
	}
}

// callRemote performs one remote call and normalises its result: a resource
// is always non-nil on success and carries the type and cache params.
func (f *Fetcher) callRemote(ctx context.Context, s model.Spec) (model.Resource, error) {
	ctx, span := f.tracer.Start(ctx, tracing.SpanRemote, trace.WithAttributes(
		attribute.String("rendr.type", s.TypeName()),
		attribute.String("rendr.kind", kindOf(s)),
	))

	var (
		r   model.Resource
		err error
	)
	switch s := s.(type) {
	case *model.EntitySpec:
		var e *model.Entity
		e, err = f.remote.FetchEntity(ctx, s)
		if err == nil && e == nil {
			err = remote.NotFound(s)
		}
		if err == nil {
			if e.Type == "" {
				e.Type = s.Type
			}
			if e.Attributes == nil {
				e.Attributes = map[string]any{}
			}
			r = e
		}
	case *model.CollectionSpec:
		var c *model.Collection
		c, err = f.remote.FetchCollection(ctx, s)
		if err == nil {
			if c == nil {
				c = &model.Collection{}
			}
			c.Type = s.Type
			c.Params = s.CacheParams()
			r = c
		}
	default:
		err = fmt.Errorf("fetcher: unsupported spec %T", s)
	}

	f.metrics.RemoteFetch(s.TypeName(), err)
	tracing.End(span, err)
	return r, err
}

// store writes results to the caches.
func (f *Fetcher) store(ctx context.Context, results Results) {
	for _, r := range results {
		f.storeResource(ctx, r)
	}
}

func (f *Fetcher) storeResource(ctx context.Context, r model.Resource) {
	switch r := r.(type) {
	case *model.Entity:
		f.entities.Set(ctx, r)
	case *model.Collection:
		f.collections.Set(ctx, r)
	}
}

func kindOf(s model.Spec) string {
	if _, ok := s.(*model.CollectionSpec); ok {
		return metrics.KindCollection
	}
	return metrics.KindEntity
}
