// Package remote defines the source of truth the fetcher falls back to when
// the caches cannot answer a spec.
package remote

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/nagiek/rendr/model"
)

// Remote fetches entities and collections from the backend. Implementations
// must honor context cancellation and report failures as *FetchError where
// a status is known.
type Remote interface {
	FetchEntity(ctx context.Context, s *model.EntitySpec) (*model.Entity, error)
	FetchCollection(ctx context.Context, s *model.CollectionSpec) (*model.Collection, error)
}

// Funcs adapts two functions to a Remote. A nil function reports a 404.
type Funcs struct {
	Entity     func(ctx context.Context, s *model.EntitySpec) (*model.Entity, error)
	Collection func(ctx context.Context, s *model.CollectionSpec) (*model.Collection, error)
}

func (f Funcs) FetchEntity(ctx context.Context, s *model.EntitySpec) (*model.Entity, error) {
	if f.Entity == nil {
		return nil, NotFound(s)
	}
	return f.Entity(ctx, s)
}

func (f Funcs) FetchCollection(ctx context.Context, s *model.CollectionSpec) (*model.Collection, error) {
	if f.Collection == nil {
		return nil, NotFound(s)
	}
	return f.Collection(ctx, s)
}

// Middleware wraps a Remote.
type Middleware func(Remote) Remote

// Chain composes middlewares; the first one is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Remote) Remote {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Wrap applies mws to r.
func Wrap(r Remote, mws ...Middleware) Remote {
	return Chain(mws...)(r)
}

// Logging logs every remote call at debug level and failures at warn level.
func Logging(logger log.Interface) Middleware {
	if logger == nil {
		logger = log.Log
	}
	return func(next Remote) Remote {
		return Funcs{
			Entity: func(ctx context.Context, s *model.EntitySpec) (*model.Entity, error) {
				start := time.Now()
				e, err := next.FetchEntity(ctx, s)
				logCall(logger, s, start, err)
				return e, err
			},
			Collection: func(ctx context.Context, s *model.CollectionSpec) (*model.Collection, error) {
				start := time.Now()
				c, err := next.FetchCollection(ctx, s)
				logCall(logger, s, start, err)
				return c, err
			},
		}
	}
}

func logCall(logger log.Interface, s model.Spec, start time.Time, err error) {
	entry := logger.WithFields(log.Fields{
		"type":     s.TypeName(),
		"params":   model.Fingerprint(s.Requirements().Params),
		"duration": time.Since(start),
	})
	if es, ok := s.(*model.EntitySpec); ok && es.ID != "" {
		entry = entry.WithField("id", es.ID)
	}
	if err != nil {
		entry.WithError(err).Warn("remote fetch failed")
		return
	}
	entry.Debug("remote fetch")
}
