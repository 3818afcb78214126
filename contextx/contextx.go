// Package contextx carries per-request values through a context: the caller
// on whose behalf remote fetches run, and the request ID used to correlate
// logs and upstream calls.
package contextx

import "context"

// key is a typed context key; each value has its own instance.
type key[T any] struct{ name string }

func (k *key[T]) with(ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, k, v)
}

func (k *key[T]) from(ctx context.Context) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

var (
	actorKey     = &key[Actor]{"actor"}
	requestIDKey = &key[string]{"request-id"}
)

// Actor is the caller behind a fetch. Remotes forward SessionToken upstream
// so the backend can apply the caller's access rules.
type Actor struct {
	Subject      string
	SessionToken string
}

// WithActor returns a context carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return actorKey.with(ctx, a)
}

// ActorFromContext returns the Actor stored in ctx, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	return actorKey.from(ctx)
}

// SessionToken returns the session token of the actor in ctx, or "".
func SessionToken(ctx context.Context) string {
	a, _ := actorKey.from(ctx)
	return a.SessionToken
}

// WithRequestID returns a context carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return requestIDKey.with(ctx, id)
}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := requestIDKey.from(ctx)
	return id
}
