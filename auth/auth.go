// Package auth defines how the remote service authenticates callers.
package auth

import (
	"context"
	"errors"

	"google.golang.org/grpc/metadata"

	"github.com/nagiek/rendr/contextx"
)

// SessionTokenKey is the metadata key carrying a caller's session token.
const SessionTokenKey = "x-session-token"

// ErrMissingSession is returned by a required SessionToken check.
var ErrMissingSession = errors.New("auth: missing session token")

// AuthFunc authenticates one RPC. It receives the incoming metadata and
// returns a context enriched with whatever the handler needs, typically a
// contextx.Actor. Returning an error rejects the call.
type AuthFunc func(ctx context.Context, fullMethod string, md metadata.MD) (context.Context, error)

// SessionToken copies the caller's session token into the context actor so
// remote fetches run with the caller's rights. The token is not validated
// here; the upstream backend does that. With required set, calls without a
// token are rejected.
func SessionToken(required bool) AuthFunc {
	return func(ctx context.Context, _ string, md metadata.MD) (context.Context, error) {
		vals := md.Get(SessionTokenKey)
		if len(vals) == 0 || vals[0] == "" {
			if required {
				return ctx, ErrMissingSession
			}
			return ctx, nil
		}
		a, _ := contextx.ActorFromContext(ctx)
		a.SessionToken = vals[0]
		return contextx.WithActor(ctx, a), nil
	}
}
