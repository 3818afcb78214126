package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nagiek/rendr/ratelimit"
)

var errRateLimited = status.Error(codes.ResourceExhausted, "rate limit exceeded")

// typed is implemented by requests that name the type they fetch.
type typed interface {
	TypeName() string
}

// RateLimitUnary rejects calls with ResourceExhausted once the limiter for
// the requested type is exhausted. Requests that do not name a type count
// against the global bucket.
func RateLimitUnary(k *ratelimit.Keyed) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var typeName string
		if t, ok := req.(typed); ok {
			typeName = t.TypeName()
		}
		if !k.Allow(typeName) {
			return nil, errRateLimited
		}
		return handler(ctx, req)
	}
}
