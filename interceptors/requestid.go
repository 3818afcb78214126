package interceptors

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/nagiek/rendr/contextx"
)

// RequestIDKey is the metadata key carrying a request ID.
const RequestIDKey = "x-request-id"

func newRequestID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// RequestIDUnary puts a request ID in the context: the caller's when its
// metadata carries one, a fresh one otherwise. The ID is echoed back in the
// response header.
func RequestIDUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := contextx.RequestIDFromContext(ctx)
		if id == "" {
			if md, ok := metadata.FromIncomingContext(ctx); ok {
				if vals := md.Get(RequestIDKey); len(vals) > 0 {
					id = vals[0]
				}
			}
		}
		if id == "" {
			id = newRequestID()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, id))
		return handler(contextx.WithRequestID(ctx, id), req)
	}
}
