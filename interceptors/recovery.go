// Package interceptors holds the unary server interceptors of the remote
// service.
package interceptors

import (
	"context"
	"runtime/debug"

	"github.com/apex/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nagiek/rendr/contextx"
)

// RecoveryUnary turns a handler panic into an Internal error and logs it
// with the stack.
func RecoveryUnary(logger log.Interface) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = log.Log
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(log.Fields{
					"method":     info.FullMethod,
					"request_id": contextx.RequestIDFromContext(ctx),
					"panic":      r,
					"stack":      string(debug.Stack()),
				}).Error("handler panicked")
				resp = nil
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
