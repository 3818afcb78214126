package core

import (
	"cmp"
	"slices"

	"google.golang.org/grpc"
)

// middleware is one interceptor with its position in the chain. Lower Order
// values run first.
type middleware struct {
	Unary grpc.UnaryServerInterceptor
	Order int
}

// MiddlewareBuilder collects interceptors and sorts them for chaining.
type MiddlewareBuilder struct {
	entries []middleware
}

// Add registers an interceptor at the given order. Nil interceptors are
// ignored.
func (b *MiddlewareBuilder) Add(order int, unary grpc.UnaryServerInterceptor) {
	if unary == nil {
		return
	}
	b.entries = append(b.entries, middleware{Unary: unary, Order: order})
}

// Len returns the number of registered interceptors.
func (b *MiddlewareBuilder) Len() int { return len(b.entries) }

// ServerOption installs the sorted interceptors as one chain, the lowest
// Order outermost. It returns nil when nothing was added.
func (b *MiddlewareBuilder) ServerOption() grpc.ServerOption {
	if len(b.entries) == 0 {
		return nil
	}
	return grpc.ChainUnaryInterceptor(b.Build()...)
}

// Build sorts the interceptors by Order, keeping registration order among
// equal orders.
func (b *MiddlewareBuilder) Build() []grpc.UnaryServerInterceptor {
	slices.SortStableFunc(b.entries, func(a, c middleware) int {
		return cmp.Compare(a.Order, c.Order)
	})

	unary := make([]grpc.UnaryServerInterceptor, 0, len(b.entries))
	for _, m := range b.entries {
		unary = append(unary, m.Unary)
	}
	return unary
}
