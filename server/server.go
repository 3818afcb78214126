// Package server hosts the rendr.Remote gRPC service behind an ordered chain
// of interceptors.
package server

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/nagiek/rendr/rpc"
)

// Server wraps a grpc.Server with the remote service registered.
type Server struct {
	grpcServer *grpc.Server
	gatherer   prometheus.Gatherer
}

// New creates a Server serving h. Interceptor order is fixed by the Order
// constants, not by the order options are passed in.
func New(h rpc.Handler, opts ...Option) *Server {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.gatherer == nil {
		cfg.gatherer = prometheus.DefaultGatherer
	}

	var serverOpts []grpc.ServerOption
	if o := cfg.middlewares.ServerOption(); o != nil {
		serverOpts = append(serverOpts, o)
	}
	serverOpts = append(serverOpts, cfg.serverOpts...)

	s := &Server{
		grpcServer: grpc.NewServer(serverOpts...),
		gatherer:   cfg.gatherer,
	}
	if h != nil {
		rpc.Register(s.grpcServer, h)
	}
	return s
}

// GRPC returns the underlying *grpc.Server so callers can register more
// services.
func (s *Server) GRPC() *grpc.Server {
	return s.grpcServer
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	stop := context.AfterFunc(ctx, s.grpcServer.GracefulStop)
	defer stop()
	return s.grpcServer.Serve(lis)
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func (s *Server) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}
