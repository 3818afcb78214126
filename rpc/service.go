// Package rpc carries the remote contract over gRPC. The service is declared
// with a hand-written grpc.ServiceDesc and JSON messages, so no protobuf code
// generation is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/remote"
)

// ServiceName is the gRPC service name.
const ServiceName = "rendr.Remote"

// Full method names.
const (
	MethodFetchEntity     = "/" + ServiceName + "/FetchEntity"
	MethodFetchCollection = "/" + ServiceName + "/FetchCollection"
)

// EntityRequest asks for one entity by id or by params.
type EntityRequest struct {
	Type       string       `json:"type"`
	ID         string       `json:"id,omitempty"`
	Params     model.Params `json:"params,omitempty"`
	EnsureKeys []string     `json:"ensureKeys,omitempty"`
}

// TypeName lets the rate-limit interceptor pick the type's bucket.
func (r *EntityRequest) TypeName() string { return r.Type }

// Spec converts the request back into a spec.
func (r *EntityRequest) Spec() *model.EntitySpec {
	return &model.EntitySpec{
		Type:    r.Type,
		ID:      r.ID,
		Require: model.Require{Params: r.Params, EnsureKeys: r.EnsureKeys},
	}
}

// CollectionRequest asks for a collection.
type CollectionRequest struct {
	Type       string          `json:"type"`
	Params     model.Params    `json:"params,omitempty"`
	Relation   *model.Relation `json:"relation,omitempty"`
	EnsureKeys []string        `json:"ensureKeys,omitempty"`
}

func (r *CollectionRequest) TypeName() string { return r.Type }

// Spec converts the request back into a spec.
func (r *CollectionRequest) Spec() *model.CollectionSpec {
	return &model.CollectionSpec{
		Type:     r.Type,
		Relation: r.Relation,
		Require:  model.Require{Params: r.Params, EnsureKeys: r.EnsureKeys},
	}
}

// Handler is the server side of the service.
type Handler interface {
	FetchEntity(ctx context.Context, req *EntityRequest) (*model.Entity, error)
	FetchCollection(ctx context.Context, req *CollectionRequest) (*model.Collection, error)
}

// ServiceDesc describes the rendr.Remote service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchEntity", Handler: fetchEntityHandler},
		{MethodName: "FetchCollection", Handler: fetchCollectionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rendr/remote.proto",
}

// Register registers h on s.
func Register(s grpc.ServiceRegistrar, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

func fetchEntityHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(EntityRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).FetchEntity(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodFetchEntity}
	handler := func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).FetchEntity(ctx, r.(*EntityRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func fetchCollectionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(CollectionRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).FetchCollection(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodFetchCollection}
	handler := func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).FetchCollection(ctx, r.(*CollectionRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// NewHandler serves r. Remote errors are returned as gRPC status errors.
func NewHandler(r remote.Remote) Handler {
	return remoteHandler{r: r}
}

type remoteHandler struct {
	r remote.Remote
}

func (h remoteHandler) FetchEntity(ctx context.Context, req *EntityRequest) (*model.Entity, error) {
	e, err := h.r.FetchEntity(ctx, req.Spec())
	if err != nil {
		return nil, ToStatus(err)
	}
	return e, nil
}

func (h remoteHandler) FetchCollection(ctx context.Context, req *CollectionRequest) (*model.Collection, error) {
	c, err := h.r.FetchCollection(ctx, req.Spec())
	if err != nil {
		return nil, ToStatus(err)
	}
	return c, nil
}
