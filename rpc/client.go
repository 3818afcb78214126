package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/nagiek/rendr/auth"
	"github.com/nagiek/rendr/contextx"
	"github.com/nagiek/rendr/interceptors"
	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/remote"
	"github.com/nagiek/rendr/retry"
)

// DefaultRetryCodes are retried when a ClientOption does not say otherwise.
var DefaultRetryCodes = []codes.Code{codes.Unavailable, codes.ResourceExhausted}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetry retries calls failing with one of the given codes, or
// DefaultRetryCodes when none are given.
func WithRetry(cfg retry.Config, cs ...codes.Code) ClientOption {
	return func(c *Client) {
		if len(cs) == 0 {
			cs = DefaultRetryCodes
		}
		if cfg.Retryable == nil {
			cfg.Retryable = retry.Codes(cs...)
		}
		c.retry = cfg
	}
}

// WithCallOptions appends call options to every call.
func WithCallOptions(opts ...grpc.CallOption) ClientOption {
	return func(c *Client) { c.callOpts = append(c.callOpts, opts...) }
}

// Client is a remote.Remote backed by a rendr.Remote service.
type Client struct {
	conn     grpc.ClientConnInterface
	retry    retry.Config
	callOpts []grpc.CallOption
}

var _ remote.Remote = (*Client)(nil)

// NewClient creates a Client on conn. The session token and request id in the
// call context are forwarded as metadata.
func NewClient(conn grpc.ClientConnInterface, opts ...ClientOption) *Client {
	c := &Client{conn: conn}
	for _, o := range opts {
		o(c)
	}
	c.callOpts = append([]grpc.CallOption{grpc.CallContentSubtype(ContentSubtype)}, c.callOpts...)
	return c
}

func (c *Client) FetchEntity(ctx context.Context, s *model.EntitySpec) (*model.Entity, error) {
	req := &EntityRequest{Type: s.Type, ID: s.ID, Params: s.Params, EnsureKeys: s.EnsureKeys}
	e, err := invoke[model.Entity](ctx, c, MethodFetchEntity, req)
	if err != nil {
		return nil, fetchError(s, err)
	}
	return e, nil
}

func (c *Client) FetchCollection(ctx context.Context, s *model.CollectionSpec) (*model.Collection, error) {
	req := &CollectionRequest{Type: s.Type, Params: s.Params, Relation: s.Relation, EnsureKeys: s.EnsureKeys}
	coll, err := invoke[model.Collection](ctx, c, MethodFetchCollection, req)
	if err != nil {
		return nil, fetchError(s, err)
	}
	return coll, nil
}

func invoke[T any](ctx context.Context, c *Client, method string, req any) (*T, error) {
	ctx = outgoing(ctx)
	return retry.Do(ctx, c.retry, func(ctx context.Context) (*T, error) {
		out := new(T)
		if err := c.conn.Invoke(ctx, method, req, out, c.callOpts...); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func outgoing(ctx context.Context) context.Context {
	var kv []string
	if tok := contextx.SessionToken(ctx); tok != "" {
		kv = append(kv, auth.SessionTokenKey, tok)
	}
	if id := contextx.RequestIDFromContext(ctx); id != "" {
		kv = append(kv, interceptors.RequestIDKey, id)
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// fetchError turns a status error back into a FetchError. The server's
// message becomes the body.
func fetchError(s model.Spec, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return remote.NewFetchError(s, 0, nil, err)
	}
	switch st.Code() {
	case codes.Canceled:
		return remote.NewFetchError(s, 0, nil, context.Canceled)
	case codes.DeadlineExceeded:
		return remote.NewFetchError(s, 0, nil, context.DeadlineExceeded)
	}
	return remote.NewFetchError(s, HTTPStatus(st.Code()), []byte(st.Message()), err)
}
