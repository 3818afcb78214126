package auth_test

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/nagiek/rendr/auth"
	"github.com/nagiek/rendr/contextx"
	"github.com/nagiek/rendr/interceptors"
)

func TestSessionToken_CopiesTokenIntoActor(t *testing.T) {
	fn := auth.SessionToken(false)
	md := metadata.Pairs(auth.SessionTokenKey, "r:abc")

	ctx, err := fn(t.Context(), "/rendr.Remote/FetchEntity", md)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := contextx.SessionToken(ctx); got != "r:abc" {
		t.Fatalf("got token %q, want r:abc", got)
	}
}

func TestSessionToken_KeepsExistingSubject(t *testing.T) {
	fn := auth.SessionToken(false)
	base := contextx.WithActor(t.Context(), contextx.Actor{Subject: "svc"})

	ctx, err := fn(base, "/m", metadata.Pairs(auth.SessionTokenKey, "r:abc"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := contextx.ActorFromContext(ctx)
	if a.Subject != "svc" || a.SessionToken != "r:abc" {
		t.Fatalf("unexpected actor %+v", a)
	}
}

func TestSessionToken_Optional(t *testing.T) {
	ctx, err := auth.SessionToken(false)(t.Context(), "/m", metadata.MD{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := contextx.ActorFromContext(ctx); ok {
		t.Fatal("no actor expected without a token")
	}
}

func TestSessionToken_RequiredThroughInterceptor(t *testing.T) {
	ic := interceptors.AuthUnary(auth.SessionToken(true))
	handler := func(_ context.Context, _ any) (any, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	}

	_, err := ic(t.Context(), "req", &grpc.UnaryServerInfo{FullMethod: "/rendr.Remote/FetchEntity"}, handler)
	if st, _ := status.FromError(err); st.Code() != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestAuthUnary_PassesEnrichedContext(t *testing.T) {
	ic := interceptors.AuthUnary(auth.SessionToken(true))
	ctx := metadata.NewIncomingContext(t.Context(), metadata.Pairs(auth.SessionTokenKey, "r:xyz"))

	var got string
	handler := func(ctx context.Context, _ any) (any, error) {
		got = contextx.SessionToken(ctx)
		return "ok", nil
	}
	if _, err := ic(ctx, "req", &grpc.UnaryServerInfo{FullMethod: "/m"}, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "r:xyz" {
		t.Fatalf("handler saw token %q", got)
	}
}

func TestAuthUnary_KeepsStatusErrors(t *testing.T) {
	denied := func(ctx context.Context, _ string, _ metadata.MD) (context.Context, error) {
		return ctx, status.Error(codes.PermissionDenied, "nope")
	}
	ic := interceptors.AuthUnary(denied)
	_, err := ic(t.Context(), "req", &grpc.UnaryServerInfo{}, func(context.Context, any) (any, error) { return nil, nil })
	if st, _ := status.FromError(err); st.Code() != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
	if errors.Is(err, auth.ErrMissingSession) {
		t.Fatal("unexpected sentinel")
	}
}
