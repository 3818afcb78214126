package interceptors

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nagiek/rendr/policy"
	"github.com/nagiek/rendr/ratelimit"
)

type typedReq string

func (r typedReq) TypeName() string { return string(r) }

func TestRateLimitUnary_PerTypeBucket(t *testing.T) {
	res := policy.NewResolver(
		policy.Group("reports").Exact("Report").Policy(policy.Policy{
			Revalidate: &policy.RateLimitRule{Rate: 1, Window: time.Hour},
		}),
	)
	ic := RateLimitUnary(ratelimit.NewKeyed(ratelimit.NewLimiter(0, 0), res))
	ok := func(context.Context, any) (any, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/rendr.Remote/FetchCollection"}

	if _, err := ic(t.Context(), typedReq("Report"), info, ok); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := ic(t.Context(), typedReq("Report"), info, ok)
	if st, _ := status.FromError(err); st.Code() != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}
	for range 5 {
		if _, err := ic(t.Context(), typedReq("User"), info, ok); err != nil {
			t.Fatalf("unlimited global bucket refused: %v", err)
		}
	}
}

func TestRateLimitUnary_UntypedRequests(t *testing.T) {
	ic := RateLimitUnary(ratelimit.NewKeyed(ratelimit.NewLimiter(0.001, 1), nil))
	ok := func(context.Context, any) (any, error) { return nil, nil }

	if _, err := ic(t.Context(), "plain", &grpc.UnaryServerInfo{}, ok); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := ic(t.Context(), "plain", &grpc.UnaryServerInfo{}, ok); err == nil {
		t.Fatal("expected the global bucket to be exhausted")
	}
}
