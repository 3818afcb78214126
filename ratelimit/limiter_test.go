package ratelimit_test

import (
	"testing"
	"time"

	"github.com/nagiek/rendr/policy"
	"github.com/nagiek/rendr/ratelimit"
)

func TestLimiter_AllowUnderLimit(t *testing.T) {
	l := ratelimit.NewLimiter(1, 5)
	for i := range 5 {
		if !l.Allow() {
			t.Fatalf("expected Allow() == true for event %d", i)
		}
	}
}

func TestLimiter_BlocksWhenBurstExhausted(t *testing.T) {
	l := ratelimit.NewLimiter(0.001, 2)
	l.Allow()
	l.Allow()
	if l.Allow() {
		t.Fatal("expected Allow() == false after burst exhausted")
	}
}

func TestLimiter_NonPositiveRateIsUnlimited(t *testing.T) {
	l := ratelimit.NewLimiter(0, 0)
	for range 1000 {
		if !l.Allow() {
			t.Fatal("unlimited limiter refused an event")
		}
	}
	var nilLimiter *ratelimit.Limiter
	if !nilLimiter.Allow() {
		t.Fatal("nil limiter must allow")
	}
}

func TestKeyed_GroupBucketIsSeparate(t *testing.T) {
	res := policy.NewResolver(
		policy.Group("feeds").Prefix("Feed").Policy(policy.Policy{
			Revalidate: &policy.RateLimitRule{Rate: 1, Window: time.Hour},
		}),
	)
	k := ratelimit.NewKeyed(ratelimit.NewLimiter(0.001, 1), res)

	if !k.Allow("FeedItem") {
		t.Fatal("first group event should pass")
	}
	if k.Allow("FeedPost") {
		t.Fatal("group bucket is shared across the group's types")
	}
	if !k.Allow("User") {
		t.Fatal("global bucket is independent of the group")
	}
	if k.Allow("Team") {
		t.Fatal("global bucket should now be exhausted")
	}
}

func TestKeyed_NilAllows(t *testing.T) {
	var k *ratelimit.Keyed
	if !k.Allow("User") {
		t.Fatal("nil keyed limiter must allow")
	}
}
