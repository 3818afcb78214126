package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nagiek/rendr/model"
)

func redisBackend(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}
	r := NewRedis(addr, "", 0).WithPrefix("rendr-test:")
	t.Cleanup(func() { _ = r.Close() })
	if err := r.Ping(t.Context()); err != nil {
		t.Fatalf("cannot reach Redis at %s: %v", addr, err)
	}
	return r
}

func TestRedis_GetSet(t *testing.T) {
	r := redisBackend(t)
	ctx := t.Context()
	key := "getset:" + t.Name()

	if _, ok, err := r.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := r.Set(ctx, key, []byte("v1"), 10*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(val) != "v1" {
		t.Fatalf("got %q, want v1", val)
	}
}

func TestRedis_SharedEntityTier(t *testing.T) {
	r := redisBackend(t)
	ctx := t.Context()
	id := "shared-" + t.Name()

	a := NewEntityCache(WithBackend(r, 30*time.Second))
	a.Set(ctx, model.NewEntity("User", id, map[string]any{"name": "ada"}))

	b := NewEntityCache(WithBackend(r, 30*time.Second))
	got := b.Get(ctx, "User", id)
	if got == nil {
		t.Fatal("expected entity from the shared tier")
	}
	if got.Attributes["name"] != "ada" {
		t.Fatalf("got %v", got.Attributes)
	}
}

func TestRedis_FailSoft(t *testing.T) {
	r := NewRedis("localhost:1", "", 0)
	t.Cleanup(func() { _ = r.Close() })

	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()

	if _, ok, err := r.Get(ctx, "no-such-key"); err != nil || ok {
		t.Fatalf("expected soft miss, got ok=%v err=%v", ok, err)
	}
	if err := r.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("expected nil error on unreachable Redis, got: %v", err)
	}

	c := NewEntityCache(WithBackend(r, time.Second))
	c.Set(ctx, model.NewEntity("User", "1", nil))
	if c.Get(ctx, "User", "2") != nil {
		t.Fatal("expected miss")
	}
}
