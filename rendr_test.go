package rendr

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagiek/rendr/fetcher"
	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/policy"
	"github.com/nagiek/rendr/registry"
	"github.com/nagiek/rendr/remote"
	"github.com/nagiek/rendr/remote/memory"
)

type mapBackend struct {
	data map[string][]byte
}

func (m *mapBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapBackend) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.data[key] = val
	return nil
}

func seeded() *memory.Backend {
	b := memory.New(&registry.Static{Collections: map[string]string{"Users": "User"}})
	b.Put(
		model.NewEntity("User", "1", map[string]any{"id": "1", "name": "ann"}),
		model.NewEntity("User", "2", map[string]any{"id": "2", "name": "bob"}),
	)
	return b
}

func TestNewRequiresRemote(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, fetcher.ErrNoRemote)
}

func TestNewDefaults(t *testing.T) {
	c, err := New(seeded(), DefaultOptions()...)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, fetcher.ModeClient, c.Mode())
	assert.Nil(t, c.Metrics())
}

func TestFetchThroughClient(t *testing.T) {
	b := seeded()
	reg := prometheus.NewRegistry()
	c, err := New(b,
		WithMode(fetcher.ModeServer),
		WithRegistry(&registry.Static{Collections: map[string]string{"Users": "User"}}),
		WithMetrics(reg),
	)
	require.NoError(t, err)
	defer c.Close()

	specs := map[string]model.Spec{
		"user":  &model.EntitySpec{Type: "User", ID: "1"},
		"users": &model.CollectionSpec{Type: "Users"},
	}
	res, err := c.Fetch(t.Context(), specs)
	require.NoError(t, err)
	assert.Equal(t, "ann", res.Entity("user").Attributes["name"])
	assert.Equal(t, []string{"1", "2"}, res.Collection("users").IDs())

	_, err = c.Fetch(t.Context(), specs)
	require.NoError(t, err)
	assert.Equal(t, 4, b.TotalCalls(), "server mode does not answer from the cache")
	assert.Equal(t, 0, c.Entities().Len())

	assert.Equal(t, fetcher.ModeServer, c.Mode())
	assert.NotNil(t, c.Metrics())
	n, err := testutil.GatherAndCount(reg, "rendr_remote_fetches_total")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestWithBackendWritesSecondTier(t *testing.T) {
	backend := &mapBackend{data: map[string][]byte{}}
	c, err := New(seeded(), WithBackend(backend, time.Minute))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Fetch(t.Context(), map[string]model.Spec{"u": &model.EntitySpec{Type: "User", ID: "2"}})
	require.NoError(t, err)
	assert.Len(t, backend.data, 1)
}

func TestRemoteMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) remote.Middleware {
		return func(next remote.Remote) remote.Remote {
			return remote.Funcs{
				Entity: func(ctx context.Context, s *model.EntitySpec) (*model.Entity, error) {
					order = append(order, name)
					return next.FetchEntity(ctx, s)
				},
			}
		}
	}

	c, err := New(seeded(), WithRemoteMiddleware(tag("outer")), WithRemoteMiddleware(tag("inner")))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Fetch(t.Context(), map[string]model.Spec{"u": &model.EntitySpec{Type: "User", ID: "1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestCheckFreshRevalidatesOnHit(t *testing.T) {
	b := seeded()
	res := policy.NewResolver(policy.Group("hot").Exact("User").Policy(policy.Policy{FreshInterval: time.Hour}))
	c, err := New(b, WithPolicies(res), WithRevalidateLimit(5, 5))
	require.NoError(t, err)

	e := &model.EntitySpec{Type: "User", ID: "1", Require: model.Require{CheckFresh: true}}
	for range 3 {
		_, err = c.Fetch(t.Context(), map[string]model.Spec{"u": e})
		require.NoError(t, err)
	}
	require.NoError(t, c.Close())

	// One miss, then a single revalidation: the throttle holds back the rest.
	assert.Equal(t, 2, b.Calls("User"))
}

func TestCloseRunsClosers(t *testing.T) {
	closed := false
	c, err := New(seeded(), func(cfg *config) {
		cfg.closers = append(cfg.closers, func() error { closed = true; return nil })
	})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.True(t, closed)
}
