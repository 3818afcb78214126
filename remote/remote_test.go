package remote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagiek/rendr/model"
)

func TestFilters(t *testing.T) {
	fs := Filters(model.Params{"b": []string{"x", "y"}, "a": 1})
	require.Len(t, fs, 2)
	assert.Equal(t, Filter{Key: "a", Op: OpEqual, Value: 1}, fs[0])
	assert.Equal(t, "b", fs[1].Key)
	assert.Equal(t, OpContainedIn, fs[1].Op)
	assert.Empty(t, Filters(nil))
}

func TestFilterMatch(t *testing.T) {
	attrs := map[string]any{"role": "dev", "age": float64(30)}

	assert.True(t, Filter{Key: "role", Op: OpEqual, Value: "dev"}.Match(attrs))
	assert.True(t, Filter{Key: "age", Op: OpEqual, Value: 30}.Match(attrs))
	assert.False(t, Filter{Key: "role", Op: OpEqual, Value: "ops"}.Match(attrs))
	assert.False(t, Filter{Key: "team", Op: OpEqual, Value: "a"}.Match(attrs))
	assert.True(t, Filter{Key: "role", Op: OpContainedIn, Value: []string{"ops", "dev"}}.Match(attrs))
	assert.False(t, Filter{Key: "role", Op: OpContainedIn, Value: []any{"ops"}}.Match(attrs))
}

func TestFetchErrorTruncatesBody(t *testing.T) {
	body := strings.Repeat("é", 200)
	fe := NewFetchError(&model.EntitySpec{Type: "User", ID: "1"}, 500, []byte(body), nil)

	assert.Equal(t, MaxBodyLen, len([]rune(fe.Body)))
	assert.Equal(t, 500, fe.Status)
	assert.Equal(t, "1", fe.ID)
}

func TestFetchErrorMessage(t *testing.T) {
	s := &model.CollectionSpec{Type: "Users", Require: model.Require{Params: model.Params{"team": "a"}}}
	fe := NewFetchError(s, 403, []byte(`{"error":"denied"}`), nil)
	assert.Equal(t, `fetching "Users" with params {"team":"a"}: status 403: {"error":"denied"}`, fe.Error())
}

func TestNotFound(t *testing.T) {
	err := error(NotFound(&model.EntitySpec{Type: "User"}))
	assert.True(t, errors.Is(err, ErrNoMatch))
	assert.Equal(t, 404, StatusOf(err))
	assert.Equal(t, 0, StatusOf(errors.New("other")))
}

func TestFuncsDefaultsToNotFound(t *testing.T) {
	_, err := Funcs{}.FetchEntity(context.Background(), &model.EntitySpec{Type: "User", ID: "1"})
	assert.Equal(t, 404, StatusOf(err))
}

func TestChainOrder(t *testing.T) {
	var trail []string
	tag := func(name string) Middleware {
		return func(next Remote) Remote {
			return Funcs{Entity: func(ctx context.Context, s *model.EntitySpec) (*model.Entity, error) {
				trail = append(trail, name)
				return next.FetchEntity(ctx, s)
			}}
		}
	}
	base := Funcs{Entity: func(context.Context, *model.EntitySpec) (*model.Entity, error) {
		trail = append(trail, "base")
		return model.NewEntity("User", "1", nil), nil
	}}

	r := Wrap(base, tag("outer"), tag("inner"))
	_, err := r.FetchEntity(t.Context(), &model.EntitySpec{Type: "User", ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "base"}, trail)
}

func TestLoggingMiddleware(t *testing.T) {
	h := memory.New()
	logger := &log.Logger{Handler: h, Level: log.DebugLevel}
	boom := errors.New("boom")
	base := Funcs{
		Entity: func(context.Context, *model.EntitySpec) (*model.Entity, error) {
			return model.NewEntity("User", "1", nil), nil
		},
		Collection: func(context.Context, *model.CollectionSpec) (*model.Collection, error) {
			return nil, boom
		},
	}
	r := Wrap(base, Logging(logger))

	_, err := r.FetchEntity(t.Context(), &model.EntitySpec{Type: "User", ID: "1"})
	require.NoError(t, err)
	_, err = r.FetchCollection(t.Context(), &model.CollectionSpec{Type: "Users"})
	require.ErrorIs(t, err, boom)

	require.Len(t, h.Entries, 2)
	assert.Equal(t, log.DebugLevel, h.Entries[0].Level)
	assert.Equal(t, "1", h.Entries[0].Fields["id"])
	assert.Equal(t, log.WarnLevel, h.Entries[1].Level)
	assert.Equal(t, "Users", h.Entries[1].Fields["type"])
}
