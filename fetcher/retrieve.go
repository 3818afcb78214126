package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/registry"
)

// RetrieveModels returns the cached entities of typ for ids. The result
// lines up with ids; an id missing from the cache yields a nil entry.
func (f *Fetcher) RetrieveModels(ctx context.Context, typ string, ids []string) []*model.Entity {
	out := make([]*model.Entity, len(ids))
	for i, id := range ids {
		out[i] = f.entities.Get(ctx, typ, id)
	}
	return out
}

// RetrieveModelsForCollectionName is RetrieveModels for the entity type held
// by the named collection.
func (f *Fetcher) RetrieveModelsForCollectionName(ctx context.Context, collection string, ids []string) []*model.Entity {
	return f.RetrieveModels(ctx, registry.EntityTypeOr(f.registry, collection), ids)
}

// Summarize describes r compactly.
func (f *Fetcher) Summarize(r model.Resource) model.Summary {
	return model.Summarize(r)
}

// Bootstrap is one serialised result: its summary plus the raw attributes,
// an object for an entity or an array of objects for a collection.
type Bootstrap struct {
	Summary model.Summary   `json:"summary"`
	Data    json.RawMessage `json:"data"`
}

// BootstrapPayload serialises results for BootstrapData on the other side.
func BootstrapPayload(results Results) (map[string]Bootstrap, error) {
	out := make(map[string]Bootstrap, len(results))
	for name, r := range results {
		var data any
		switch r := r.(type) {
		case *model.Entity:
			data = r.Attributes
		case *model.Collection:
			rows := make([]map[string]any, 0, len(r.Items))
			for _, it := range r.Items {
				rows = append(rows, it.Attributes)
			}
			data = rows
		default:
			continue
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("fetcher: serialising %q: %w", name, err)
		}
		out[name] = Bootstrap{Summary: model.Summarize(r), Data: raw}
	}
	return out, nil
}

// BootstrapData rebuilds resources from a server-rendered payload and stores
// them in the caches.
func (f *Fetcher) BootstrapData(ctx context.Context, payload map[string]Bootstrap) (Results, error) {
	results := make(Results, len(payload))
	for name, b := range payload {
		r, err := f.build(b)
		if err != nil {
			return nil, fmt.Errorf("fetcher: bootstrapping %q: %w", name, err)
		}
		results[name] = r
	}
	f.store(ctx, results)
	return results, nil
}

func (f *Fetcher) build(b Bootstrap) (model.Resource, error) {
	s := b.Summary
	switch {
	case s.IsCollection():
		var rows []map[string]any
		if len(b.Data) > 0 {
			if err := json.Unmarshal(b.Data, &rows); err != nil {
				return nil, err
			}
		}
		typ := registry.EntityTypeOr(f.registry, s.Collection)
		items := make([]*model.Entity, 0, len(rows))
		for _, row := range rows {
			items = append(items, f.entityFromAttrs(typ, row))
		}
		return &model.Collection{Type: s.Collection, Params: s.Params, Items: items, Meta: s.Meta}, nil

	case s.Model != "":
		var attrs map[string]any
		if len(b.Data) > 0 {
			if err := json.Unmarshal(b.Data, &attrs); err != nil {
				return nil, err
			}
		}
		e := f.entityFromAttrs(s.Model, attrs)
		if e.ID == "" {
			e.ID = s.ID
		}
		return e, nil
	}
	return nil, ErrEmptySummary
}

// entityFromAttrs takes the id from the type's id attribute.
func (f *Fetcher) entityFromAttrs(typ string, attrs map[string]any) *model.Entity {
	return model.NewEntity(typ, idString(attrs[f.registry.IDAttribute(typ)]), attrs)
}

func idString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	}
	return ""
}

// Hydrate resolves summaries from the caches alone. An entity missing from
// the cache keeps its name with a nil value; a missing collection is a
// *NotFoundError.
func (f *Fetcher) Hydrate(ctx context.Context, summaries map[string]model.Summary) (Results, error) {
	results := make(Results, len(summaries))
	for name, s := range summaries {
		switch {
		case s.IsCollection():
			c, ok := f.collections.Get(ctx, s.Collection, s.Params)
			if !ok {
				return nil, &NotFoundError{Type: s.Collection, Params: s.Params}
			}
			results[name] = c
		case s.Model != "":
			// A nil *Entity would be a non-nil Resource.
			if e := f.entities.Get(ctx, s.Model, s.ID); e != nil {
				results[name] = e
			} else {
				results[name] = nil
			}
		default:
			return nil, fmt.Errorf("fetcher: hydrating %q: %w", name, ErrEmptySummary)
		}
	}
	return results, nil
}
