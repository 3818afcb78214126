// Package memory is an in-process Remote. It backs tests, examples and the
// demo server, and counts the calls it receives.
package memory

import (
	"context"
	"sync"

	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/registry"
	"github.com/nagiek/rendr/remote"
)

type ref struct{ typ, id string }

// Backend holds entities per type in insertion order, plus relations.
type Backend struct {
	reg registry.Registry

	mu        sync.RWMutex
	tables    map[string][]*model.Entity
	relations map[model.Relation][]ref
	failures  map[string]error
	calls     map[string]int
}

// New creates an empty backend. reg maps collection types to entity types;
// it may be nil.
func New(reg registry.Registry) *Backend {
	return &Backend{
		reg:       reg,
		tables:    make(map[string][]*model.Entity),
		relations: make(map[model.Relation][]ref),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
}

// Put stores copies of entities, replacing any with the same type and id.
func (b *Backend) Put(entities ...*model.Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range entities {
		b.put(e.Clone())
	}
}

func (b *Backend) put(e *model.Entity) {
	rows := b.tables[e.Type]
	for i, r := range rows {
		if e.ID != "" && r.ID == e.ID {
			rows[i] = e
			return
		}
	}
	b.tables[e.Type] = append(rows, e)
}

// Relate records children under the parent's relation key. The children are
// stored too.
func (b *Backend) Relate(parentType, parentID, key string, children ...*model.Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rel := model.Relation{ParentType: parentType, ParentID: parentID, Key: key}
	for _, c := range children {
		b.put(c.Clone())
		b.relations[rel] = append(b.relations[rel], ref{typ: c.Type, id: c.ID})
	}
}

// FailWith makes every call for typeName fail with err until cleared with a
// nil err.
func (b *Backend) FailWith(typeName string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, typeName)
		return
	}
	b.failures[typeName] = err
}

// Calls returns how many calls were made for typeName.
func (b *Backend) Calls(typeName string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.calls[typeName]
}

// TotalCalls returns the number of calls made for all types.
func (b *Backend) TotalCalls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func (b *Backend) begin(ctx context.Context, typeName string) error {
	b.mu.Lock()
	b.calls[typeName]++
	err := b.failures[typeName]
	b.mu.Unlock()
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}

// FetchEntity looks the entity up by id, or returns the first entity whose
// attributes match the params. No match is a 404 FetchError.
func (b *Backend) FetchEntity(ctx context.Context, s *model.EntitySpec) (*model.Entity, error) {
	if err := b.begin(ctx, s.Type); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	filters := remote.Filters(s.Params)
	for _, e := range b.tables[s.Type] {
		if s.ID != "" && e.ID != s.ID {
			continue
		}
		if s.ID != "" || remote.MatchAll(filters, e.Attributes) {
			return e.Clone(), nil
		}
	}
	return nil, remote.NotFound(s)
}

// FetchCollection returns the entities matching the params, or the related
// children when s names a relation. Meta carries the count.
func (b *Backend) FetchCollection(ctx context.Context, s *model.CollectionSpec) (*model.Collection, error) {
	if err := b.begin(ctx, s.Type); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	typ := registry.EntityTypeOr(b.reg, s.Type)
	filters := remote.Filters(s.Params)
	var candidates []*model.Entity
	if s.Relation != nil {
		for _, r := range b.relations[*s.Relation] {
			if e := b.lookup(r.typ, r.id); e != nil && e.Type == typ {
				candidates = append(candidates, e)
			}
		}
	} else {
		candidates = b.tables[typ]
	}

	items := []*model.Entity{}
	for _, e := range candidates {
		if remote.MatchAll(filters, e.Attributes) {
			items = append(items, e.Clone())
		}
	}
	return &model.Collection{
		Type:   s.Type,
		Params: s.CacheParams(),
		Items:  items,
		Meta:   map[string]any{"count": len(items)},
	}, nil
}

func (b *Backend) lookup(typ, id string) *model.Entity {
	for _, e := range b.tables[typ] {
		if e.ID == id {
			return e
		}
	}
	return nil
}
