package cache

import (
	"context"
	"slices"
	"sync"

	"github.com/nagiek/rendr/model"
)

// CollectionCache stores collections by (type, params fingerprint). Items are
// written through to the entity cache, and reads prefer the entity cache's
// version of each item so a collection never shows stale members.
type CollectionCache struct {
	mu       sync.RWMutex
	entries  map[string]*collectionEntry
	entities *EntityCache
}

type collectionEntry struct {
	typ    string
	params model.Params
	items  []*model.Entity
	meta   map[string]any
}

// NewCollectionCache creates an empty cache whose items are shared with
// entities.
func NewCollectionCache(entities *EntityCache) *CollectionCache {
	return &CollectionCache{
		entries:  make(map[string]*collectionEntry),
		entities: entities,
	}
}

func collectionKey(typ string, params model.Params) string {
	return typ + ":" + model.Fingerprint(params)
}

// Set stores c under (c.Type, c.Params) and its items in the entity cache.
func (cc *CollectionCache) Set(ctx context.Context, c *model.Collection) {
	if c == nil {
		return
	}
	for _, it := range c.Items {
		cc.entities.Set(ctx, it)
	}
	e := &collectionEntry{
		typ:    c.Type,
		params: c.Params,
		items:  slices.Clone(c.Items),
		meta:   c.Meta,
	}
	cc.mu.Lock()
	cc.entries[collectionKey(c.Type, c.Params)] = e
	cc.mu.Unlock()
}

// Get rebuilds the collection stored under (typ, params).
func (cc *CollectionCache) Get(ctx context.Context, typ string, params model.Params) (*model.Collection, bool) {
	cc.mu.RLock()
	e, ok := cc.entries[collectionKey(typ, params)]
	cc.mu.RUnlock()
	if !ok {
		return nil, false
	}

	items := make([]*model.Entity, len(e.items))
	for i, it := range e.items {
		items[i] = it
		if it.HasID() {
			if cur := cc.entities.Get(ctx, it.Type, it.ID); cur != nil {
				items[i] = cur
			}
		}
	}
	return &model.Collection{Type: e.typ, Params: e.params, Items: items, Meta: e.meta}, true
}

// Len returns the number of stored collections.
func (cc *CollectionCache) Len() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.entries)
}
