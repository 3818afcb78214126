package cache

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/nagiek/rendr/model"
)

// EntityCache stores entities by (type, id). Entities without an id are never
// stored. The same *model.Entity is handed to every reader; callers that want
// a private copy should Clone it.
type EntityCache struct {
	mu    sync.RWMutex
	types map[string]*bucket

	l2    Backend
	l2TTL time.Duration
	log   log.Interface
}

// bucket keeps one type's entities in insertion order so Find is
// deterministic.
type bucket struct {
	order []string
	items map[string]*model.Entity
}

// EntityOption configures an EntityCache.
type EntityOption func(*EntityCache)

// WithBackend adds a second tier. Writes go to both tiers; misses fall through
// to the backend and hits are promoted.
func WithBackend(b Backend, ttl time.Duration) EntityOption {
	return func(c *EntityCache) {
		c.l2 = b
		c.l2TTL = ttl
	}
}

// WithLogger sets the logger used for backend decode failures.
func WithLogger(l log.Interface) EntityOption {
	return func(c *EntityCache) { c.log = l }
}

// NewEntityCache creates an empty cache.
func NewEntityCache(opts ...EntityOption) *EntityCache {
	c := &EntityCache{
		types: make(map[string]*bucket),
		log:   log.Log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Set stores e under (e.Type, e.ID), replacing any previous entry.
func (c *EntityCache) Set(ctx context.Context, e *model.Entity) {
	if !e.HasID() {
		return
	}
	c.mu.Lock()
	c.put(e)
	c.mu.Unlock()
	c.writeBackend(ctx, e)
}

// Get returns the entity stored under (typ, id), or nil.
func (c *EntityCache) Get(ctx context.Context, typ, id string) *model.Entity {
	if id == "" {
		return nil
	}
	c.mu.RLock()
	e := c.lookup(typ, id)
	c.mu.RUnlock()
	if e != nil || c.l2 == nil {
		return e
	}
	return c.readBackend(ctx, typ, id)
}

// Attributes returns a copy of the stored entity's attributes, or nil. It is
// the non-exact form of Get: callers may modify the result freely.
func (c *EntityCache) Attributes(ctx context.Context, typ, id string) map[string]any {
	e := c.Get(ctx, typ, id)
	if e == nil {
		return nil
	}
	return maps.Clone(e.Attributes)
}

// Find returns the first entity of typ, in insertion order, whose attributes
// match every key of params. Params holding nothing but the id attribute
// never match: such lookups must go through Get. Find only searches the
// in-process tier.
func (c *EntityCache) Find(_ context.Context, typ string, params model.Params, idAttr string) *model.Entity {
	if len(params.Without(idAttr)) == 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	b := c.types[typ]
	if b == nil {
		return nil
	}
	for _, id := range b.order {
		if e := b.items[id]; matches(e.Attributes, params) {
			return e
		}
	}
	return nil
}

// Rekey moves e to newID. The entity's ID field is updated in place.
func (c *EntityCache) Rekey(ctx context.Context, e *model.Entity, newID string) {
	if e == nil || newID == "" {
		return
	}
	c.mu.Lock()
	if b := c.types[e.Type]; b != nil && e.ID != "" && b.items[e.ID] == e {
		delete(b.items, e.ID)
		b.order = slices.DeleteFunc(b.order, func(id string) bool { return id == e.ID })
	}
	e.ID = newID
	c.put(e)
	c.mu.Unlock()
	c.writeBackend(ctx, e)
}

// Len returns the number of entities held in process.
func (c *EntityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, b := range c.types {
		n += len(b.items)
	}
	return n
}

func (c *EntityCache) put(e *model.Entity) {
	b := c.types[e.Type]
	if b == nil {
		b = &bucket{items: make(map[string]*model.Entity)}
		c.types[e.Type] = b
	}
	if _, ok := b.items[e.ID]; !ok {
		b.order = append(b.order, e.ID)
	}
	b.items[e.ID] = e
}

func (c *EntityCache) lookup(typ, id string) *model.Entity {
	if b := c.types[typ]; b != nil {
		return b.items[id]
	}
	return nil
}

func (c *EntityCache) writeBackend(ctx context.Context, e *model.Entity) {
	if c.l2 == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		c.log.WithError(err).WithField("type", e.Type).Debug("entity not written to backend")
		return
	}
	_ = c.l2.Set(ctx, entityKey(e.Type, e.ID), raw, c.l2TTL)
}

func (c *EntityCache) readBackend(ctx context.Context, typ, id string) *model.Entity {
	raw, ok, err := c.l2.Get(ctx, entityKey(typ, id))
	if err != nil || !ok {
		return nil
	}
	e := new(model.Entity)
	if err := json.Unmarshal(raw, e); err != nil {
		c.log.WithError(err).WithFields(log.Fields{"type": typ, "id": id}).Debug("discarding undecodable backend entry")
		return nil
	}
	if e.Type != typ || e.ID != id {
		return nil
	}
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur := c.lookup(typ, id); cur != nil {
		return cur
	}
	c.put(e)
	return e
}

func matches(attrs map[string]any, params model.Params) bool {
	for k, want := range params {
		got, ok := attrs[k]
		if !ok || !model.ValuesEqual(got, want) {
			return false
		}
	}
	return true
}
