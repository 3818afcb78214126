// Package model defines the value types shared by the caches, the fetcher and
// the remote adapters: entities, collections, fetch specs and summaries.
package model

import "maps"

// Resource is either an *Entity or a *Collection.
type Resource interface {
	TypeName() string
	resource()
}

// Entity is a single typed record. Entities are always handled by pointer;
// caches and fetch results hand out the same instance to every reader.
type Entity struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`

	refreshed Signal[*Entity]
}

// NewEntity builds an entity. A nil attrs map is replaced with an empty one.
func NewEntity(typ, id string, attrs map[string]any) *Entity {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &Entity{Type: typ, ID: id, Attributes: attrs}
}

func (e *Entity) TypeName() string { return e.Type }
func (*Entity) resource()          {}

// HasID reports whether the entity has been assigned an identifier.
func (e *Entity) HasID() bool { return e != nil && e.ID != "" }

// Attr returns a single attribute.
func (e *Entity) Attr(key string) (any, bool) {
	v, ok := e.Attributes[key]
	return v, ok
}

// Refreshed fires with the newer version when a background revalidation finds
// that this entity changed upstream.
func (e *Entity) Refreshed() *Signal[*Entity] { return &e.refreshed }

// Clone copies the entity without its subscribers.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	return &Entity{Type: e.Type, ID: e.ID, Attributes: maps.Clone(e.Attributes)}
}

// Equal compares type, id and attributes.
func (e *Entity) Equal(o *Entity) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Type == o.Type && e.ID == o.ID && attrsEqual(e.Attributes, o.Attributes)
}

// Collection is an ordered list of entities fetched for one set of params.
type Collection struct {
	Type   string         `json:"type"`
	Params Params         `json:"params,omitempty"`
	Items  []*Entity      `json:"items"`
	Meta   map[string]any `json:"meta,omitempty"`

	refreshed Signal[*Collection]
}

func (c *Collection) TypeName() string { return c.Type }
func (*Collection) resource()          {}

// IDs returns the item ids in order. Items without an id contribute "".
func (c *Collection) IDs() []string {
	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		if it != nil {
			ids[i] = it.ID
		}
	}
	return ids
}

// Refreshed fires with the newer version when a background revalidation finds
// that this collection changed upstream.
func (c *Collection) Refreshed() *Signal[*Collection] { return &c.refreshed }

// Equal compares type, params, meta and every item in order.
func (c *Collection) Equal(o *Collection) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.Type != o.Type || len(c.Items) != len(o.Items) {
		return false
	}
	if Fingerprint(c.Params) != Fingerprint(o.Params) || !attrsEqual(c.Meta, o.Meta) {
		return false
	}
	for i := range c.Items {
		if !c.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	return true
}

// Attributes returns what key requirements are checked against: the entity
// attributes, or the collection meta.
func Attributes(r Resource) map[string]any {
	switch r := r.(type) {
	case *Entity:
		if r != nil {
			return r.Attributes
		}
	case *Collection:
		if r != nil {
			return r.Meta
		}
	}
	return nil
}

// IsNil reports whether r is nil or wraps a nil pointer.
func IsNil(r Resource) bool {
	switch r := r.(type) {
	case nil:
		return true
	case *Entity:
		return r == nil
	case *Collection:
		return r == nil
	}
	return false
}

func attrsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !ValuesEqual(av, bv) {
			return false
		}
	}
	return true
}
