package model

// RelationParam is the params key under which a relation is folded into the
// cache params of a relation-scoped collection.
const RelationParam = "$relatedTo"

// Require carries the cache requirements shared by both spec kinds.
type Require struct {
	// Params filter the remote query. For entity specs without an ID they
	// are also used to look the entity up in the cache.
	Params Params

	// EnsureKeys lists attributes that must be present and non-nil on a
	// cached entity (or in a cached collection's meta) for it to be used.
	EnsureKeys []string

	// ForceFetch always goes to the remote when reading from the cache.
	ForceFetch bool

	// NeedsFetch, when set, is asked about every cache candidate.
	NeedsFetch func(Resource) bool

	// CheckFresh schedules a throttled background revalidation when the
	// cached candidate is used.
	CheckFresh bool
}

// Spec describes one resource to resolve. It is either an *EntitySpec or a
// *CollectionSpec.
type Spec interface {
	TypeName() string
	Requirements() *Require
	spec()
}

// EntitySpec requests a single entity, by ID or by Params.
type EntitySpec struct {
	Type string
	ID   string
	Require
}

func (s *EntitySpec) TypeName() string       { return s.Type }
func (s *EntitySpec) Requirements() *Require { return &s.Require }
func (*EntitySpec) spec()                    {}

// Relation scopes a collection to the children of a parent entity.
type Relation struct {
	ParentType string `json:"parentType"`
	ParentID   string `json:"parentId"`
	Key        string `json:"key"`
}

// CollectionSpec requests a collection, optionally scoped to a relation.
type CollectionSpec struct {
	Type     string
	Relation *Relation
	Require
}

func (s *CollectionSpec) TypeName() string       { return s.Type }
func (s *CollectionSpec) Requirements() *Require { return &s.Require }
func (*CollectionSpec) spec()                    {}

// CacheParams returns the params the collection is cached under. A relation
// is folded in under RelationParam so different parents never share an entry.
func (s *CollectionSpec) CacheParams() Params {
	if s.Relation == nil {
		return s.Params
	}
	p := s.Params.Clone()
	if p == nil {
		p = Params{}
	}
	p[RelationParam] = map[string]any{
		"parentType": s.Relation.ParentType,
		"parentId":   s.Relation.ParentID,
		"key":        s.Relation.Key,
	}
	return p
}

// IdentityKey names what a spec asks the remote for. Two specs with the same
// key would produce the same remote request.
func IdentityKey(s Spec) string {
	switch s := s.(type) {
	case *EntitySpec:
		if s.ID != "" {
			return "model:" + s.Type + ":" + s.ID
		}
		return "model:" + s.Type + "?" + Fingerprint(s.Params)
	case *CollectionSpec:
		return "collection:" + s.Type + ":" + Fingerprint(s.CacheParams())
	}
	return ""
}

// splitRelation undoes CacheParams.
func splitRelation(p Params) (Params, *Relation) {
	raw, ok := p[RelationParam]
	if !ok {
		return p, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return p, nil
	}
	str := func(k string) string {
		s, _ := m[k].(string)
		return s
	}
	rel := &Relation{ParentType: str("parentType"), ParentID: str("parentId"), Key: str("key")}
	rest := p.Without(RelationParam)
	if len(rest) == 0 {
		rest = nil
	}
	return rest, rel
}
