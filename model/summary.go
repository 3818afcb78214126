package model

// Summary is the compact, serialisable description of a resolved resource.
// Entity summaries set Model and ID; collection summaries set Collection, IDs,
// Params and Meta.
type Summary struct {
	Model      string         `json:"model,omitempty"`
	ID         string         `json:"id,omitempty"`
	Collection string         `json:"collection,omitempty"`
	IDs        []string       `json:"ids,omitempty"`
	Params     Params         `json:"params,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// IsCollection reports whether s describes a collection.
func (s Summary) IsCollection() bool { return s.Collection != "" }

// Summarize describes r.
func Summarize(r Resource) Summary {
	switch r := r.(type) {
	case *Entity:
		return Summary{Model: r.Type, ID: r.ID}
	case *Collection:
		return Summary{Collection: r.Type, IDs: r.IDs(), Params: r.Params, Meta: r.Meta}
	}
	return Summary{}
}

// Spec turns the summary back into a spec that resolves the same resource.
func (s Summary) Spec() Spec {
	if s.IsCollection() {
		params, rel := splitRelation(s.Params)
		return &CollectionSpec{Type: s.Collection, Relation: rel, Require: Require{Params: params}}
	}
	return &EntitySpec{Type: s.Model, ID: s.ID}
}
