// Package registry answers the two questions the fetcher has about types:
// which attribute holds an entity's id, and which entity type a collection
// holds.
package registry

// DefaultIDAttribute is used for types with no explicit id attribute.
const DefaultIDAttribute = "id"

// Registry resolves type metadata by name.
type Registry interface {
	// IDAttribute returns the name of the attribute holding the id of
	// entities of the given type.
	IDAttribute(entityType string) string

	// EntityType returns the entity type held by the named collection.
	EntityType(collectionType string) (string, bool)
}

// Static is a map-backed Registry. A nil *Static answers with defaults.
type Static struct {
	// DefaultID overrides DefaultIDAttribute for every type not listed in
	// IDAttributes.
	DefaultID    string
	IDAttributes map[string]string
	Collections  map[string]string
}

func (s *Static) IDAttribute(entityType string) string {
	if s == nil {
		return DefaultIDAttribute
	}
	if a := s.IDAttributes[entityType]; a != "" {
		return a
	}
	if s.DefaultID != "" {
		return s.DefaultID
	}
	return DefaultIDAttribute
}

func (s *Static) EntityType(collectionType string) (string, bool) {
	if s == nil {
		return "", false
	}
	t, ok := s.Collections[collectionType]
	return t, ok && t != ""
}

// EntityTypeOr returns the entity type of the named collection, or the
// collection name itself when the registry does not know it.
func EntityTypeOr(r Registry, collectionType string) string {
	if r != nil {
		if t, ok := r.EntityType(collectionType); ok {
			return t
		}
	}
	return collectionType
}

// IDAttributeOr returns r's id attribute for the type, or DefaultIDAttribute
// when r is nil.
func IDAttributeOr(r Registry, entityType string) string {
	if r == nil {
		return DefaultIDAttribute
	}
	return r.IDAttribute(entityType)
}
