package model

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Params holds the filter parameters of a spec or a collection.
type Params map[string]any

// Fingerprint returns a stable serialisation of p. Map keys are emitted in
// sorted order at every depth, so params with equal content always produce
// the same fingerprint. Nil and empty params fingerprint alike.
func Fingerprint(p Params) string {
	if len(p) == 0 {
		return "{}"
	}
	b, err := json.Marshal(map[string]any(p))
	if err != nil {
		// fmt also prints maps in key order.
		return fmt.Sprintf("%v", map[string]any(p))
	}
	return string(b)
}

// Clone returns a shallow copy of p. A nil receiver yields nil.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Without returns a copy of p minus the named key.
func (p Params) Without(key string) Params {
	out := p.Clone()
	delete(out, key)
	return out
}

// IsSequence reports whether v is a list value (slice or array). Strings and
// byte slices are scalars.
func IsSequence(v any) bool {
	switch v.(type) {
	case nil, string, []byte:
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// Sequence flattens a list value into []any. Non-sequences yield nil.
func Sequence(v any) []any {
	if !IsSequence(v) {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// ValuesEqual compares two attribute values. Values that differ only in Go
// representation (int vs float64 after a JSON round trip) compare equal.
func ValuesEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}
