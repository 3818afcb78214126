package remote

import (
	"slices"

	"github.com/nagiek/rendr/model"
)

// Op is a filter operator.
type Op int

const (
	// OpEqual matches attributes equal to the value.
	OpEqual Op = iota
	// OpContainedIn matches attributes equal to any element of the value.
	OpContainedIn
)

func (o Op) String() string {
	if o == OpContainedIn {
		return "containedIn"
	}
	return "equalTo"
}

// Filter is one query constraint derived from spec params.
type Filter struct {
	Key   string
	Op    Op
	Value any
}

// Filters turns params into constraints, in key order. List values become
// OpContainedIn, everything else OpEqual.
func Filters(p model.Params) []Filter {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]Filter, 0, len(keys))
	for _, k := range keys {
		v := p[k]
		op := OpEqual
		if model.IsSequence(v) {
			op = OpContainedIn
		}
		out = append(out, Filter{Key: k, Op: op, Value: v})
	}
	return out
}

// Match reports whether attrs satisfy f.
func (f Filter) Match(attrs map[string]any) bool {
	got, ok := attrs[f.Key]
	if !ok {
		return false
	}
	if f.Op == OpContainedIn {
		for _, want := range model.Sequence(f.Value) {
			if model.ValuesEqual(got, want) {
				return true
			}
		}
		return false
	}
	return model.ValuesEqual(got, f.Value)
}

// MatchAll reports whether attrs satisfy every filter.
func MatchAll(fs []Filter, attrs map[string]any) bool {
	for _, f := range fs {
		if !f.Match(attrs) {
			return false
		}
	}
	return true
}
