package policy

import "strings"

func (r *rule) match(typeName string) (bool, int) {
	switch r.kind {
	case kindExact:
		if typeName == r.pattern {
			return true, len(r.pattern)
		}
	case kindPrefix:
		if strings.HasPrefix(typeName, r.pattern) {
			return true, len(r.pattern)
		}
	case kindRegex:
		if loc := r.re.FindStringIndex(typeName); loc != nil {
			return true, loc[1] - loc[0]
		}
	}
	return false, 0
}

// Resolver maps type names to groups.
type Resolver struct {
	groups []*GroupBuilder
}

// NewResolver builds a resolver over groups, in registration order.
func NewResolver(groups ...*GroupBuilder) *Resolver {
	return &Resolver{groups: groups}
}

// Resolve returns the group that best matches typeName.
//
// Exact rules beat prefix rules, which beat regex rules. Within a kind the
// longer match wins, and on a full tie the group registered first wins.
// A nil resolver never matches.
func (res *Resolver) Resolve(typeName string) (group string, pol *Policy, ok bool) {
	if res == nil {
		return "", nil, false
	}
	bestKind, bestLen := matchKind(-1), -1
	for _, g := range res.groups {
		for i := range g.rules {
			r := &g.rules[i]
			matched, n := r.match(typeName)
			if !matched {
				continue
			}
			if bestKind < 0 || r.kind < bestKind || (r.kind == bestKind && n > bestLen) {
				bestKind, bestLen = r.kind, n
				group, pol, ok = g.name, g.policy, true
			}
		}
	}
	return group, pol, ok
}

// Groups returns the registered groups.
func (res *Resolver) Groups() []*GroupBuilder {
	if res == nil {
		return nil
	}
	return res.groups
}
