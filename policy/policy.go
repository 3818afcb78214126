// Package policy assigns per-type fetch policies. Types are grouped by exact
// name, name prefix or regular expression; the resolver picks the most
// specific group for a type name.
package policy

import (
	"regexp"
	"time"
)

// RateLimitRule bounds how many background revalidations a group may start.
type RateLimitRule struct {
	// Rate is the number of revalidations allowed per Window.
	Rate   int
	Window time.Duration
}

// Policy is what applies to the types of a matched group.
type Policy struct {
	// FreshInterval overrides the throttle's default interval between two
	// freshness checks of the same spec. Zero keeps the default.
	FreshInterval time.Duration

	// Revalidate, when set, gives the group its own revalidation rate.
	Revalidate *RateLimitRule
}

type matchKind int

const (
	kindExact matchKind = iota
	kindPrefix
	kindRegex
)

type rule struct {
	kind    matchKind
	pattern string
	re      *regexp.Regexp
}

// GroupBuilder collects the matching rules and the policy of one group.
type GroupBuilder struct {
	name   string
	rules  []rule
	policy *Policy
}

// Group starts a named group.
func Group(name string) *GroupBuilder {
	return &GroupBuilder{name: name}
}

// Exact matches the type name exactly.
func (g *GroupBuilder) Exact(typeName string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindExact, pattern: typeName})
	return g
}

// Prefix matches every type name starting with prefix.
func (g *GroupBuilder) Prefix(prefix string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindPrefix, pattern: prefix})
	return g
}

// Regex matches type names against expr. It panics on an invalid expression;
// use regexp.Compile first when expr comes from user input.
func (g *GroupBuilder) Regex(expr string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindRegex, pattern: expr, re: regexp.MustCompile(expr)})
	return g
}

// Policy sets the group's policy.
func (g *GroupBuilder) Policy(p Policy) *GroupBuilder {
	g.policy = &p
	return g
}

// Name returns the group name.
func (g *GroupBuilder) Name() string { return g.name }
