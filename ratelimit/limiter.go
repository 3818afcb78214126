// Package ratelimit provides token-bucket limiters on golang.org/x/time/rate,
// optionally split per policy group by type name.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/nagiek/rendr/policy"
)

// Limiter is a single token bucket. A nil *Limiter allows everything.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter permits rps events per second with the given burst. A
// non-positive rps means unlimited.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return &Limiter{lim: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether one event may happen now.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.lim.Allow()
}

// Keyed picks a limiter per type name: types whose policy group carries a
// Revalidate rule share that group's bucket, everything else shares the
// global one. A nil *Keyed allows everything.
type Keyed struct {
	global   *Limiter
	resolver *policy.Resolver

	mu     sync.Mutex
	groups map[string]*Limiter
}

// NewKeyed builds a Keyed limiter over global and the resolver's groups.
func NewKeyed(global *Limiter, r *policy.Resolver) *Keyed {
	return &Keyed{global: global, resolver: r, groups: make(map[string]*Limiter)}
}

// Allow reports whether one event for typeName may happen now.
func (k *Keyed) Allow(typeName string) bool {
	if k == nil {
		return true
	}
	return k.limiterFor(typeName).Allow()
}

func (k *Keyed) limiterFor(typeName string) *Limiter {
	name, pol, ok := k.resolver.Resolve(typeName)
	if !ok || pol == nil || pol.Revalidate == nil || pol.Revalidate.Window <= 0 {
		return k.global
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok := k.groups[name]; ok {
		return l
	}
	rl := pol.Revalidate
	l := NewLimiter(float64(rl.Rate)/rl.Window.Seconds(), rl.Rate)
	k.groups[name] = l
	return l
}
