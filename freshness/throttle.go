// Package freshness throttles background revalidations: a spec is checked
// against the remote at most once per interval.
package freshness

import (
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/policy"
)

const (
	// DefaultInterval is the minimum time between two checks of one spec.
	DefaultInterval = 10 * time.Second

	// DefaultCapacity bounds the number of remembered check timestamps.
	DefaultCapacity = 10_000
)

// Config configures a Throttle. Zero fields take the defaults.
type Config struct {
	Interval time.Duration
	Capacity int64

	// Policies may override the interval per type.
	Policies *policy.Resolver
}

// Throttle remembers when each spec was last checked for freshness. Entries
// are held in a bounded ristretto cache, so a forgotten entry only means one
// extra check.
type Throttle struct {
	rc       *ristretto.Cache[string, int64]
	interval time.Duration
	policies *policy.Resolver

	// mu serialises writers so stored timestamps never go backwards and
	// TryCheckFresh claims a key at most once per interval.
	mu sync.Mutex

	// nowFunc is overridable for testing.
	nowFunc func() time.Time
}

// New creates a Throttle.
func New(cfg Config) (*Throttle, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, int64]{
		NumCounters:        cfg.Capacity * 10,
		MaxCost:            cfg.Capacity,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Throttle{
		rc:       rc,
		interval: cfg.Interval,
		policies: cfg.Policies,
		nowFunc:  time.Now,
	}, nil
}

// Key returns the throttle key of s: its type name and params.
func Key(s model.Spec) string {
	return `{"name":` + strconv.Quote(s.TypeName()) + `,"params":` + model.Fingerprint(s.Requirements().Params) + `}`
}

// ShouldCheckFresh reports whether s has not been checked within its
// interval.
func (t *Throttle) ShouldCheckFresh(s model.Spec) bool {
	ts, ok := t.rc.Get(Key(s))
	if !ok {
		return true
	}
	return t.nowFunc().UnixNano()-ts > int64(t.intervalFor(s.TypeName()))
}

// DidCheckFresh records that s is being checked now.
func (t *Throttle) DidCheckFresh(s model.Spec) {
	key := Key(s)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFunc().UnixNano()
	if prev, ok := t.rc.Get(key); ok && prev >= now {
		return
	}
	t.rc.Set(key, now, 1)
	t.rc.Wait()
}

// TryCheckFresh records a check of s and reports true when s was due. Of
// several concurrent callers for one spec, exactly one wins.
func (t *Throttle) TryCheckFresh(s model.Spec) bool {
	key := Key(s)
	interval := int64(t.intervalFor(s.TypeName()))

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFunc().UnixNano()
	if prev, ok := t.rc.Get(key); ok && now-prev <= interval {
		return false
	}
	t.rc.Set(key, now, 1)
	t.rc.Wait()
	return true
}

func (t *Throttle) intervalFor(typeName string) time.Duration {
	if _, pol, ok := t.policies.Resolve(typeName); ok && pol != nil && pol.FreshInterval > 0 {
		return pol.FreshInterval
	}
	return t.interval
}

// Close releases the underlying cache.
func (t *Throttle) Close() {
	t.rc.Close()
}
