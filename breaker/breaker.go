// Package breaker is a small circuit breaker guarding calls to a remote.
//
// A Closed breaker lets calls through and counts consecutive failures. After
// FailureThreshold failures it opens and rejects calls with ErrOpen until
// OpenTimeout has passed, then lets HalfOpenMaxSuccess probes through. Probes
// that all succeed close it again; a failed probe reopens it.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Call while the breaker rejects calls.
var ErrOpen = errors.New("breaker: circuit open")

// State is the breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Config holds the breaker parameters. Zero fields take the defaults.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker. Default 5.
	FailureThreshold int

	// OpenTimeout is how long the breaker stays open. Default 30s.
	OpenTimeout time.Duration

	// HalfOpenMaxSuccess is the number of successful probes that closes the
	// breaker. Default 1.
	HalfOpenMaxSuccess int
}

// Breaker is safe for concurrent use.
type Breaker struct {
	mu  sync.Mutex
	cfg Config

	state     State
	failures  int
	successes int
	openedAt  time.Time

	// nowFunc is overridable for testing.
	nowFunc func() time.Time
}

// New creates a closed Breaker.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxSuccess <= 0 {
		cfg.HalfOpenMaxSuccess = 1
	}
	return &Breaker{cfg: cfg, nowFunc: time.Now}
}

// State returns the current state, moving Open to HalfOpen once the timeout
// has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpenTimeout()
	return b.state
}

// Allow reports whether a call may go through now.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpenTimeout()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		return b.successes < b.cfg.HalfOpenMaxSuccess
	}
	return false
}

// OnSuccess records a successful call.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxSuccess {
			b.state = Closed
			b.failures, b.successes = 0, 0
		}
	}
}

// OnFailure records a failed call.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.open()
		}
	case HalfOpen:
		b.open()
	}
}

// Call runs fn if b allows it and records the outcome. Only errors for which
// counts returns true are recorded as failures; other errors leave the
// breaker untouched. A nil breaker just runs fn.
func Call[T any](b *Breaker, counts func(error) bool, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	if !b.Allow() {
		var zero T
		return zero, ErrOpen
	}
	v, err := fn()
	switch {
	case err == nil:
		b.OnSuccess()
	case counts == nil || counts(err):
		b.OnFailure()
	}
	return v, err
}

// checkOpenTimeout must be called with b.mu held.
func (b *Breaker) checkOpenTimeout() {
	if b.state == Open && b.nowFunc().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.state = HalfOpen
		b.successes = 0
	}
}

func (b *Breaker) open() {
	b.state = Open
	b.openedAt = b.nowFunc()
	b.successes = 0
}
