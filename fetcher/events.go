package fetcher

import "github.com/nagiek/rendr/model"

// EventKind tells batch start from batch end.
type EventKind int

const (
	EventStart EventKind = iota
	EventEnd
)

func (k EventKind) String() string {
	if k == EventEnd {
		return "fetch:end"
	}
	return "fetch:start"
}

// Event is published at the start and end of every Fetch batch. Results and
// Err are only set on EventEnd.
type Event struct {
	Kind    EventKind
	Specs   map[string]model.Spec
	Results Results
	Err     error
}

// Subscribe registers fn for batch events and returns a function that
// removes it. fn runs synchronously on the fetching goroutine.
func (f *Fetcher) Subscribe(fn func(Event)) (cancel func()) {
	return f.events.Subscribe(fn)
}
