package fetcher

import (
	"errors"
	"fmt"

	"github.com/nagiek/rendr/model"
)

// ErrNoRemote is returned by New without a Remote.
var ErrNoRemote = errors.New("fetcher: remote is required")

// ErrEmptySummary is returned for a summary naming neither a model nor a
// collection.
var ErrEmptySummary = errors.New("fetcher: summary names neither a model nor a collection")

// NotFoundError is returned by Hydrate when a collection summary has no
// matching cache entry.
type NotFoundError struct {
	Type   string
	Params model.Params
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("collection of type %q not found for params %s", e.Type, model.Fingerprint(e.Params))
}
