package remote

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/nagiek/rendr/model"
)

// MaxBodyLen bounds the response body kept on a FetchError, in characters.
const MaxBodyLen = 150

// ErrNoMatch is wrapped by the 404 FetchError reported when a params query
// matched nothing.
var ErrNoMatch = errors.New("no matching entity")

// FetchError reports a failed remote fetch.
type FetchError struct {
	Type   string
	ID     string
	Params model.Params

	// Status is the HTTP-style status of the failure; 0 when the remote was
	// not reached.
	Status int

	// Body is the start of the response body, at most MaxBodyLen characters.
	Body string

	// Err is the underlying cause, if any.
	Err error
}

// NewFetchError builds a FetchError for s, truncating body.
func NewFetchError(s model.Spec, status int, body []byte, err error) *FetchError {
	fe := &FetchError{
		Type:   s.TypeName(),
		Params: s.Requirements().Params,
		Status: status,
		Body:   Truncate(string(body)),
		Err:    err,
	}
	if es, ok := s.(*model.EntitySpec); ok {
		fe.ID = es.ID
	}
	return fe
}

// NotFound is the error for a spec that matched nothing.
func NotFound(s model.Spec) *FetchError {
	return NewFetchError(s, http.StatusNotFound, nil, ErrNoMatch)
}

func (e *FetchError) Error() string {
	what := fmt.Sprintf("%q", e.Type)
	if e.ID != "" {
		what += " " + e.ID
	}
	msg := fmt.Sprintf("fetching %s with params %s", what, model.Fingerprint(e.Params))
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusOf returns the status of the first FetchError in err's chain, or 0.
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}

// Truncate cuts s to MaxBodyLen characters.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxBodyLen {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxBodyLen {
			return s[:i]
		}
		n++
	}
	return s
}
