package rendr

import (
	"github.com/apex/log"

	"github.com/nagiek/rendr/remote"
)

// DefaultOptions returns the recommended set of options: remote calls are
// logged to the default logger.
func DefaultOptions() []Option {
	return []Option{
		WithRemoteMiddleware(remote.Logging(log.Log)),
	}
}
