package fetcher

import "fmt"

// Mode selects client or server behavior. A client reads and writes the
// caches and revalidates in the background. A server renders one request
// from fresh data: no cache reads, no cache writes and no revalidation.
type Mode int

const (
	ModeClient Mode = iota
	ModeServer
)

func (m Mode) String() string {
	if m == ModeServer {
		return "server"
	}
	return "client"
}

// ParseMode parses "client" or "server".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "client", "":
		return ModeClient, nil
	case "server":
		return ModeServer, nil
	}
	return ModeClient, fmt.Errorf("fetcher: unknown mode %q", s)
}

type fetchOptions struct {
	readFromCache bool
	writeToCache  bool
}

func (m Mode) defaults() fetchOptions {
	client := m == ModeClient
	return fetchOptions{readFromCache: client, writeToCache: client}
}

// FetchOption tunes a single Fetch call.
type FetchOption func(*fetchOptions)

// ReadFromCache controls whether specs are answered from the caches. It
// defaults to true in client mode and false in server mode.
func ReadFromCache(v bool) FetchOption {
	return func(o *fetchOptions) { o.readFromCache = v }
}

// WriteToCache controls whether results are stored after a successful batch.
// It defaults to true in client mode and false in server mode.
func WriteToCache(v bool) FetchOption {
	return func(o *fetchOptions) { o.writeToCache = v }
}
