package fetch

import "fmt"

// Kind classifies a fetch failure. The provenance builder branches on Kind to
// build degraded records; only KindNetwork is retryable.
type Kind int

const (
	// KindBadURL means the URL could not be parsed or is not http(s).
	KindBadURL Kind = iota
	// KindSSRFBlocked means the host resolves to a loopback or private
	// address and was rejected before any network call.
	KindSSRFBlocked
	// KindRobotsBlocked means robots.txt disallows fetching the path.
	KindRobotsBlocked
	// KindTimeout means the request exceeded the fetch timeout.
	KindTimeout
	// KindNetwork means a connection-level failure (refused, reset, DNS).
	KindNetwork
	// KindHTTPStatus means the server answered with a non-2xx status.
	KindHTTPStatus
)

// String returns a stable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBadURL:
		return "bad_url"
	case KindSSRFBlocked:
		return "ssrf_blocked"
	case KindRobotsBlocked:
		return "robots_blocked"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the fetcher.
type Error struct {
	Kind   Kind
	URL    string
	Status int // HTTP status for KindHTTPStatus, zero otherwise
	Msg    string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is a transient network error.
// Timeouts, HTTP errors, and pre-flight rejections are never retried.
func (e *Error) Retryable() bool { return e.Kind == KindNetwork }

// GotResponse reports whether a real HTTP response was obtained. Provenance
// records keep the actual status for HTTP failures and reserve status 0 for
// failures where no response arrived at all.
func (e *Error) GotResponse() bool { return e.Kind == KindHTTPStatus }
