package poller

import "errors"

// Cycle failure classes. A failed cycle wraps exactly one of these together
// with the underlying cause, so callers can use errors.Is.
var (
	// ErrNetwork means the request did not settle with a readable response.
	ErrNetwork = errors.New("metrics fetch failed")
	// ErrDecode means the response body was not a metrics object.
	ErrDecode = errors.New("metrics decode failed")
)

// ErrAlreadyStarted is returned by [Poller.Run] when the loop was started before.
var ErrAlreadyStarted = errors.New("poller already started")
