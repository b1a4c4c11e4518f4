package rigpanel

import (
	"time"

	"github.com/hit2hat/rigpanel/internal/poller"
)

// Cycle failure classes, usable with errors.Is on [CycleResult.Err].
var (
	// ErrNetwork means the metrics request did not settle with a readable response.
	ErrNetwork = poller.ErrNetwork
	// ErrDecode means the metrics body was not a JSON object.
	ErrDecode = poller.ErrDecode
	// ErrAlreadyStarted is returned by [Panel.Start] on a panel that was started before.
	ErrAlreadyStarted = poller.ErrAlreadyStarted
)

// CycleResult holds the outcome of one metrics poll cycle.
//
// A CycleResult is passed to every callback registered with
// [WithCycleCallback]. Slices and maps are copies owned by the callback.
type CycleResult struct {
	// Seq is the 1-based cycle number.
	Seq uint64
	// StartedAt is when the metrics request was issued.
	StartedAt time.Time
	// Latency is the time taken by the HTTP request.
	Latency time.Duration
	// StatusCode is the HTTP status of the response, zero if none arrived.
	StatusCode int
	// Values maps each received metric key to its text, without unit suffix.
	// nil when the cycle failed.
	Values map[string]string
	// Updated lists the keys rendered into an element, sorted.
	Updated []string
	// Skipped lists the keys with no matching element, sorted.
	Skipped []string
	// Err is nil on success; otherwise it wraps [ErrNetwork] or [ErrDecode].
	Err error
}

// OK reports whether the cycle rendered a snapshot.
func (r CycleResult) OK() bool {
	return r.Err == nil
}

// toPublicResult converts the internal poller result, copying mutable fields.
func toPublicResult(r poller.CycleResult) CycleResult {
	return CycleResult{
		Seq:        r.Seq,
		StartedAt:  r.StartedAt,
		Latency:    r.Latency,
		StatusCode: r.StatusCode,
		Values:     copyMap(r.Values),
		Updated:    copyStrings(r.Updated),
		Skipped:    copyStrings(r.Skipped),
		Err:        r.Err,
	}
}

// copyStrings returns a copy of the slice, or nil if input is nil.
func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
