// Package poller implements the metrics poll loop for rigpanel.
//
// The loop is strictly sequential: fetch the metrics payload, decode it,
// render it into a display, then wait a fixed interval before the next
// cycle. The wait starts only once the previous cycle has finished, so
// slow responses push later cycles back rather than overlapping them.
// Failures are logged and never stop the loop.
//
// The main components are:
//
//   - [Poller]: the self-rescheduling loop
//   - [Snapshot]: one decoded metrics payload
//   - [CycleResult]: the outcome of a single cycle
//
// Users of the rigpanel library should not need to interact with this
// package directly. Configuration is done through the main rigpanel package.
package poller
