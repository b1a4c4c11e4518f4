// Package server provides the HTTP server for the rigpanel dashboard.
//
// It serves the embedded page at "/", a JSON snapshot of all elements at
// "/api/elements", live element updates over Server-Sent Events
// ("/api/sse") and WebSocket ("/ws"), and the device action endpoints under
// "/api/actions/".
//
// The server shuts down gracefully when its context is cancelled, with a
// 5-second timeout for in-flight requests.
//
// Users of the rigpanel library should not need to interact with this
// package directly. The server is started by rigpanel.Panel.Start.
package server
