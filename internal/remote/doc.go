// Package remote wraps the Desktop backend's request/response actions.
//
// Every call is an event on a single channel carrying an envelope
// { data: { action, collection, ...fields } }. Replies are untyped on the
// wire, so each call validates its reply at the boundary and returns a
// tagged Result: ok, malformed, timeout, or failed.
package remote
