package remote

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status tags the outcome of a remote call.
type Status int

const (
	// StatusPending means no reply has been seen yet.
	StatusPending Status = iota
	StatusOK
	// StatusMalformed means a reply arrived but did not have the expected shape.
	StatusMalformed
	// StatusTimeout means no reply arrived within the request timeout.
	StatusTimeout
	// StatusFailed means the request could not be sent or the connection dropped.
	StatusFailed
)

// String returns a human-readable status string.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusOK:
		return "ok"
	case StatusMalformed:
		return "malformed"
	case StatusTimeout:
		return "timeout"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the status as its string form.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result is a validated reply.
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Status == StatusOK
}

// Error summarizes a failed result; empty when OK.
func (r Result[T]) Error() string {
	if r.Status == StatusOK || r.Status == StatusPending {
		return ""
	}
	if r.Err == nil {
		return r.Status.String()
	}
	return fmt.Sprintf("%s: %v", r.Status, r.Err)
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Status: StatusOK, Value: v}
}

// Malformed tags a reply that failed validation.
func Malformed[T any](err error) Result[T] {
	return Result[T]{Status: StatusMalformed, Err: err}
}

// Timeout tags a call whose reply never arrived.
func Timeout[T any](err error) Result[T] {
	return Result[T]{Status: StatusTimeout, Err: err}
}

// Failed tags a call that could not complete.
func Failed[T any](err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: err}
}

// ErrTimeout is wrapped into timeout results.
var ErrTimeout = errors.New("no reply before the request timeout")
