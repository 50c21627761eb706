// Package testing provides a scripted Emitter for exercising remote.Service
// and the code built on it without a socket.io backend.
package testing

import (
	"context"
	"encoding/json"
	"sync"
)

// Reply is a scripted answer for one action.
type Reply struct {
	// Body is returned as the raw ack payload.
	Body string
	// Err is returned instead of a reply.
	Err error
	// Block makes the call wait until its context ends.
	Block bool
	// Gate, when set, holds the reply until it is closed.
	Gate <-chan struct{}
}

// Call records one EmitWithAck invocation.
type Call struct {
	Event   string
	Action  string
	Payload json.RawMessage
}

// FakeEmitter answers EmitWithAck from a per-action script.
type FakeEmitter struct {
	mu      sync.Mutex
	replies map[string]Reply
	calls   []Call
	notify  chan Call
}

// NewFakeEmitter creates an emitter with no scripted replies. Unscripted
// actions are answered with "{}".
func NewFakeEmitter() *FakeEmitter {
	return &FakeEmitter{
		replies: make(map[string]Reply),
		notify:  make(chan Call, 64),
	}
}

// On scripts the reply body for action.
func (f *FakeEmitter) On(action, body string) *FakeEmitter {
	return f.Script(action, Reply{Body: body})
}

// Script sets the full reply for action.
func (f *FakeEmitter) Script(action string, r Reply) *FakeEmitter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[action] = r
	return f
}

// EmitWithAck implements remote.Emitter.
func (f *FakeEmitter) EmitWithAck(ctx context.Context, event string, payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var env struct {
		Data struct {
			Action string `json:"action"`
		} `json:"data"`
	}
	_ = json.Unmarshal(raw, &env)

	call := Call{Event: event, Action: env.Data.Action, Payload: raw}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	reply, ok := f.replies[call.Action]
	f.mu.Unlock()

	select {
	case f.notify <- call:
	default:
	}

	if !ok {
		return json.RawMessage("{}"), nil
	}
	if reply.Gate != nil {
		select {
		case <-reply.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if reply.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return json.RawMessage(reply.Body), nil
}

// Calls returns every recorded call in order.
func (f *FakeEmitter) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsFor returns the recorded calls for action.
func (f *FakeEmitter) CallsFor(action string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Action == action {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times action was sent.
func (f *FakeEmitter) Count(action string) int {
	return len(f.CallsFor(action))
}

// Sent delivers each call as it is made. Calls are dropped when nobody reads.
func (f *FakeEmitter) Sent() <-chan Call {
	return f.notify
}
