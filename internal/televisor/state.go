package televisor

import (
	"github.com/rileyhilliard/televisor/internal/feed"
	"github.com/rileyhilliard/televisor/internal/lifecycle"
	"github.com/rileyhilliard/televisor/internal/remote"
)

// CallStatus summarizes the latest outcome of one remote action.
type CallStatus struct {
	Action string        `json:"action"`
	Status remote.Status `json:"status"`
	Error  string        `json:"error,omitempty"`
}

// State is everything the display knows. The zero value is the state before
// any data arrived.
type State struct {
	Record     *remote.TelevisorRecord
	Site       *remote.Lot
	Throughput feed.Sample
	Elapsed    int
	AppState   lifecycle.AppState
	LastCall   *CallStatus
	LastNotice *CallStatus
	FeedError  string
}

// Apply folds e into the state and returns the result. s is not modified.
func (s State) Apply(e lifecycle.Event) State {
	switch e := e.(type) {
	case lifecycle.Mounted:
		return State{}

	case lifecycle.PrimaryLoaded:
		s.LastCall = callStatus(remote.ActionPrimaryRecord, e.Result.Status, e.Result.Error())
		if !e.Result.OK() {
			return s
		}
		rec := e.Result.Value
		if s.Record == nil || s.Record.Predio != rec.Predio {
			s.Site = nil
		}
		s.Record = &rec

	case lifecycle.SiteResolved:
		// A reply for a predio the record no longer points at is stale.
		if s.Record == nil || s.Record.Predio != e.Predio {
			return s
		}
		s.LastCall = callStatus(remote.ActionLots, e.Result.Status, e.Result.Error())
		if e.Result.OK() {
			s.Site = e.Result.Value
		}

	case lifecycle.ThroughputUpdated:
		s.Throughput = e.Sample

	case lifecycle.Tick:
		s.Elapsed = e.Elapsed

	case lifecycle.TransitionObserved:
		s.AppState = e.To

	case lifecycle.ProcessNotified:
		s.LastNotice = callStatus(e.Action, e.Result.Status, e.Result.Error())

	case lifecycle.FeedFailed:
		if e.Err != nil {
			s.FeedError = e.Err.Error()
		}
	}
	return s
}

func callStatus(action string, status remote.Status, errText string) *CallStatus {
	return &CallStatus{Action: action, Status: status, Error: errText}
}
