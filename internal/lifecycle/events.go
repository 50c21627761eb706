package lifecycle

import (
	"encoding/json"
	"time"

	"github.com/rileyhilliard/televisor/internal/feed"
	"github.com/rileyhilliard/televisor/internal/logger"
	"github.com/rileyhilliard/televisor/internal/remote"
)

// Event is something the display state must react to.
type Event interface {
	event()
}

// Mounted starts a fresh display session.
type Mounted struct {
	At time.Time
}

// PrimaryLoaded carries the obtenerEF1Sistema outcome.
type PrimaryLoaded struct {
	Result remote.Result[remote.TelevisorRecord]
}

// SiteResolved carries the getLotes outcome for Predio.
type SiteResolved struct {
	Predio remote.Ident
	Result remote.Result[*remote.Lot]
}

// ThroughputUpdated carries a new feed sample.
type ThroughputUpdated struct {
	Sample feed.Sample
}

// Tick reports the stopwatch value after a timer fire.
type Tick struct {
	Elapsed int
}

// TransitionObserved reports a foreground/background change.
type TransitionObserved struct {
	From, To AppState
}

// ProcessNotified reports a fechaInicioProceso or fechaFinProceso outcome.
type ProcessNotified struct {
	Action string
	At     time.Time
	Result remote.Result[json.RawMessage]
}

// FeedFailed reports that the throughput source could not start.
type FeedFailed struct {
	Err error
}

func (Mounted) event()            {}
func (PrimaryLoaded) event()      {}
func (SiteResolved) event()       {}
func (ThroughputUpdated) event()  {}
func (Tick) event()               {}
func (TransitionObserved) event() {}
func (ProcessNotified) event()    {}
func (FeedFailed) event()         {}

// Sink receives controller events. It should return promptly; the
// controller calls it from the timer and remote-call goroutines.
type Sink func(Event)

// StateEventWait bounds how long ChannelSink waits for room for an event
// that carries display state.
const StateEventWait = time.Second

// ChannelSink forwards events to ch. When ch is full a Tick is dropped at
// once, since the next one carries the absolute stopwatch value. Any other
// event waits up to StateEventWait before it is dropped with a warning.
func ChannelSink(ch chan<- Event, log logger.Logger) Sink {
	if log == nil {
		log = logger.Noop()
	}
	return func(e Event) {
		select {
		case ch <- e:
			return
		default:
		}

		if _, ok := e.(Tick); ok {
			log.Debug("event queue full, dropping tick")
			return
		}

		timer := time.NewTimer(StateEventWait)
		defer timer.Stop()
		select {
		case ch <- e:
		case <-timer.C:
			log.Warn("event queue full, dropping %T", e)
		}
	}
}
