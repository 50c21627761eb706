package lifecycle

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rileyhilliard/televisor/internal/feed"
	"github.com/rileyhilliard/televisor/internal/logger"
	"github.com/rileyhilliard/televisor/internal/remote"
)

// DefaultTickInterval is the stopwatch resolution.
const DefaultTickInterval = time.Second

// Remote is the subset of remote.Service the controller uses.
type Remote interface {
	FetchPrimary(ctx context.Context) remote.Result[remote.TelevisorRecord]
	ResolveSite(ctx context.Context, predio remote.Ident) remote.Result[*remote.Lot]
	NotifyProcessStart(ctx context.Context, at time.Time) remote.Result[json.RawMessage]
	NotifyProcessEnd(ctx context.Context, at time.Time) remote.Result[json.RawMessage]
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithTickInterval overrides the stopwatch interval.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) { c.tickEvery = d }
}

// WithRefreshInterval re-fetches the primary record periodically. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Controller) { c.refreshEvery = d }
}

// WithClock overrides time.Now for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the mount lifecycle of one display.
type Controller struct {
	svc         Remote
	source      feed.Source
	transitions Transitions
	sink        Sink
	log         logger.Logger

	tickEvery    time.Duration
	refreshEvery time.Duration
	now          func() time.Time

	mu          sync.Mutex
	mounted     bool
	generation  uint64
	ctx         context.Context
	timerStop   chan struct{}
	timers      int
	refreshStop chan struct{}
	stopFeed    func()
	unsubscribe func()
	appState    AppState
	lastPredio  remote.Ident
	elapsed     int

	inflight sync.WaitGroup
}

// New creates a Controller. transitions may be nil when the host has no
// foreground notion.
func New(svc Remote, source feed.Source, transitions Transitions, sink Sink, opts ...Option) *Controller {
	c := &Controller{
		svc:         svc,
		source:      source,
		transitions: transitions,
		sink:        sink,
		log:         logger.Noop(),
		tickEvery:   DefaultTickInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sink == nil {
		c.sink = func(Event) {}
	}
	return c
}

// Mount starts a display session. Calling Mount while mounted does nothing.
// Remote calls run with ctx and are not cancelled by Unmount.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		c.log.Debug("mount ignored: already mounted")
		return
	}
	c.mounted = true
	c.generation++
	gen := c.generation
	c.ctx = ctx
	c.elapsed = 0
	c.lastPredio = ""
	c.appState = StateUnknown
	c.mu.Unlock()

	c.log.Debug("mount %d", gen)
	c.sink(Mounted{At: c.now()})

	c.spawn(func() { c.loadPrimary(ctx, gen) })
	c.spawn(func() { c.startFeed(ctx, gen) })
	c.spawn(func() { c.notify(ctx, gen, remote.ActionProcessStart) })
	c.StartTimer()

	if c.transitions != nil {
		unsub := c.transitions.OnTransition(func(next AppState) {
			c.handleTransition(gen, next)
		})
		c.mu.Lock()
		if c.generation == gen && c.mounted {
			c.unsubscribe = unsub
			unsub = nil
		}
		c.mu.Unlock()
		if unsub != nil {
			unsub()
		}
	}

	c.startRefresh(gen)
}

// Unmount releases the timer, refresh loop, feed and transition listener.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	c.generation++
	c.stopTimerLocked()
	if c.refreshStop != nil {
		close(c.refreshStop)
		c.refreshStop = nil
	}
	stopFeed, unsub := c.stopFeed, c.unsubscribe
	c.stopFeed, c.unsubscribe = nil, nil
	c.mu.Unlock()

	if stopFeed != nil {
		stopFeed()
	}
	if unsub != nil {
		unsub()
	}
	c.log.Debug("unmounted")
}

// Mounted reports whether a session is active.
func (c *Controller) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

// Elapsed returns the stopwatch value of the current session.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// AppState returns the last observed foreground state.
func (c *Controller) AppState() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appState
}

// ActiveTimers returns the number of running stopwatch timers (0 or 1).
func (c *Controller) ActiveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers
}

// StartTimer starts the stopwatch unless it is already running or nothing is mounted.
func (c *Controller) StartTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted || c.timerStop != nil {
		return
	}

	stop := make(chan struct{})
	c.timerStop = stop
	c.timers++
	gen := c.generation

	go func() {
		ticker := time.NewTicker(c.tickEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.generation != gen || c.timerStop != stop {
					c.mu.Unlock()
					return
				}
				c.elapsed++
				elapsed := c.elapsed
				c.mu.Unlock()
				c.sink(Tick{Elapsed: elapsed})
			}
		}
	}()
}

// stopTimer stops the stopwatch without resetting it.
func (c *Controller) stopTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

func (c *Controller) stopTimerLocked() {
	if c.timerStop == nil {
		return
	}
	close(c.timerStop)
	c.timerStop = nil
	c.timers--
}

// Refresh re-fetches the primary record. The site is only re-resolved when
// the record's predio changed.
func (c *Controller) Refresh() {
	c.mu.Lock()
	gen, ctx := c.generation, c.ctx
	c.mu.Unlock()

	c.spawnIfCurrent(gen, func() { c.loadPrimary(ctx, gen) })
}

// Wait blocks until in-flight remote calls finish or ctx ends.
func (c *Controller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) spawn(fn func()) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		fn()
	}()
}

// spawnIfCurrent registers the call under the lock so Unmount cannot race it.
func (c *Controller) spawnIfCurrent(gen uint64, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted || c.generation != gen {
		return
	}
	c.spawn(fn)
}

// current reports whether gen is still the live session.
func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted && c.generation == gen
}

func (c *Controller) loadPrimary(ctx context.Context, gen uint64) {
	res := c.svc.FetchPrimary(ctx)
	if !c.current(gen) {
		c.log.Debug("dropping %s reply from an earlier mount", remote.ActionPrimaryRecord)
		return
	}
	c.sink(PrimaryLoaded{Result: res})

	if res.OK() {
		c.resolveSite(ctx, gen, res.Value.Predio)
	}
}

// resolveSite runs the dependent fetch when predio is set and differs from
// the last one fetched in this session.
func (c *Controller) resolveSite(ctx context.Context, gen uint64, predio remote.Ident) {
	c.mu.Lock()
	if c.generation != gen || predio == "" || predio == c.lastPredio {
		c.mu.Unlock()
		return
	}
	c.lastPredio = predio
	c.mu.Unlock()

	res := c.svc.ResolveSite(ctx, predio)
	if !c.current(gen) {
		c.log.Debug("dropping %s reply from an earlier mount", remote.ActionLots)
		return
	}
	c.sink(SiteResolved{Predio: predio, Result: res})
}

func (c *Controller) notify(ctx context.Context, gen uint64, action string) {
	at := c.now()
	var res remote.Result[json.RawMessage]
	if action == remote.ActionProcessEnd {
		res = c.svc.NotifyProcessEnd(ctx, at)
	} else {
		res = c.svc.NotifyProcessStart(ctx, at)
	}
	if !res.OK() {
		c.log.Warn("%s: %s", action, res.Error())
	}
	if !c.current(gen) {
		return
	}
	c.sink(ProcessNotified{Action: action, At: at, Result: res})
}

func (c *Controller) startFeed(ctx context.Context, gen uint64) {
	if c.source == nil {
		return
	}
	stop, err := c.source.Start(ctx, func(s feed.Sample) {
		if c.current(gen) {
			c.sink(ThroughputUpdated{Sample: s})
		}
	})
	if err != nil {
		c.log.Warn("throughput feed unavailable: %v", err)
		if c.current(gen) {
			c.sink(FeedFailed{Err: err})
		}
		return
	}

	c.mu.Lock()
	if c.generation == gen && c.mounted {
		c.stopFeed = stop
		stop = nil
	}
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (c *Controller) startRefresh(gen uint64) {
	if c.refreshEvery <= 0 {
		return
	}

	c.mu.Lock()
	if c.generation != gen || !c.mounted || c.refreshStop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.refreshStop = stop
	ctx := c.ctx
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.spawnIfCurrent(gen, func() { c.loadPrimary(ctx, gen) })
			}
		}
	}()
}

func (c *Controller) handleTransition(gen uint64, next AppState) {
	c.mu.Lock()
	if !c.mounted || c.generation != gen {
		c.mu.Unlock()
		return
	}
	prev := c.appState
	c.appState = next
	ctx := c.ctx
	c.mu.Unlock()

	if prev == next {
		return
	}
	c.log.Debug("app state %s -> %s", prev, next)
	c.sink(TransitionObserved{From: prev, To: next})

	if endsProcess(prev, next) {
		c.spawn(func() { c.notify(ctx, gen, remote.ActionProcessEnd) })
	}
}
