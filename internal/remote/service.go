package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rileyhilliard/televisor/internal/logger"
)

// DefaultChannel is the event every Desktop request is emitted on.
const DefaultChannel = "Desktop"

// Emitter sends one event and waits for its acknowledgement.
// *socketio.Client satisfies it.
type Emitter interface {
	EmitWithAck(ctx context.Context, event string, payload any) (json.RawMessage, error)
}

// Service issues the Desktop actions over a shared Emitter.
type Service struct {
	emitter Emitter
	channel string
	timeout time.Duration
	log     logger.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithChannel overrides the event name (default "Desktop").
func WithChannel(channel string) ServiceOption {
	return func(s *Service) { s.channel = channel }
}

// WithTimeout bounds each call. Zero waits for the reply indefinitely.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// NewService creates a Service on top of emitter.
func NewService(emitter Emitter, opts ...ServiceOption) *Service {
	s := &Service{
		emitter: emitter,
		channel: DefaultChannel,
		log:     logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchPrimary requests the current EF1 record.
func (s *Service) FetchPrimary(ctx context.Context) Result[TelevisorRecord] {
	reply, res := s.call(ctx, PrimaryRecordRequest())
	if res != nil {
		return Result[TelevisorRecord]{Status: res.Status, Err: res.Err}
	}

	rec, err := decodePrimary(reply)
	if err != nil {
		s.log.Warn("%s reply malformed: %v", ActionPrimaryRecord, err)
		return Malformed[TelevisorRecord](err)
	}
	return Ok(rec)
}

// FetchLots requests the in-process lots with their sites joined in.
func (s *Service) FetchLots(ctx context.Context) Result[[]Lot] {
	reply, res := s.call(ctx, LotsRequest())
	if res != nil {
		return Result[[]Lot]{Status: res.Status, Err: res.Err}
	}

	lots, err := decodeLots(reply)
	if err != nil {
		s.log.Warn("%s reply malformed: %v", ActionLots, err)
		return Malformed[[]Lot](err)
	}
	return Ok(lots)
}

// ResolveSite fetches the lot list and picks the first lot whose site is predio.
// An OK result with a nil value means no lot matched.
func (s *Service) ResolveSite(ctx context.Context, predio Ident) Result[*Lot] {
	lots := s.FetchLots(ctx)
	if !lots.OK() {
		return Result[*Lot]{Status: lots.Status, Err: lots.Err}
	}

	lot := FindSite(lots.Value, predio)
	if lot == nil {
		s.log.Debug("no lot matches predio %s among %d lots", predio, len(lots.Value))
	}
	return Ok(lot)
}

// NotifyProcessStart records the display start time on the backend.
func (s *Service) NotifyProcessStart(ctx context.Context, at time.Time) Result[json.RawMessage] {
	return s.notify(ctx, ProcessStartRequest(at))
}

// NotifyProcessEnd records the time the display went to the background.
func (s *Service) NotifyProcessEnd(ctx context.Context, at time.Time) Result[json.RawMessage] {
	return s.notify(ctx, ProcessEndRequest(at))
}

func (s *Service) notify(ctx context.Context, env Envelope) Result[json.RawMessage] {
	reply, res := s.call(ctx, env)
	if res != nil {
		return Result[json.RawMessage]{Status: res.Status, Err: res.Err}
	}
	return Ok(reply)
}

// call emits env and classifies transport failures. A nil status means the reply arrived.
func (s *Service) call(ctx context.Context, env Envelope) (json.RawMessage, *Result[struct{}]) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	action := env.Data.Action
	s.log.Debug("sending %s", action)

	reply, err := s.emitter.EmitWithAck(ctx, s.channel, env)
	switch {
	case err == nil:
		s.log.Debug("%s replied %s", action, preview(reply))
		return reply, nil
	case errors.Is(err, context.DeadlineExceeded):
		s.log.Warn("%s timed out after %s", action, s.timeout)
		r := Timeout[struct{}](fmt.Errorf("%s: %w", action, ErrTimeout))
		return nil, &r
	default:
		s.log.Warn("%s failed: %v", action, err)
		r := Failed[struct{}](fmt.Errorf("%s: %w", action, err))
		return nil, &r
	}
}
