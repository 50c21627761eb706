package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/rileyhilliard/televisor/internal/config"
	"github.com/rileyhilliard/televisor/internal/errors"
	"github.com/rileyhilliard/televisor/internal/feed"
	"github.com/rileyhilliard/televisor/internal/lifecycle"
	"github.com/rileyhilliard/televisor/internal/logger"
	"github.com/rileyhilliard/televisor/internal/remote"
	"github.com/rileyhilliard/televisor/internal/socketio"
	"github.com/rileyhilliard/televisor/internal/ui"
)

const (
	// dialTimeout bounds the first connection to the backend.
	dialTimeout = 15 * time.Second
	// shutdownGrace is how long exit waits for the process end notification.
	shutdownGrace = 3 * time.Second
	// eventBuffer sizes the controller-to-display queue.
	eventBuffer = 64
)

// loadConfig loads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config) {
	if endpointFlag != "" {
		cfg.Endpoint = strings.TrimRight(strings.TrimSpace(endpointFlag), "/")
	}
	if noColor {
		cfg.Display.Color = "never"
	}
}

// colorProfile resolves display.color into a termenv profile.
func colorProfile(mode string) termenv.Profile {
	switch mode {
	case "never":
		return termenv.Ascii
	case "always":
		return termenv.TrueColor
	default:
		return termenv.EnvColorProfile()
	}
}

func applyColor(cfg *config.Config) {
	lipgloss.SetColorProfile(colorProfile(cfg.Display.Color))
}

// dialBackend opens the one socket.io connection the process uses.
func dialBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*socketio.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	client, err := socketio.Dial(dialCtx, cfg.Endpoint, socketOptions(cfg, log)...)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport,
			fmt.Sprintf("Couldn't connect to %s", cfg.Endpoint),
			"Check the backend is running and reachable, or point --endpoint at it")
	}
	return client, nil
}

func socketOptions(cfg *config.Config, log logger.Logger) []socketio.Option {
	opts := []socketio.Option{
		socketio.WithPath(cfg.Path),
		socketio.WithLogger(log),
		socketio.WithBackoff(cfg.ReconnectDelay, cfg.ReconnectDelayMax),
		socketio.WithEventHandler(logServerEvent(log)),
		socketio.WithStateHandler(func(connected bool) {
			if connected {
				log.Info("connected to %s", cfg.Endpoint)
			} else {
				log.Warn("lost connection to %s, reconnecting", cfg.Endpoint)
			}
		}),
	}
	if h := handshakeHeader(cfg.Headers); h != nil {
		opts = append(opts, socketio.WithHeader(h))
	}
	return opts
}

// handshakeHeader converts the configured headers; nil when there are none.
func handshakeHeader(headers map[string]string) http.Header {
	if len(headers) == 0 {
		return nil
	}
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return h
}

// logServerEvent records events the backend pushes unprompted. The display
// only uses request/ack calls, so these are diagnostics.
func logServerEvent(log logger.Logger) socketio.EventHandler {
	return func(event string, args []json.RawMessage) {
		log.Debug("server event %s (%d args)", event, len(args))
	}
}

// dialWithStatus dials behind a spinner on out. Used by the line-oriented
// commands; the TUI shows connection state in its footer instead.
func dialWithStatus(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) (*socketio.Client, error) {
	spinner := ui.NewSpinner("Connecting to "+cfg.Endpoint, out)
	spinner.Start()

	client, err := dialBackend(ctx, cfg, log)
	if err != nil {
		spinner.Fail()
		return nil, err
	}
	spinner.Success()
	return client, nil
}

func newService(em remote.Emitter, cfg *config.Config, log logger.Logger) *remote.Service {
	return remote.NewService(em,
		remote.WithChannel(cfg.Channel),
		remote.WithTimeout(cfg.RequestTimeout),
		remote.WithLogger(log),
	)
}

// newFeed builds the configured throughput source.
func newFeed(cfg *config.Config, log logger.Logger) feed.Source {
	if cfg.Feed.Source == config.FeedMQTT {
		m := cfg.Feed.MQTT
		return feed.NewMQTTSource(feed.MQTTConfig{
			Broker:   m.Broker,
			Topic:    m.Topic,
			ClientID: m.ClientID,
			Username: m.Username,
			Password: m.Password,
			QoS:      byte(m.QoS),
		}, log)
	}
	return feed.NewSimulator(nil)
}

func newController(cfg *config.Config, svc lifecycle.Remote, src feed.Source, transitions lifecycle.Transitions, sink lifecycle.Sink, log logger.Logger) *lifecycle.Controller {
	return lifecycle.New(svc, src, transitions, sink,
		lifecycle.WithLogger(log),
		lifecycle.WithRefreshInterval(cfg.RefreshInterval),
	)
}

// shutdown treats exit as going to the background, releases the mount and
// waits briefly for the process end notification to go out.
func shutdown(hub *lifecycle.Hub, ctrl *lifecycle.Controller, log logger.Logger) {
	hub.Publish(lifecycle.StateBackground)
	ctrl.Unmount()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := ctrl.Wait(ctx); err != nil {
		log.Warn("exiting with remote calls still pending")
	}
}
