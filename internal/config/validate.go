package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rileyhilliard/televisor/internal/errors"
)

// MinRefreshInterval is the shortest allowed primary refresh interval.
const MinRefreshInterval = time.Second

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but televisor only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade televisor or lower the version field.")
	}

	if err := validateEndpoint(cfg.Endpoint); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Channel) == "" {
		return errors.New(errors.ErrConfig,
			"channel can't be empty",
			"The Desktop backend listens on the 'Desktop' channel.")
	}

	if !strings.HasPrefix(cfg.Path, "/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("path '%s' must start with '/'", cfg.Path),
			"Use the socket.io default '/socket.io/'.")
	}

	if cfg.RequestTimeout < 0 {
		return errors.New(errors.ErrConfig,
			"request_timeout can't be negative",
			"Use 0 to wait forever, or a duration like 10s.")
	}

	if cfg.RefreshInterval != 0 && cfg.RefreshInterval < MinRefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_interval %s is too short", cfg.RefreshInterval),
			"Use 0 to fetch once, or at least 1s.")
	}

	if cfg.ReconnectDelay <= 0 || cfg.ReconnectDelayMax < cfg.ReconnectDelay {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("reconnect delays %s .. %s aren't valid", cfg.ReconnectDelay, cfg.ReconnectDelayMax),
			"reconnect_delay must be positive and reconnect_delay_max at least as long, e.g. 1s and 5s.")
	}

	if err := validateFeed(cfg.Feed); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'feed' section in your .televisor.yaml.")
	}

	switch cfg.Display.Color {
	case "auto", "always", "never":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("display.color '%s' isn't valid", cfg.Display.Color),
			"Use one of: auto, always, never.")
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return errors.New(errors.ErrConfig,
			"endpoint is required",
			"Set endpoint to the backend URL, e.g. http://192.168.0.172:3000")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("endpoint '%s' isn't a valid URL", endpoint),
			"Use a URL like http://host:3000")
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("endpoint scheme '%s' isn't supported", u.Scheme),
			"Use http, https, ws, or wss.")
	}

	if u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("endpoint '%s' has no host", endpoint),
			"Use a URL like http://host:3000")
	}

	return nil
}

func validateFeed(feed FeedConfig) error {
	switch feed.Source {
	case FeedSimulated:
		return nil
	case FeedMQTT:
		if feed.MQTT.Broker == "" {
			return fmt.Errorf("feed.mqtt.broker is required when feed.source is mqtt")
		}
		if feed.MQTT.Topic == "" {
			return fmt.Errorf("feed.mqtt.topic is required when feed.source is mqtt")
		}
		if feed.MQTT.QoS < 0 || feed.MQTT.QoS > 2 {
			return fmt.Errorf("feed.mqtt.qos must be 0, 1, or 2 (got %d)", feed.MQTT.QoS)
		}
		return nil
	default:
		return fmt.Errorf("feed.source '%s' isn't valid (use simulated or mqtt)", feed.Source)
	}
}
