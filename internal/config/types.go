package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultEndpoint is the packhouse backend address.
const DefaultEndpoint = "http://192.168.0.172:3000"

// Feed source names.
const (
	FeedSimulated = "simulated"
	FeedMQTT      = "mqtt"
)

// Config represents the complete .televisor.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Endpoint is the base URL of the Desktop socket.io backend.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Path is the socket.io handshake path on the endpoint.
	Path string `yaml:"path" mapstructure:"path"`

	// Channel is the event name every request is emitted on.
	Channel string `yaml:"channel" mapstructure:"channel"`

	// RequestTimeout bounds each remote call. Zero waits forever.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	// RefreshInterval re-fetches the primary record periodically. Zero fetches once per mount.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// ReconnectDelay and ReconnectDelayMax bound the backoff after a dropped connection.
	ReconnectDelay    time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay"`
	ReconnectDelayMax time.Duration `yaml:"reconnect_delay_max" mapstructure:"reconnect_delay_max"`

	// Headers are added to the websocket handshake, e.g. an auth token.
	Headers map[string]string `yaml:"headers,omitempty" mapstructure:"headers"`

	Feed    FeedConfig    `yaml:"feed" mapstructure:"feed"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Display DisplayConfig `yaml:"display" mapstructure:"display"`
}

// FeedConfig selects where throughput samples come from.
type FeedConfig struct {
	// Source is "simulated" or "mqtt".
	Source string     `yaml:"source" mapstructure:"source"`
	MQTT   MQTTConfig `yaml:"mqtt" mapstructure:"mqtt"`
}

// MQTTConfig holds broker settings for the MQTT throughput source.
type MQTTConfig struct {
	Broker   string `yaml:"broker" mapstructure:"broker"`
	Topic    string `yaml:"topic" mapstructure:"topic"`
	ClientID string `yaml:"client_id,omitempty" mapstructure:"client_id"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	QoS      int    `yaml:"qos" mapstructure:"qos"`
}

// ServerConfig controls the headless status server.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DisplayConfig controls terminal rendering.
type DisplayConfig struct {
	// Color mode: "auto", "always", or "never".
	Color string `yaml:"color" mapstructure:"color"`

	// Title is shown in the dashboard header.
	Title string `yaml:"title" mapstructure:"title"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:           CurrentConfigVersion,
		Endpoint:          DefaultEndpoint,
		Path:              "/socket.io/",
		Channel:           "Desktop",
		RequestTimeout:    10 * time.Second,
		ReconnectDelay:    time.Second,
		ReconnectDelayMax: 5 * time.Second,
		Feed: FeedConfig{
			Source: FeedSimulated,
			MQTT: MQTTConfig{
				Broker: "tcp://localhost:1883",
				Topic:  "planta/televisor/throughput",
				QoS:    0,
			},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Display: DisplayConfig{
			Color: "auto",
			Title: "televisor",
		},
	}
}
