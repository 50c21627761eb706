package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rileyhilliard/televisor/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".televisor.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/televisor"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides (TELEVISOR_ENDPOINT, ...).
	EnvPrefix = "TELEVISOR"
)

// Load reads config from the specified path, applying env overrides.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'televisor init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .televisor.yaml in current directory
// 3. ~/.config/televisor/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the found path, or returns defaults
// (with env overrides applied) if no file exists.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}

	if path == "" {
		return parseConfig(newViper(), "environment")
	}

	return Load(path)
}

// newViper builds a viper instance with defaults and env bindings.
// A .env file in the working directory is loaded first when present.
func newViper() *viper.Viper {
	_ = godotenv.Load() // missing .env is fine

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override it on Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("path", d.Path)
	v.SetDefault("channel", d.Channel)
	v.SetDefault("request_timeout", d.RequestTimeout.String())
	v.SetDefault("refresh_interval", d.RefreshInterval.String())
	v.SetDefault("reconnect_delay", d.ReconnectDelay.String())
	v.SetDefault("reconnect_delay_max", d.ReconnectDelayMax.String())
	v.SetDefault("feed.source", d.Feed.Source)
	v.SetDefault("feed.mqtt.broker", d.Feed.MQTT.Broker)
	v.SetDefault("feed.mqtt.topic", d.Feed.MQTT.Topic)
	v.SetDefault("feed.mqtt.client_id", d.Feed.MQTT.ClientID)
	v.SetDefault("feed.mqtt.username", d.Feed.MQTT.Username)
	v.SetDefault("feed.mqtt.password", d.Feed.MQTT.Password)
	v.SetDefault("feed.mqtt.qos", d.Feed.MQTT.QoS)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("display.color", d.Display.Color)
	v.SetDefault("display.title", d.Display.Title)
}

// parseConfig converts viper config to our Config struct.
func parseConfig(v *viper.Viper, source string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}

	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	return cfg, nil
}
