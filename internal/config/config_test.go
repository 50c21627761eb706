package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/televisor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, "http://192.168.0.172:3000", cfg.Endpoint)
	assert.Equal(t, "/socket.io/", cfg.Path)
	assert.Equal(t, "Desktop", cfg.Channel)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.RefreshInterval)
	assert.Equal(t, time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelayMax)
	assert.Empty(t, cfg.Headers)
	assert.Equal(t, FeedSimulated, cfg.Feed.Source)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "auto", cfg.Display.Color)
	assert.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)

	content := `
version: 1
endpoint: http://10.0.0.5:3000/
channel: Desktop
request_timeout: 3s
refresh_interval: 30s
reconnect_delay: 2s
reconnect_delay_max: 20s
headers:
  Authorization: Bearer linea1
feed:
  source: mqtt
  mqtt:
    broker: tcp://broker:1883
    topic: linea1/throughput
    qos: 1
server:
  addr: ":9090"
display:
  color: never
  title: Linea 1
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:3000", cfg.Endpoint, "trailing slash is trimmed")
	assert.Equal(t, "/socket.io/", cfg.Path, "unset keys keep defaults")
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 2*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 20*time.Second, cfg.ReconnectDelayMax)
	assert.Equal(t, map[string]string{"authorization": "Bearer linea1"}, cfg.Headers, "viper lower-cases keys")
	assert.Equal(t, FeedMQTT, cfg.Feed.Source)
	assert.Equal(t, "tcp://broker:1883", cfg.Feed.MQTT.Broker)
	assert.Equal(t, "linea1/throughput", cfg.Feed.MQTT.Topic)
	assert.Equal(t, 1, cfg.Feed.MQTT.QoS)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "never", cfg.Display.Color)
	assert.Equal(t, "Linea 1", cfg.Display.Title)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("endpoint: http://file:3000\n"), 0644))

	t.Setenv("TELEVISOR_ENDPOINT", "http://env:4000")
	t.Setenv("TELEVISOR_FEED_SOURCE", "mqtt")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://env:4000", cfg.Endpoint)
	assert.Equal(t, FeedMQTT, cfg.Feed.Source)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("endpoint: [unclosed\n"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestFind_Explicit(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\n"), 0644))

	found, err := Find(configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath, found)

	_, err = Find(configPath + ".missing")
	assert.Error(t, err)
}

func TestFind_CurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	found, err := Find("")
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 1\n"), 0644))

	found, err = Find("")
	require.NoError(t, err)
	assert.Equal(t, ConfigFileName, filepath.Base(found))
}

func TestLoadOrDefault_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TELEVISOR_CHANNEL", "Televisor")

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "Televisor", cfg.Channel)
	assert.Equal(t, "http://192.168.0.172:3000", cfg.Endpoint)
}
