package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrTransport,
		ErrRemote,
		ErrFeed,
		ErrServer,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in .televisor.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "transport error",
			code:       ErrTransport,
			message:    "Cannot reach the Desktop backend",
			suggestion: "Check the endpoint in your config",
		},
		{
			name:       "feed error",
			code:       ErrFeed,
			message:    "MQTT broker refused the connection",
			suggestion: "Check feed.mqtt.broker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestWrap_DefaultsToTransport(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, "Dial failed")

	assert.Equal(t, ErrTransport, err.Code)
	assert.Equal(t, cause, err.Cause)
}

func TestError_Format(t *testing.T) {
	err := WrapWithCode(errors.New("dial tcp: i/o timeout"), ErrTransport,
		"Cannot reach backend",
		"Check the endpoint")

	out := err.Error()
	lines := strings.Split(out, "\n")
	assert.Equal(t, "✗ Cannot reach backend", lines[0])
	assert.Contains(t, out, "  dial tcp: i/o timeout")
	assert.Contains(t, out, "  Check the endpoint")
}

func TestError_FormatWithoutCauseOrSuggestion(t *testing.T) {
	err := New(ErrRemote, "Malformed reply", "")
	assert.Equal(t, "✗ Malformed reply\n", err.Error())
}

func TestUnwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := WrapWithCode(sentinel, ErrFeed, "feed failed", "")

	assert.True(t, errors.Is(err, sentinel))
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "bad", "")
	wrapped := fmt.Errorf("loading: %w", err)

	assert.True(t, IsCode(err, ErrConfig))
	assert.True(t, IsCode(wrapped, ErrConfig))
	assert.False(t, IsCode(err, ErrTransport))
	assert.False(t, IsCode(nil, ErrConfig))
	assert.False(t, IsCode(errors.New("plain"), ErrConfig))
}
