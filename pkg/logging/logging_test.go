package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devesharp/statehooks/pkg/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Log{Level: "warn", Format: config.FormatJSON}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("key", "get").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"key":"get"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Log{Format: config.FormatConsole}, &buf)
	require.NoError(t, err)

	logger.Info().Str("run_id", "abc").Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "run_id=abc")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(config.Log{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewSplit(t *testing.T) {
	var out, errOut bytes.Buffer
	logger, err := NewSplit(config.Log{Level: "debug", Format: config.FormatJSON}, &out, &errOut)
	require.NoError(t, err)

	logger.Info().Msg("routine")
	logger.Error().Msg("broken")

	assert.Contains(t, out.String(), "routine")
	assert.NotContains(t, out.String(), "broken")
	assert.Contains(t, errOut.String(), "broken")
	assert.NotContains(t, errOut.String(), "routine")
}
