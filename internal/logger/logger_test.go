package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Format: "json", Out: &buf})
	require.NoError(t, err)

	Component(log, "session").Debug().Int("points", 2).Msg("recomputed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, "recomputed", entry["message"])
	assert.Equal(t, "debug", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "WARN", Format: "json", Out: &buf})
	require.NoError(t, err)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestConsoleIsDefault(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Out: &buf})
	require.NoError(t, err)

	log.Info().Msg("ready")
	assert.Contains(t, buf.String(), "ready")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}
