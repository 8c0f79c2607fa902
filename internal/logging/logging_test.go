package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestComponentLoggerTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(&buf, "info", true))

	l := Component("output")
	l.Info().Msg("stream opened")
	l.Debug().Msg("filtered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "output", entry["component"])
	assert.Equal(t, "stream opened", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestSetupRejectsBadLevel(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Setup(&buf, "nope", false))
}
