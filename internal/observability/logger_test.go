package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("pump-listener", "debug", FormatJSON, &buf)

	logger.Info().Str("mint", "M1").Msg("event emitted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pump-listener", entry["app"])
	assert.Equal(t, "M1", entry["mint"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("pump-listener", "verbose", FormatJSON, &buf)

	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("pump-listener", "info", FormatConsole, &buf)

	logger.Warn().Msg("connection closed by peer")
	assert.Contains(t, buf.String(), "connection closed by peer")
	assert.Contains(t, buf.String(), "WRN")
}
