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
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"trace":   zerolog.TraceLevel,
		"info":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: FormatJSON, Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Float64("soc", 42.5).Msg("tick")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tick", entry["message"])
	assert.Equal(t, 42.5, entry["soc"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewTextTee(t *testing.T) {
	var out, tee bytes.Buffer
	log := New(Config{Level: "debug", Output: &out, Tee: &tee})

	log.Warn().Msg("starved")

	assert.Contains(t, out.String(), "starved")
	assert.Contains(t, tee.String(), "starved")
	assert.NotContains(t, tee.String(), "\x1b[", "tee output must not be coloured")
}
