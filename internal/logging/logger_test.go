package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), "input %q", input)
	}
}

func TestNew_JSONCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: zerolog.DebugLevel, Format: "json", Output: &buf})

	ctx := WithContext(context.Background(), logger)
	ctx = WithComponent(ctx, "window")
	ctx = WithWindowID(ctx, "w1")
	ctx = WithTabID(ctx, "t1")

	FromContext(ctx).Info().Msg("tab activated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "window", entry["component"])
	assert.Equal(t, "w1", entry["window_id"])
	assert.Equal(t, "t1", entry["tab_id"])
	assert.Equal(t, "tab activated", entry["message"])
}

func TestFromContext_NoLoggerIsDisabled(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestNewWithFile_AppendsJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	logger, path, cleanup, err := NewWithFile(Config{Level: zerolog.InfoLevel, Format: "console"}, dir)
	require.NoError(t, err)
	logger.Info().Str("window_id", "w1").Msg("window opened")
	cleanup()

	assert.Equal(t, filepath.Join(dir, FileName), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "window opened", entry["message"])
	assert.Equal(t, "w1", entry["window_id"])
}
