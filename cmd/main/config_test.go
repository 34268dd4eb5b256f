package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	// The defaults are written back so the next load reads the file.
	_, err = os.Stat(path)
	require.NoError(t, err)
	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, again)
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"generator": {"terminal": "?", "stop_exponent": 0.5}}`), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "?", config.Generator.Terminal)
	assert.Equal(t, 0.5, config.Generator.StopExponent)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, DefaultGeneratorConfig().MaxSteps, config.Generator.MaxSteps)
	assert.True(t, config.Generator.Overshoot)
	assert.Equal(t, DefaultServerConfig(), config.Server)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": `), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range testCases {
		assert.Equal(t, want, parseLogLevel(in), "level %q", in)
	}
}

func TestWalkOptions(t *testing.T) {
	assert.Len(t, DefaultGeneratorConfig().WalkOptions(), 4)
}
