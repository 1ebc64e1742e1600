package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/servicebook/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("booking created")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"booking created"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_TeesExtraCores(t *testing.T) {
	extra, logs := observer.New(zapcore.WarnLevel)
	log, err := New(config.LogConfig{Level: "debug", Format: "console", Output: "stderr"}, extra)
	require.NoError(t, err)

	log.Info("console only")
	log.Warn("both")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "both", logs.All()[0].Message)
}

func TestNew_BadOutputPath(t *testing.T) {
	_, err := New(config.LogConfig{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}
