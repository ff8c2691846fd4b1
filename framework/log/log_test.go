package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	frameworklog "github.com/km-arc/go-ioc/framework/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, frameworklog.ParseLevel(in), in)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := frameworklog.New(frameworklog.Options{Level: "warn", Format: "json", Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept", "type", "main.AppState")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "main.AppState", line["type"])
}

func TestNew_TextIsDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := frameworklog.New(frameworklog.Options{Output: &buf})
	logger.Debug("dropped")
	logger.Info("hello", "k", "v")

	assert.Contains(t, buf.String(), "msg=hello k=v")
	assert.NotContains(t, buf.String(), "dropped")
}
