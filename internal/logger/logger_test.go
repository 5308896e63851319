package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "info")

	log.Debug("hidden")
	log.Info("login", "client_id", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "login", line["msg"])
	assert.Equal(t, "abc", line["client_id"])
	assert.Equal(t, "tagwise-console", line["service"])
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, slog.LevelInfo)).
		With("service", "console").
		WithGroup("req")

	log.Debug("skipped")
	log.Warn("slow request",
		"duration", 1500*time.Millisecond,
		"error", errors.New("boom"),
		slog.Group("user", "role", "ADMIN"),
	)

	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, "slow request")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "service"+reset+"=console")
	assert.Contains(t, out, "req.duration"+reset+"=1.5s")
	assert.Contains(t, out, red+"req.error"+reset+"=boom")
	assert.Contains(t, out, "req.user.role"+reset+"=ADMIN")
}
