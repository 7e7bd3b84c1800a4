package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/statsd"
)

func TestLoggerWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	var rec statsd.Recorder
	l := New(slog.New(slog.NewJSONHandler(&buf, nil)), &rec)

	l.Action(context.Background(), "guard.redirect", map[string]any{
		"reason":         "role_missing",
		"attempted_path": "/home",
		"target":         "/role-selection",
		"user_id":        "u-1",
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "action", line["msg"])
	assert.Equal(t, "audit", line["component"])
	assert.Equal(t, "guard.redirect", line["event"])
	assert.Equal(t, "/home", line["attempted_path"])
	assert.Equal(t, "u-1", line["user_id"])

	got := rec.Named("action.guard.redirect")
	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{"reason": "role_missing", "target": "/role-selection"}, got[0].Tags)
}

func TestLoggerIgnoresEmptyEventAndNilReceiver(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewJSONHandler(&buf, nil)), nil)
	l.Action(context.Background(), "", map[string]any{"x": 1})
	assert.Empty(t, buf.String())

	var nilLogger *Logger
	assert.NotPanics(t, func() { nilLogger.Action(context.Background(), "e", nil) })
}
