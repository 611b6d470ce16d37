package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records as JSON lines.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:   h.buf,
		level: h.level,
		attrs: make([]slog.Attr, len(h.attrs)+len(attrs)),
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *testHandler) getLastRecord() map[string]any {
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			var m map[string]any
			if err := json.Unmarshal(lines[i], &m); err == nil {
				return m
			}
		}
	}
	return nil
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds integration and operation", func(t *testing.T) {
		h := newTestHandler()
		enriched := EnrichLogger(slog.New(h), "Redis", "track")
		enriched.Info("test message")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "Redis", record["integration"])
		assert.Equal(t, "track", record["operation"])
		assert.Equal(t, "test message", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "Redis", "track"))
	})
}

func TestLogIntegrationFault(t *testing.T) {
	h := newTestHandler()
	LogIntegrationFault(slog.New(h), "Broken", "flush", errors.New("boom"))

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "integration hook failed", record["msg"])
	assert.Equal(t, "Broken", record["integration"])
	assert.Equal(t, "flush", record["operation"])
	assert.Equal(t, "boom", record["error"])
}

func TestLogDispatch(t *testing.T) {
	h := newTestHandler()
	LogDispatch(slog.New(h), "track", 3, 1.5)

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "track", record["operation"])
	assert.Equal(t, float64(3), record["integrations"])
	assert.Equal(t, 1.5, record["duration_ms"])
}

func TestLogLifecycleEvent(t *testing.T) {
	h := newTestHandler()
	LogLifecycleEvent(slog.New(h), "Application Opened", slog.Bool("from_background", true))

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "Application Opened", record["event"])
	assert.Equal(t, true, record["from_background"])
}

func TestLogShutdown(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		h := newTestHandler()
		LogShutdown(slog.New(h), 0, nil)
		assert.Equal(t, "INFO", h.getLastRecord()["level"])
	})

	t.Run("incomplete drain", func(t *testing.T) {
		h := newTestHandler()
		LogShutdown(slog.New(h), 4, context.DeadlineExceeded)

		record := h.getLastRecord()
		assert.Equal(t, "WARN", record["level"])
		assert.Equal(t, float64(4), record["dropped"])
	})
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogDispatch(nil, "track", 1, 0)
		LogIntegrationFault(nil, "k", "track", errors.New("x"))
		LogPayloadRejected(nil, "track", errors.New("x"))
		LogLifecycleEvent(nil, "Application Opened")
		LogDeadLetter(nil, "k", "track", 3, "max retries exceeded")
		LogShutdown(nil, 0, nil)
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), 5.0)
}
