package helper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPrettyHandler(t *testing.T) {
	t.Run("Create PrettyHandler with default options", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		assert.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")
		assert.NotNil(t, handler.Handler, "Expected handler to have a non-nil Handler field")
		assert.NotNil(t, handler.l, "Expected handler to have a non-nil logger field")
	})

	t.Run("Level filtering is delegated to the slog options", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelWarn},
		})

		assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
	})
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	levels := []struct {
		level slog.Level
		name  string
	}{
		{slog.LevelDebug, "DEBUG:"},
		{slog.LevelInfo, "INFO:"},
		{slog.LevelWarn, "WARN:"},
		{slog.LevelError, "ERROR:"},
	}
	for _, l := range levels {
		t.Run("Handle "+l.name+" level log", func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug}})

			record := slog.NewRecord(time.Now(), l.level, "ingested document", 0)
			record.AddAttrs(slog.String("collection", "my_docs"), slog.Int("chunks", 3))

			err := handler.Handle(ctx, record)

			assert.NoError(t, err, "Expected Handle to not return an error")
			output := buf.String()
			assert.Contains(t, output, l.name, "Expected output to contain level")
			assert.Contains(t, output, "ingested document", "Expected output to contain the message")
			assert.Contains(t, output, `"collection":"my_docs"`)
			assert.Contains(t, output, `"chunks":3`)
		})
	}

	t.Run("Handle log with no attributes", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		err := handler.Handle(ctx, slog.NewRecord(time.Now(), slog.LevelInfo, "simple message", 0))

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "{}", "Expected output to contain empty JSON object for attributes")
	})

	t.Run("Handle error and group attributes", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		record := slog.NewRecord(time.Now(), slog.LevelError, "failed", 0)
		record.AddAttrs(
			slog.Any("error", errors.New("embedding service unavailable")),
			slog.Group("stage", slog.String("name", "embedded")),
		)

		err := handler.Handle(ctx, record)

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), `"error":"embedding service unavailable"`, "Expected errors to be rendered as strings")
		assert.Contains(t, buf.String(), `"stage":{"name":"embedded"}`)
	})

	t.Run("Handle log formats timestamp correctly", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		err := handler.Handle(ctx, slog.NewRecord(time.Now(), slog.LevelInfo, "time test", 0))

		assert.NoError(t, err)
		assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, buf.String(), "Expected output to contain properly formatted timestamp")
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Parses level names", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "debug")

		logger.Debug("visible")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("Falls back to info on unknown level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "verbose")

		logger.Debug("hidden")
		logger.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}
