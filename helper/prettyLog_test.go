package helper

import (
	"bytes"
	"context"
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
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	levels := []struct {
		level   slog.Level
		label   string
		message string
	}{
		{slog.LevelDebug, "DEBUG:", "debug message"},
		{slog.LevelInfo, "INFO:", "info message"},
		{slog.LevelWarn, "WARN:", "warning message"},
		{slog.LevelError, "ERROR:", "error message"},
	}

	for _, tc := range levels {
		t.Run("Handle "+tc.label+" level log", func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewPrettyHandler(&buf, PrettyHandlerOptions{
				SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
			})

			record := slog.NewRecord(time.Now(), tc.level, tc.message, 0)
			record.AddAttrs(slog.String("key", "value"))

			err := handler.Handle(ctx, record)

			assert.NoError(t, err, "Expected Handle to not return an error")
			output := buf.String()
			assert.Contains(t, output, tc.label, "Expected output to contain the level label")
			assert.Contains(t, output, tc.message, "Expected output to contain the message")
			assert.Contains(t, output, "key", "Expected output to contain attribute key")
			assert.Contains(t, output, "value", "Expected output to contain attribute value")
		})
	}

	t.Run("Handle log with no attributes", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "simple message", 0)

		err := handler.Handle(ctx, record)

		assert.NoError(t, err, "Expected Handle to not return an error")
		assert.Contains(t, buf.String(), "{}", "Expected output to contain empty JSON object for attributes")
	})
}

func TestNewError(t *testing.T) {
	t.Run("Wraps action and error", func(t *testing.T) {
		inner := assert.AnError
		err := NewError("upsert node", inner)

		assert.Contains(t, err.Error(), "upsert node", "Expected error message to contain the action")
		assert.ErrorIs(t, err, inner, "Expected wrapped error to unwrap to the inner error")
	})
}

func TestNewDatabaseConfiguration(t *testing.T) {
	t.Run("Missing required envs returns error", func(t *testing.T) {
		t.Setenv("DB_HOST", "")
		t.Setenv("DB_PORT", "")
		t.Setenv("DB_DATABASE", "")
		t.Setenv("DB_USERNAME", "")

		_, err := NewDatabaseConfiguration()
		assert.Error(t, err, "Expected error when required envs are missing")
	})

	t.Run("Defaults applied for schema and sslmode", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("DB_DATABASE", "db")
		t.Setenv("DB_USERNAME", "user")
		t.Setenv("DB_PASSWORD", "password")
		t.Setenv("DB_SCHEMA", "")
		t.Setenv("DB_SSLMODE", "")

		config, err := NewDatabaseConfiguration()
		assert.NoError(t, err, "Expected configuration to load")
		assert.Equal(t, "public", config.Schema, "Expected default schema")
		assert.Equal(t, "disable", config.SSLMode, "Expected default sslmode")
	})
}
