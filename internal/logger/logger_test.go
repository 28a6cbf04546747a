package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_CustomWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.Info("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{"production uses json", "production", true},
		{"development uses pretty", "development", false},
		{"staging uses pretty", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})

			log.Info("test")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"test"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.NotContains(t, buf.String(), `"msg"`)
			}
		})
	}
}

func TestNew_ExplicitFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Environment: "development", Writer: &buf})

	log.Info("test")

	assert.Contains(t, buf.String(), `"msg":"test"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestRedaction_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.Info("configured", "stripe_secret", "sk_test_123", "webhook_signature", "t=1,v1=abc", "currency", "brl")

	out := buf.String()
	assert.NotContains(t, out, "sk_test_123")
	assert.NotContains(t, out, "v1=abc")
	assert.Contains(t, out, redacted)
	assert.Contains(t, out, `"currency":"brl"`)
}

func TestRedaction_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "pretty", Writer: &buf})

	log.With("admin_password", "hunter2").Info("login attempt", "token", "v4.local.xyz")

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "v4.local.xyz")
	assert.Equal(t, 2, strings.Count(out, redacted))
}

func TestIsSensitive(t *testing.T) {
	assert.True(t, isSensitive("password"))
	assert.True(t, isSensitive("STRIPE_SECRET"))
	assert.True(t, isSensitive("access_token"))
	assert.False(t, isSensitive("photo_ids"))
	assert.False(t, isSensitive("tokens_remaining"))
}

func TestPrettyHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	log.Info("photos marked paid", "album_code", "CASAMENTO01", "count", 3, "note", "two words")

	out := buf.String()
	assert.Contains(t, out, "photos marked paid")
	assert.Contains(t, out, "album_code=CASAMENTO01")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, `note="two words"`)
	assert.Contains(t, out, "INF")
}

func TestPrettyHandler_LevelFormatting(t *testing.T) {
	tests := []struct {
		level      slog.Level
		wantString string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantString, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			log.Log(context.Background(), tt.level, "test")

			assert.Contains(t, buf.String(), tt.wantString)
		})
	}
}

func TestPrettyHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	assert.Same(t, handler, handler.WithGroup(""))

	log := slog.New(handler).WithGroup("stripe").With("event", "evt_1")
	log.Info("received", "type", "checkout.session.completed")

	out := buf.String()
	assert.Contains(t, out, "stripe.event=evt_1")
	assert.Contains(t, out, "stripe.type=checkout.session.completed")
}

func TestPrettyHandler_TimeValue(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	log.Info("paid", "paid_at", at)

	assert.Contains(t, buf.String(), "paid_at=2024-05-01T12:00:00Z")
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.Component("reconcile").Info("applied")

	assert.Contains(t, buf.String(), `"component":"reconcile"`)
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.WithError(errors.New("database locked")).Error("mark paid failed")

	assert.Contains(t, buf.String(), `"error":"database locked"`)
}
