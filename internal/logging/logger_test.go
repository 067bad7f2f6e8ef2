package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"jordanella.com/battlefarm-go/internal/events"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{" Info ", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"ERROR", LogLevelError, false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoggerLevelsAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("Bot").SetOutput(&buf).SetMinLevel(LogLevelInfo)

	logger.Debug("hidden")
	logger.InfoWithContext("tapped", map[string]interface{}{"y": 2024, "x": 680})
	logger.Named("Capture").Error("screencap failed", errors.New("exit status 1"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug message written at INFO level: %q", out)
	}
	if !strings.Contains(out, "INFO [Bot] tapped | x=680 y=2024") {
		t.Errorf("Expected sorted context, got %q", out)
	}
	if !strings.Contains(out, "ERROR [Capture] screencap failed | error=exit status 1") {
		t.Errorf("Expected named logger output, got %q", out)
	}
}

func TestEventLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("Events").SetOutput(&buf)

	bus := events.NewEventBus(8)
	el := NewEventLogger(bus, logger)

	bus.Publish(events.NewStateChangedEvent("ON_MENU", "IN_BATTLE", 7))
	bus.Stop()
	el.Close()

	out := buf.String()
	if !strings.Contains(out, "Event: state.changed") || !strings.Contains(out, "to=IN_BATTLE") {
		t.Errorf("Unexpected event log output: %q", out)
	}
}
