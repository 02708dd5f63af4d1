package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// TestGetLogger verifies singleton pattern - same instance returned
func TestGetLogger(t *testing.T) {
	if GetLogger() != GetLogger() {
		t.Error("GetLogger() should return same singleton instance")
	}
}

// TestLoggerDefaultVerboseMode verifies verbose is false by default
func TestLoggerDefaultVerboseMode(t *testing.T) {
	once = sync.Once{}
	loggerInstance = nil

	if GetLogger().IsVerbose() {
		t.Error("Logger should have verbose=false by default")
	}
}

// TestSetVerboseMode verifies SetVerboseMode changes verbose state
func TestSetVerboseMode(t *testing.T) {
	once = sync.Once{}
	loggerInstance = nil

	SetVerboseMode(true)
	if !GetLogger().IsVerbose() {
		t.Error("SetVerboseMode(true) should enable verbose mode")
	}

	SetVerboseMode(false)
	if GetLogger().IsVerbose() {
		t.Error("SetVerboseMode(false) should disable verbose mode")
	}
}

// TestDebugSuppressedWhenNotVerbose verifies debug lines are gated
func TestDebugSuppressedWhenNotVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Debug("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug output should be suppressed, got %q", buf.String())
	}

	l.SetVerbose(true)
	l.Debug("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") {
		t.Errorf("debug output should appear in verbose mode, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "DEBUG") {
		t.Errorf("debug output should carry its level, got %q", buf.String())
	}
}

func TestLevelsAlwaysShown(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info("info message")
	l.Warn("warn %s", "message")
	l.Error("error message")

	out := buf.String()
	for _, want := range []string{"INFO", "info message", "WARN", "warn message", "ERROR", "error message"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got %q", want, out)
		}
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.SetLevel("error")
	l.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("warn should be dropped at error level, got %q", buf.String())
	}

	l.SetLevel("not-a-level")
	l.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Error("unknown level should leave the current level in place")
	}

	l.SetLevel("debug")
	if !l.IsVerbose() {
		t.Error("debug level should imply verbose")
	}
}

// TestRedirectToFile verifies interactive sessions can log to a file
func TestRedirectToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "session.log")
	l := NewLogger(&bytes.Buffer{})

	if err := l.RedirectToFile(path); err != nil {
		t.Fatalf("RedirectToFile error: %v", err)
	}
	l.Info("written to file")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file should contain message, got %q", string(data))
	}

	// After Sync closes the file further writes must not panic.
	l.Info("after close")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"maybe\nyes\n", true},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm("Clear all favorites?", strings.NewReader(tt.input), &out)
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Clear all favorites? (y/n): ") {
			t.Errorf("prompt not written, got %q", out.String())
		}
	}
}
