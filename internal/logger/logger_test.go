package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

// capture redirects output to a buffer with a fixed clock and no colour.
func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	SetColour(false)
	mu.Lock()
	now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	mu.Unlock()

	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
		mu.Lock()
		now = time.Now
		mu.Unlock()
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	defer SetVerbose(false)

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("test message %s", "arg")

	if got := buf.String(); got != "2025-03-04 05:06:07 - DEBUG - test message arg\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Section("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLevels_AlwaysPrint(t *testing.T) {
	buf := capture(t, false)

	Info("ready on %s", ":8000")
	Warn("slow")
	Error("failed: %v", "boom")

	want := "2025-03-04 05:06:07 - INFO - ready on :8000\n" +
		"2025-03-04 05:06:07 - WARNING - slow\n" +
		"2025-03-04 05:06:07 - ERROR - failed: boom\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected output:\n%s", got)
	}
}

func TestSection_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Section("Indexing")

	if got := buf.String(); got != "\n=== Indexing ===\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestColour_TagsStillPresent(t *testing.T) {
	buf := capture(t, false)
	SetColour(true)
	defer SetColour(false)

	Info("coloured")

	if !strings.Contains(buf.String(), "INFO") || !strings.Contains(buf.String(), "coloured") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
