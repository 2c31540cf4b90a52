package logger

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(io.Discard)
		SetDebug(false)
	})
	return &buf
}

func TestInfoCFFormat(t *testing.T) {
	buf := capture(t)

	InfoCF("chat", "stream completed", map[string]interface{}{
		"model":    "primary",
		"fallback": false,
	})

	line := buf.String()
	if !strings.Contains(line, " INFO [chat] stream completed") {
		t.Errorf("line = %q", line)
	}
	// Fields are sorted by key.
	if !strings.HasSuffix(strings.TrimSpace(line), "fallback=false model=primary") {
		t.Errorf("fields = %q", line)
	}
}

func TestDebugSuppressedByDefault(t *testing.T) {
	buf := capture(t)

	Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug leaked: %q", buf.String())
	}

	SetDebug(true)
	Debug("visible")
	if !strings.Contains(buf.String(), "DEBUG visible") {
		t.Errorf("line = %q", buf.String())
	}
}

func TestPlainLevels(t *testing.T) {
	buf := capture(t)

	Info("a")
	Warn("b")
	Error("c")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d", len(lines))
	}
	for i, want := range []string{"INFO a", "WARN b", "ERROR c"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}
