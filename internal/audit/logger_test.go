package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var out []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("decode audit line %q: %v", sc.Text(), err)
		}
		out = append(out, e)
	}
	return out
}

func TestLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.log")
	l := NewLogger(path)
	at := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return at }

	if err := l.Log("ada@example.com", "auth.register", "u1", "success", ""); err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if err := l.Log("ada@example.com", "habit.create", "h1", "success", "rid=abc"); err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	events := readEvents(t, path)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Action != "auth.register" || events[0].Target != "u1" || !events[0].At.Equal(at) {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Detail != "rid=abc" {
		t.Fatalf("unexpected detail %q", events[1].Detail)
	}
}

func TestLoggerReopensAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := NewLogger(path)

	if err := l.Log("a", "auth.login", "", "failed", ""); err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := l.Log("a", "auth.login", "", "success", ""); err != nil {
		t.Fatalf("Log() after Close error: %v", err)
	}
	_ = l.Close()

	if n := len(readEvents(t, path)); n != 2 {
		t.Fatalf("expected 2 events appended, got %d", n)
	}
}

func TestLoggerWithoutPathDiscards(t *testing.T) {
	if err := NewLogger("").Log("a", "b", "", "c", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var nilLogger *Logger
	if err := nilLogger.Log("a", "b", "", "c", ""); err != nil {
		t.Fatalf("expected no error for nil logger, got %v", err)
	}
	if err := nilLogger.Close(); err != nil {
		t.Fatalf("expected no error closing nil logger, got %v", err)
	}
}
