package logbook

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weekly.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestEchoHonorsMinimumLevel(t *testing.T) {
	dir := t.TempDir()
	var console strings.Builder
	book, err := New(filepath.Join(dir, "weekly.log"), WithEcho(&console, LevelWarn))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}

	book.Debug("too quiet")
	book.Info("still quiet")
	book.Warn("loud enough")
	book.Error("very loud")

	echoed := console.String()
	if strings.Contains(echoed, "too quiet") || strings.Contains(echoed, "still quiet") {
		t.Fatalf("entries below min leaked to echo: %q", echoed)
	}
	if !strings.Contains(echoed, "loud enough") || !strings.Contains(echoed, "very loud") {
		t.Fatalf("entries at or above min missing from echo: %q", echoed)
	}

	// The journal itself records everything.
	lines, total := book.Tail(10)
	if total != 4 {
		t.Fatalf("journal lines = %d, want 4", total)
	}
	if !strings.Contains(strings.Join(lines, "\n"), "too quiet") {
		t.Fatalf("journal missing debug entry")
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"chatty", LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if path := book.Path(); path != "" {
		t.Fatalf("nil path = %q, want empty", path)
	}
	if lines, total := book.Tail(5); lines != nil || total != 0 {
		t.Fatalf("nil tail = %v/%d, want nil/0", lines, total)
	}
}
