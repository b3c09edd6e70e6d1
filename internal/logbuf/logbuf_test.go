package logbuf

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func entry(offset time.Duration, level, msg string) Entry {
	return Entry{Time: time.Now().Add(offset), Level: level, Message: msg}
}

func TestBufferEvictsOldest(t *testing.T) {
	b := New(3)
	for i, msg := range []string{"a", "b", "c", "d"} {
		b.Write(entry(time.Duration(i)*time.Second, "INFO", msg))
	}

	got := b.Query(time.Time{}, slog.LevelDebug, 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Message != "b" || got[2].Message != "d" {
		t.Errorf("expected oldest-first b..d, got %v", got)
	}
}

func TestBufferLevelFilter(t *testing.T) {
	b := New(10)
	b.Write(entry(0, "DEBUG", "noise"))
	b.Write(entry(0, "INFO", "indexed"))
	b.Write(entry(0, "ERROR", "boom"))

	got := b.Query(time.Time{}, slog.LevelWarn, 0)
	if len(got) != 1 || got[0].Message != "boom" {
		t.Errorf("level filter: %v", got)
	}
}

func TestBufferSinceFilter(t *testing.T) {
	b := New(10)
	old := time.Now().Add(-time.Hour)
	b.Write(Entry{Time: old, Level: "INFO", Message: "old"})
	b.Write(Entry{Time: time.Now(), Level: "INFO", Message: "new"})

	got := b.Query(time.Now().Add(-time.Minute), slog.LevelInfo, 0)
	if len(got) != 1 || got[0].Message != "new" {
		t.Errorf("since filter: %v", got)
	}
}

func TestBufferLimitKeepsNewest(t *testing.T) {
	b := New(10)
	for i, msg := range []string{"a", "b", "c"} {
		b.Write(entry(time.Duration(i)*time.Second, "INFO", msg))
	}

	got := b.Query(time.Time{}, slog.LevelInfo, 2)
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "c" {
		t.Errorf("limit must keep the newest entries: %v", got)
	}
}

func TestHandlerCapturesRecords(t *testing.T) {
	buf := New(10)
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(NewHandler(inner, buf))

	logger.Info("query answered", "session", "s1", "sources", 2)
	logger.Debug("below inner level but still buffered")

	got := buf.Query(time.Time{}, slog.LevelDebug, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 captured records, got %d", len(got))
	}
	if got[0].Message != "query answered" {
		t.Errorf("message: %q", got[0].Message)
	}
	if got[0].Attrs["session"] != "s1" {
		t.Errorf("attrs: %v", got[0].Attrs)
	}
}

func TestHandlerSerializesErrorAttrs(t *testing.T) {
	buf := New(10)
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewHandler(inner, buf))

	logger.Error("query failed", "error", errors.New("backend down"))

	got := buf.Query(time.Time{}, slog.LevelError, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Attrs["error"] != "backend down" {
		t.Errorf("error attr must capture as its message, got %#v", got[0].Attrs["error"])
	}

	raw, err := json.Marshal(got[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"error":"backend down"`) {
		t.Errorf("error message lost in JSON output: %s", raw)
	}
}

func TestHandlerWithAttrs(t *testing.T) {
	buf := New(10)
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewHandler(inner, buf)).With("component", "ingest")

	logger.Info("course indexed", "chunks", 12)

	got := buf.Query(time.Time{}, slog.LevelInfo, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Attrs["component"] != "ingest" {
		t.Errorf("bound attrs must be captured: %v", got[0].Attrs)
	}
	if got[0].Attrs["chunks"] != int64(12) {
		t.Errorf("record attrs must be captured: %v", got[0].Attrs)
	}
}
