package usage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ucerr "github.com/abdul-hamid-achik/usagecal/internal/errors"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

const activeSnapshot = `{
  "status": "active",
  "session": {
    "usage": {"input_tokens": 1200, "output_tokens": 103279, "cache_creation_tokens": 800, "cache_read_tokens": 50000, "total_counted_tokens": 105279, "messages_count": 42},
    "percentages": {"input_percentage": 12.5, "output_percentage": 36.1, "max_percentage": 36.1},
    "window": {"start": "2025-03-01T15:12:00+09:00", "end": "2025-03-01T20:12:00+09:00"},
    "display": {"progress_bar": "███░░░░░░░"}
  },
  "weekly": {
    "usage": {"input_tokens": 9000, "output_tokens": 700000, "cache_creation_tokens": 1000, "total_counted_tokens": 710000},
    "percentages": {"input_percentage": 3.0, "output_percentage": 21.4, "max_percentage": 21.4},
    "window": {"start": "2025-02-24T00:00:00+09:00"}
  },
  "timestamp": "2025-03-01T16:40:00.123456+09:00"
}`

func TestParseActive(t *testing.T) {
	snap, err := Parse([]byte(activeSnapshot))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if math.Abs(snap.Monitor()-0.361) > 1e-9 {
		t.Errorf("Monitor() = %v, want 0.361", snap.Monitor())
	}
	if math.Abs(snap.WeeklyMonitor()-0.214) > 1e-9 {
		t.Errorf("WeeklyMonitor() = %v, want 0.214", snap.WeeklyMonitor())
	}

	if !snap.Session.HasUsage {
		t.Fatal("session usage should be present")
	}
	if got := snap.Session.Usage.InputTotal(); got != 2000 {
		t.Errorf("session InputTotal = %d, want 2000", got)
	}
	if got := snap.Session.Usage.OutputTotal(); got != 103279 {
		t.Errorf("session OutputTotal = %d, want 103279", got)
	}

	if got := snap.SessionKey(window.NewResolver(14), nil); got != "14:00-19:00" {
		t.Errorf("SessionKey = %q, want 14:00-19:00", got)
	}
	// 15:12 KST is 06:12 UTC.
	if got := snap.SessionKey(window.NewResolver(14), time.UTC); got != "05:00-10:00" {
		t.Errorf("SessionKey(UTC) = %q, want 05:00-10:00", got)
	}

	weekly, ok := snap.TokensFor(window.Weekly)
	if !ok || weekly.OutputTokens != 700000 {
		t.Errorf("weekly tokens = %+v, %v", weekly, ok)
	}
	if snap.Timestamp.IsZero() {
		t.Error("timestamp should be parsed")
	}
	if string(snap.Raw) != activeSnapshot {
		t.Error("Raw should hold the original document")
	}
}

func TestParseNoData(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"not json", `{"status": "active",`, ucerr.CodeSnapshotMalformed},
		{"inactive", `{"status": "no_session"}`, ucerr.CodeSnapshotInactive},
		{"missing status", `{}`, ucerr.CodeSnapshotInactive},
		{"missing weekly", `{"status":"active","session":{"percentages":{"max_percentage":1},"window":{"start":"2025-03-01T15:00:00+09:00"},"usage":{"input_tokens":1,"output_tokens":1,"cache_creation_tokens":0,"total_counted_tokens":2}}}`, ucerr.CodeSnapshotMalformed},
		{"bad window start", strings.Replace(activeSnapshot, "2025-03-01T15:12:00+09:00", "yesterday", 1), ucerr.CodeSnapshotMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrNoData) {
				t.Fatalf("Parse error = %v, want ErrNoData", err)
			}
			if !ucerr.HasCode(err, tt.code) {
				t.Errorf("Parse error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestWeeklyUsageOptional(t *testing.T) {
	doc := strings.Replace(activeSnapshot, `"usage": {"input_tokens": 9000, "output_tokens": 700000, "cache_creation_tokens": 1000, "total_counted_tokens": 710000},`, "", 1)
	snap, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := snap.TokensFor(window.Weekly); ok {
		t.Error("weekly tokens should be absent")
	}
	if _, ok := snap.TokensFor("14:00-19:00"); !ok {
		t.Error("session tokens should be present")
	}
}

func TestTokensForNilSnapshot(t *testing.T) {
	var snap *Snapshot
	if _, ok := snap.TokensFor("14:00-19:00"); ok {
		t.Error("nil snapshot should have no tokens")
	}
}

func TestParseTimeWithoutOffset(t *testing.T) {
	got, err := parseTime("2025-03-01T15:12:00.250000")
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if got.Hour() != 15 || got.Location() != time.Local {
		t.Errorf("parseTime = %v", got)
	}
}

func TestReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".claude_usage.json")

	r := NewReader(path)
	_, err := r.Read()
	if !errors.Is(err, ErrNoData) || !ucerr.HasCode(err, ucerr.CodeSnapshotUnavailable) {
		t.Fatalf("missing file: got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("missing file error should wrap os.ErrNotExist")
	}

	if err := os.WriteFile(path, []byte(activeSnapshot), 0644); err != nil {
		t.Fatal(err)
	}
	snap, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Status != StatusActive {
		t.Errorf("Status = %q", snap.Status)
	}
}
