// Package usage reads the usage snapshot written by the log aggregator.
//
// The snapshot is an externally produced, loosely shaped JSON document. Only
// the paths the calibration engine needs are extracted; everything else is
// left to downstream readers.
package usage

import (
	"errors"
	"fmt"
	"os"
	"time"

	ucerr "github.com/abdul-hamid-achik/usagecal/internal/errors"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
	"github.com/tidwall/gjson"
)

// ErrNoData is returned (wrapped) whenever no usable snapshot is available.
var ErrNoData = errors.New("no active monitor data")

// StatusActive is the only snapshot status that carries live data.
const StatusActive = "active"

// Tokens holds the token counters of one bucket.
type Tokens struct {
	InputTokens         int64 `json:"input_tokens"`
	OutputTokens        int64 `json:"output_tokens"`
	CacheCreationTokens int64 `json:"cache_creation_tokens"`
	TotalCountedTokens  int64 `json:"total_counted_tokens"`
}

// InputTotal is input plus cache-creation tokens, the quantity the input
// rate limit is measured against.
func (t Tokens) InputTotal() int64 {
	return t.InputTokens + t.CacheCreationTokens
}

// OutputTotal is the quantity the output rate limit is measured against.
func (t Tokens) OutputTotal() int64 {
	return t.OutputTokens
}

// Percentages are the aggregator's own uncalibrated estimates (0-100).
type Percentages struct {
	Input  float64
	Output float64
	Max    float64
}

// Bucket is the session or weekly section of a snapshot.
type Bucket struct {
	Usage       Tokens
	HasUsage    bool
	Percentages Percentages
	WindowStart time.Time
}

// Snapshot is the parsed usage snapshot.
type Snapshot struct {
	Status    string
	Session   Bucket
	Weekly    Bucket
	Timestamp time.Time

	// Raw is the document as read, kept so it can be annotated and re-emitted.
	Raw []byte
}

// Monitor returns the raw session value as a fraction (0-1).
func (s *Snapshot) Monitor() float64 {
	return s.Session.Percentages.Max / 100
}

// WeeklyMonitor returns the raw weekly value as a fraction (0-1).
func (s *Snapshot) WeeklyMonitor() float64 {
	return s.Weekly.Percentages.Max / 100
}

// TokensFor returns the token counters matching key's bucket, and whether
// they were present in the snapshot. A nil snapshot has no tokens.
func (s *Snapshot) TokensFor(key window.Key) (Tokens, bool) {
	if s == nil {
		return Tokens{}, false
	}
	if key.IsWeekly() {
		return s.Weekly.Usage, s.Weekly.HasUsage
	}
	return s.Session.Usage, s.Session.HasUsage
}

// SessionKey resolves the slot key the current session belongs to. The
// window start is read in loc when it is non-nil.
func (s *Snapshot) SessionKey(r window.Resolver, loc *time.Location) window.Key {
	start := s.Session.WindowStart
	if loc != nil {
		start = start.In(loc)
	}
	return r.SlotKey(start)
}

var requiredPaths = []string{
	"session.percentages.max_percentage",
	"weekly.percentages.max_percentage",
	"session.window.start",
	"session.usage.input_tokens",
	"session.usage.output_tokens",
	"session.usage.cache_creation_tokens",
	"session.usage.total_counted_tokens",
}

// Parse parses a snapshot document. Inactive or incomplete documents yield
// an error wrapping ErrNoData.
func Parse(data []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %w", ErrNoData, ucerr.SnapshotMalformed("document"))
	}

	doc := gjson.ParseBytes(data)
	status := doc.Get("status").String()
	if status != StatusActive {
		return nil, fmt.Errorf("%w: %w", ErrNoData, ucerr.SnapshotInactive(status))
	}

	for _, path := range requiredPaths {
		if !doc.Get(path).Exists() {
			return nil, fmt.Errorf("%w: %w", ErrNoData, ucerr.SnapshotMalformed(path))
		}
	}

	start, err := parseTime(doc.Get("session.window.start").String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, ucerr.SnapshotMalformed("session.window.start"))
	}

	snap := &Snapshot{
		Status:  status,
		Session: parseBucket(doc.Get("session")),
		Weekly:  parseBucket(doc.Get("weekly")),
		Raw:     data,
	}
	snap.Session.WindowStart = start
	if ts := doc.Get("timestamp"); ts.Exists() {
		snap.Timestamp, _ = parseTime(ts.String())
	}
	return snap, nil
}

func parseBucket(b gjson.Result) Bucket {
	var out Bucket
	pct := b.Get("percentages")
	out.Percentages = Percentages{
		Input:  pct.Get("input_percentage").Float(),
		Output: pct.Get("output_percentage").Float(),
		Max:    pct.Get("max_percentage").Float(),
	}

	u := b.Get("usage")
	if u.Get("input_tokens").Exists() && u.Get("output_tokens").Exists() {
		out.HasUsage = true
		out.Usage = Tokens{
			InputTokens:         u.Get("input_tokens").Int(),
			OutputTokens:        u.Get("output_tokens").Int(),
			CacheCreationTokens: u.Get("cache_creation_tokens").Int(),
			TotalCountedTokens:  u.Get("total_counted_tokens").Int(),
		}
	}

	if start := b.Get("window.start"); start.Exists() {
		out.WindowStart, _ = parseTime(start.String())
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseTime accepts RFC 3339 and the offset-less ISO forms the aggregator
// may emit. Offset-less times are taken as local time.
func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Reader loads the snapshot from a file.
type Reader struct {
	Path string
}

// NewReader returns a reader for the snapshot at path.
func NewReader(path string) *Reader {
	return &Reader{Path: path}
}

// Read reads and parses the snapshot. Any failure wraps ErrNoData.
func (r *Reader) Read() (*Snapshot, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, ucerr.SnapshotUnavailable(r.Path, err))
	}
	return Parse(data)
}
