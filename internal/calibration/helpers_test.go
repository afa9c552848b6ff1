package calibration

import (
	"math"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/usage"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

var kst = time.FixedZone("KST", 9*60*60)

const afternoon window.Key = "14:00-19:00"

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Set(t time.Time) { c.t = t }

func kstTime(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, kst)
}

func newTestEngine(t *testing.T, now time.Time) (*Engine, *MemoryRepository, *testClock) {
	t.Helper()
	repo := NewMemoryRepository()
	clock := &testClock{t: now}
	opts := DefaultOptions()
	opts.Location = kst
	opts.Now = clock.Now
	return NewEngine(repo, opts), repo, clock
}

func seedStore(t *testing.T, repo *MemoryRepository, store Store) {
	t.Helper()
	if err := repo.Save(store); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

func loadStore(t *testing.T, repo *MemoryRepository) Store {
	t.Helper()
	store, err := repo.Load()
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

// learnedModel is a model that contributes limit to the cross-window fallback.
func learnedModel(key window.Key, samples int, limit Rate) *Model {
	return &Model{
		SampleCount:        samples,
		Status:             StatusLearned,
		Confidence:         0.8,
		WindowKey:          key,
		LearnedInputLimit:  ratePtr(limit / 2),
		LearnedOutputLimit: ratePtr(limit),
		HasLimitLearning:   true,
	}
}

func snapshotWith(session, weekly usage.Tokens) *usage.Snapshot {
	return &usage.Snapshot{
		Status: usage.StatusActive,
		Session: usage.Bucket{
			Usage:       session,
			HasUsage:    true,
			Percentages: usage.Percentages{Max: 30},
			WindowStart: kstTime(1, 15, 12),
		},
		Weekly: usage.Bucket{
			Usage:       weekly,
			HasUsage:    true,
			Percentages: usage.Percentages{Max: 20},
		},
	}
}

func assertClose(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}
