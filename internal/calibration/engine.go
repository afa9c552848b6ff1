// Package calibration learns how the locally computed usage estimate
// diverges from user-confirmed ground truth and corrects new readings.
//
// Each window key owns an independent history of samples, a model derived
// from that history and an optional override. The Engine is the only code
// that reads or writes the store, always through a Repository and never
// holding state between calls.
package calibration

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/logging"
	"github.com/abdul-hamid-achik/usagecal/internal/usage"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

// DefaultBaselineThreshold is the alert threshold before any learning.
const DefaultBaselineThreshold = 0.15

// Options configures an Engine.
type Options struct {
	BaseHour          int
	BaselineThreshold float64
	Bounds            Bounds
	Location          *time.Location

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		BaseHour:          window.DefaultBaseHour,
		BaselineThreshold: DefaultBaselineThreshold,
		Bounds:            DefaultBounds,
		Location:          time.Local,
	}
}

// Engine runs calibration operations against a Repository.
type Engine struct {
	repo     Repository
	resolver window.Resolver
	bounds   Bounds
	baseline float64
	loc      *time.Location
	now      func() time.Time
	log      *logging.Logger
}

// NewEngine creates an engine. An unset threshold, bounds, location or
// clock falls back to its default; BaseHour is always taken as given.
func NewEngine(repo Repository, opts Options) *Engine {
	def := DefaultOptions()
	if opts.BaselineThreshold <= 0 {
		opts.BaselineThreshold = def.BaselineThreshold
	}
	if opts.Bounds == (Bounds{}) {
		opts.Bounds = def.Bounds
	}
	if opts.Location == nil {
		opts.Location = def.Location
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		repo:     repo,
		resolver: window.NewResolver(opts.BaseHour),
		bounds:   opts.Bounds,
		baseline: opts.BaselineThreshold,
		loc:      opts.Location,
		now:      opts.Now,
		log:      logging.Global().WithPrefix("engine"),
	}
}

// Now returns the engine clock in the configured location.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

// SessionKey returns the slot key of snap's session, read in the engine's
// location.
func (e *Engine) SessionKey(snap *usage.Snapshot) window.Key {
	return snap.SessionKey(e.resolver, e.loc)
}

// Store returns a fresh copy of the whole store.
func (e *Engine) Store() (Store, error) {
	return e.load()
}

func (e *Engine) load() (Store, error) {
	store, err := e.repo.Load()
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	if store == nil {
		store = make(Store)
	}
	return store, nil
}

func (e *Engine) save(store Store) error {
	if err := e.repo.Save(store); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	return nil
}

// Record appends a sample to key's history, evicting the oldest samples
// beyond MaxHistory. Values are fractions (0-1); range checks are the
// caller's job.
func (e *Engine) Record(key window.Key, monitor, actual float64, tokens *usage.Tokens) (Sample, error) {
	sample := NewSample(e.Now(), monitor, actual, tokens)

	store, err := e.load()
	if err != nil {
		return Sample{}, err
	}

	rec := store.record(key)
	rec.History = append(rec.History, sample)
	if len(rec.History) > MaxHistory {
		rec.History = rec.History[len(rec.History)-MaxHistory:]
	}

	if err := e.save(store); err != nil {
		return Sample{}, err
	}

	e.log.Debug("Recorded sample",
		logging.WindowKey(key.String()),
		logging.Offset(sample.Offset),
		logging.Samples(len(rec.History)))
	logging.LogEvent(logging.EventSampleRecord,
		logging.WindowKey(key.String()),
		logging.Value("monitor", sample.MonitorValue),
		logging.Value("actual", sample.ActualValue),
		logging.Offset(sample.Offset),
		logging.F("has_tokens", sample.TokenData != nil))
	logging.GlobalMetrics().RecordSample()

	return sample, nil
}

// UpdateModel recomputes key's model from its history and persists it.
// A window without history yields a no_data model that is not stored.
func (e *Engine) UpdateModel(key window.Key) (Model, error) {
	store, err := e.load()
	if err != nil {
		return Model{}, err
	}

	rec, ok := store[key]
	if !ok || rec == nil || len(rec.History) == 0 {
		return ComputeModel(key, nil, e.baseline, e.Now()), nil
	}

	m := ComputeModel(key, rec.History, e.baseline, e.Now())
	rec.Model = &m
	if err := e.save(store); err != nil {
		return Model{}, err
	}

	e.log.Debug("Updated model",
		logging.WindowKey(key.String()),
		logging.Status(string(m.Status)),
		logging.Confidence(m.Confidence),
		logging.Samples(m.SampleCount))
	logging.LogEvent(logging.EventModelUpdate,
		logging.WindowKey(key.String()),
		logging.Status(string(m.Status)),
		logging.Confidence(m.Confidence),
		logging.Offset(m.OffsetMean),
		logging.F("has_limit_learning", m.HasLimitLearning))
	logging.GlobalMetrics().RecordModelUpdate()

	return m, nil
}
