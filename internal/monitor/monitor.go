// Package monitor runs the calibration poll loop: read the usage snapshot,
// calibrate the session and weekly values, publish the annotated snapshot
// and export metrics.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/calibration"
	"github.com/abdul-hamid-achik/usagecal/internal/logging"
	"github.com/abdul-hamid-achik/usagecal/internal/metrics"
	"github.com/abdul-hamid-achik/usagecal/internal/store"
	"github.com/abdul-hamid-achik/usagecal/internal/usage"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
	"golang.org/x/time/rate"
)

// DefaultInterval is the time between ticks when none is configured.
const DefaultInterval = 60 * time.Second

// Options configures a Monitor.
type Options struct {
	// Output is where the annotated snapshot is written. Empty disables it.
	Output string

	// MetricsTextfile is the node_exporter textfile. Empty disables export.
	MetricsTextfile string
	Metrics         *metrics.Recorder

	Interval time.Duration

	// Follow wakes the loop whenever the snapshot file is rewritten.
	// MinSpacing is the shortest time allowed between two ticks.
	Follow     bool
	MinSpacing time.Duration

	// OnTick, when set, is called after every tick.
	OnTick func(*TickResult, error)
}

// TickResult is the outcome of one successful tick.
type TickResult struct {
	Snapshot   *usage.Snapshot
	SessionKey window.Key
	Session    calibration.Result
	Weekly     calibration.Result
	At         time.Time
}

// Monitor calibrates snapshots as they are produced.
type Monitor struct {
	engine *calibration.Engine
	reader *usage.Reader
	opts   Options
	log    *logging.Logger
}

// New creates a monitor.
func New(engine *calibration.Engine, reader *usage.Reader, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Monitor{
		engine: engine,
		reader: reader,
		opts:   opts,
		log:    logging.Global().WithPrefix("monitor"),
	}
}

// Tick runs one monitor cycle. A missing or inactive snapshot returns an
// error wrapping usage.ErrNoData and writes nothing.
func (m *Monitor) Tick() (*TickResult, error) {
	start := time.Now()

	res, err := m.tick()

	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, usage.ErrNoData):
		outcome = metrics.OutcomeNoData
	case err != nil:
		outcome = metrics.OutcomeError
	}
	m.opts.Metrics.ObserveTick(start, outcome)
	logging.GlobalMetrics().RecordTick(err)

	if err := m.opts.Metrics.WriteTextfile(m.opts.MetricsTextfile); err != nil {
		m.log.Warn("Metrics export failed", logging.Error(err))
	}

	logging.LogEvent(logging.EventMonitorTick,
		logging.Status(outcome),
		logging.DurationSince(start))
	return res, err
}

func (m *Monitor) tick() (*TickResult, error) {
	snap, err := m.reader.Read()
	if err != nil {
		return nil, err
	}

	res := &TickResult{
		Snapshot:   snap,
		SessionKey: m.engine.SessionKey(snap),
		At:         m.engine.Now(),
	}
	res.Session = m.engine.Calibrate(snap.Monitor(), res.SessionKey, snap)
	res.Weekly = m.engine.Calibrate(snap.WeeklyMonitor(), window.Weekly, snap)

	m.opts.Metrics.ObserveResult(metrics.BucketSession, res.Session)
	m.opts.Metrics.ObserveResult(metrics.BucketWeekly, res.Weekly)

	if m.opts.Output != "" {
		out, err := Annotate(snap.Raw, res.Session, res.Weekly, res.At)
		if err != nil {
			return nil, err
		}
		if err := store.WriteAtomic(m.opts.Output, out); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
		logging.LogEvent(logging.EventMonitorOutput, logging.Path(m.opts.Output))
	}

	m.log.Debug("Tick",
		logging.WindowKey(res.SessionKey.String()),
		logging.Value("session", res.Session.CalibratedValue),
		logging.Value("weekly", res.Weekly.CalibratedValue))
	return res, nil
}

// Run ticks until ctx is cancelled. Tick failures are logged and reported
// to OnTick but never stop the loop. Run returns nil on cancellation.
func (m *Monitor) Run(ctx context.Context) error {
	var wake <-chan struct{}
	pace := rate.NewLimiter(rate.Every(m.opts.Interval), 1)

	if m.opts.Follow {
		w, err := watch(ctx, m.reader.Path, m.log)
		if err != nil {
			m.log.Warn("Follow mode unavailable, polling only", logging.Error(err))
		} else {
			wake = w
			pace = rate.NewLimiter(rate.Every(m.opts.MinSpacing), 1)
		}
	}

	m.log.Info("Monitor started",
		logging.Path(m.reader.Path),
		logging.Duration(m.opts.Interval),
		logging.F("follow", wake != nil))

	for {
		if err := pace.Wait(ctx); err != nil {
			return stopped(ctx, err)
		}

		res, err := m.Tick()
		if err != nil {
			m.logTickError(err)
		}
		if m.opts.OnTick != nil {
			m.opts.OnTick(res, err)
		}

		if wake == nil {
			continue
		}

		timer := time.NewTimer(m.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		case _, ok := <-wake:
			timer.Stop()
			if !ok {
				// watcher gone; the next wait falls back to the interval
				wake = nil
				pace = rate.NewLimiter(rate.Every(m.opts.Interval), 1)
				pace.Allow()
			} else {
				logging.LogEvent(logging.EventMonitorWake, logging.Path(m.reader.Path))
			}
		}
	}
}

func (m *Monitor) logTickError(err error) {
	if errors.Is(err, usage.ErrNoData) {
		m.log.Debug("No active monitor data", logging.Error(err))
		return
	}
	m.log.Warn("Tick failed", logging.Error(err))
}

// stopped maps a pacing error to Run's return value.
func stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
