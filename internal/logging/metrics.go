package logging

import (
	"sync"
	"time"
)

// Metrics collects counters for a single process run.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	mu sync.Mutex

	RunStart time.Time `json:"run_start"`
	RunEnd   time.Time `json:"run_end,omitempty"`

	// Calibrations by method name
	Calibrations map[string]int `json:"calibrations"`

	SamplesRecorded  int `json:"samples_recorded"`
	ModelUpdates     int `json:"model_updates"`
	OverridesSet     int `json:"overrides_set"`
	OverridesDropped int `json:"overrides_dropped"`
	LimitsClamped    int `json:"limits_clamped"`

	// Poll loop
	Ticks      int `json:"ticks"`
	TickErrors int `json:"tick_errors"`
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		RunStart:     time.Now(),
		Calibrations: make(map[string]int),
	}
}

// RecordCalibration counts one calibrate call by its method.
func (m *Metrics) RecordCalibration(method string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calibrations[method]++
}

// RecordSample counts one recorded sample.
func (m *Metrics) RecordSample() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SamplesRecorded++
}

// RecordModelUpdate counts one model recompute.
func (m *Metrics) RecordModelUpdate() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ModelUpdates++
}

// RecordOverrideSet counts one installed override.
func (m *Metrics) RecordOverrideSet() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OverridesSet++
}

// RecordOverrideDropped counts one override deleted as expired or stale.
func (m *Metrics) RecordOverrideDropped() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OverridesDropped++
}

// RecordLimitClamped counts one reverse-solved limit clamped into bounds.
func (m *Metrics) RecordLimitClamped() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LimitsClamped++
}

// RecordTick counts one poll tick.
func (m *Metrics) RecordTick(err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ticks++
	if err != nil {
		m.TickErrors++
	}
}

// Summary returns a summary of the run metrics.
func (m *Metrics) Summary() MetricsSummary {
	if m == nil {
		return MetricsSummary{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RunEnd = time.Now()

	total := 0
	byMethod := make(map[string]int, len(m.Calibrations))
	for method, n := range m.Calibrations {
		total += n
		byMethod[method] = n
	}

	return MetricsSummary{
		RunDuration:       m.RunEnd.Sub(m.RunStart),
		CalibrationsTotal: total,
		ByMethod:          byMethod,
		SamplesRecorded:   m.SamplesRecorded,
		ModelUpdates:      m.ModelUpdates,
		OverridesSet:      m.OverridesSet,
		OverridesDropped:  m.OverridesDropped,
		LimitsClamped:     m.LimitsClamped,
		Ticks:             m.Ticks,
		TickErrors:        m.TickErrors,
	}
}

// GetSnapshot returns a copy of the current metrics for serialization.
func (m *Metrics) GetSnapshot() map[string]any {
	summary := m.Summary()
	return map[string]any{
		"run_duration_ms":    summary.RunDuration.Milliseconds(),
		"calibrations_total": summary.CalibrationsTotal,
		"calibrations":       summary.ByMethod,
		"samples_recorded":   summary.SamplesRecorded,
		"model_updates":      summary.ModelUpdates,
		"overrides_set":      summary.OverridesSet,
		"overrides_dropped":  summary.OverridesDropped,
		"limits_clamped":     summary.LimitsClamped,
		"ticks":              summary.Ticks,
		"tick_errors":        summary.TickErrors,
	}
}

// MetricsSummary provides a summary view of run metrics.
type MetricsSummary struct {
	RunDuration       time.Duration
	CalibrationsTotal int
	ByMethod          map[string]int
	SamplesRecorded   int
	ModelUpdates      int
	OverridesSet      int
	OverridesDropped  int
	LimitsClamped     int
	Ticks             int
	TickErrors        int
}
