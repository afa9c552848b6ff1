// Package metrics exposes calibration results as Prometheus metrics and
// exports them to a node_exporter textfile.
package metrics

import (
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/calibration"
	ucerr "github.com/abdul-hamid-achik/usagecal/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "usagecal"

// Bucket labels.
const (
	BucketSession = "session"
	BucketWeekly  = "weekly"
)

// Tick outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeNoData  = "no_data"
	OutcomeError   = "error"
)

// Recorder holds the collectors on a private registry. A nil Recorder is
// valid and records nothing.
type Recorder struct {
	reg *prometheus.Registry

	rawValue        *prometheus.GaugeVec
	calibratedValue *prometheus.GaugeVec
	confidence      *prometheus.GaugeVec
	threshold       *prometheus.GaugeVec
	learnedLimit    *prometheus.GaugeVec
	calibrations    *prometheus.CounterVec
	ticks           *prometheus.CounterVec
	tickDuration    prometheus.Histogram
	lastTick        prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		rawValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "raw_usage_ratio",
			Help:      "Uncalibrated usage estimate (0-1).",
		}, []string{"bucket"}),
		calibratedValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calibrated_usage_ratio",
			Help:      "Calibrated usage estimate (0-1).",
		}, []string{"bucket"}),
		confidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "confidence",
			Help:      "Confidence of the calibration that produced the current value.",
		}, []string{"bucket"}),
		threshold: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_threshold",
			Help:      "Adaptive alert threshold for the bucket.",
		}, []string{"bucket"}),
		learnedLimit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "learned_limit_tokens_per_minute",
			Help:      "Rate limit in effect for the bucket, by direction.",
		}, []string{"bucket", "direction"}),
		calibrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calibrations_total",
			Help:      "Calibrations performed, partitioned by bucket and method.",
		}, []string{"bucket", "method"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_ticks_total",
			Help:      "Monitor ticks, partitioned by outcome.",
		}, []string{"outcome"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "monitor_tick_seconds",
			Help:      "Monitor tick latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		lastTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_tick_timestamp_seconds",
			Help:      "Unix time of the last successful monitor tick.",
		}),
	}

	r.reg.MustRegister(
		r.rawValue,
		r.calibratedValue,
		r.confidence,
		r.threshold,
		r.learnedLimit,
		r.calibrations,
		r.ticks,
		r.tickDuration,
		r.lastTick,
	)
	return r
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// ObserveResult records one calibration result for bucket.
func (r *Recorder) ObserveResult(bucket string, res calibration.Result) {
	if r == nil {
		return
	}
	r.rawValue.WithLabelValues(bucket).Set(res.OriginalValue)
	r.calibratedValue.WithLabelValues(bucket).Set(res.CalibratedValue)
	r.confidence.WithLabelValues(bucket).Set(res.Confidence)
	r.threshold.WithLabelValues(bucket).Set(res.Threshold)
	r.calibrations.WithLabelValues(bucket, string(res.Method)).Inc()

	var in, out *calibration.Rate
	switch {
	case res.LearnedLimits != nil:
		in, out = res.LearnedLimits.Input, res.LearnedLimits.Output
	case res.LearnedLimit != nil:
		out = res.LearnedLimit
	case res.FallbackLimit != nil:
		out = res.FallbackLimit
	}
	setLimit(r.learnedLimit, bucket, "input", in)
	setLimit(r.learnedLimit, bucket, "output", out)
}

func setLimit(g *prometheus.GaugeVec, bucket, direction string, limit *calibration.Rate) {
	if limit == nil {
		g.DeleteLabelValues(bucket, direction)
		return
	}
	g.WithLabelValues(bucket, direction).Set(float64(*limit))
}

// ObserveTick records a finished monitor tick.
func (r *Recorder) ObserveTick(start time.Time, outcome string) {
	if r == nil {
		return
	}
	r.ticks.WithLabelValues(outcome).Inc()
	r.tickDuration.Observe(time.Since(start).Seconds())
	if outcome == OutcomeSuccess {
		r.lastTick.Set(float64(time.Now().Unix()))
	}
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return ucerr.MetricsExportFailed(path, err)
	}
	return nil
}
