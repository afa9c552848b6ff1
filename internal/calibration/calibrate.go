package calibration

import (
	"math"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/logging"
	"github.com/abdul-hamid-achik/usagecal/internal/usage"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

const (
	fallbackConfidence = 0.5
	thresholdGain      = 0.5
)

// LearnedLimits are the model's input and output rate limits.
type LearnedLimits struct {
	Input  *Rate `json:"input"`
	Output *Rate `json:"output"`
}

// Result is a calibrated reading plus how it was obtained.
type Result struct {
	OriginalValue   float64        `json:"original_value"`
	CalibratedValue float64        `json:"calibrated_value"`
	OffsetApplied   float64        `json:"offset_applied"`
	Confidence      float64        `json:"confidence"`
	Status          Status         `json:"status"`
	Method          Method         `json:"method"`
	Threshold       float64        `json:"threshold"`
	WindowKey       window.Key     `json:"window_key"`
	ExpiresAt       *time.Time     `json:"expires_at,omitempty"`
	LearnedLimit    *Rate          `json:"learned_limit,omitempty"`
	FallbackLimit   *Rate          `json:"fallback_limit,omitempty"`
	LearnedLimits   *LearnedLimits `json:"learned_limits,omitempty"`
}

// Percent returns the calibrated value on a 0-100 scale.
func (r Result) Percent() float64 {
	return r.CalibratedValue * 100
}

// Calibrate corrects raw (a 0-1 fraction) for key. snap supplies live token
// counts and may be nil, in which case every token-based step is skipped.
//
// The cascade, in order: a valid override; passthrough when there is no
// model; the cross-window fallback limit while the window has fewer than
// MinSamples samples; then the learned limits, the fallback limit or the
// learned offset.
func (e *Engine) Calibrate(raw float64, key window.Key, snap *usage.Snapshot) Result {
	store, err := e.load()
	if err != nil {
		e.log.Warn("Calibrating without stored data", logging.Error(err))
		store = make(Store)
	}

	now := e.Now()
	ov, dropped := e.checkOverride(store, key, now)
	if dropped {
		if err := e.save(store); err != nil {
			e.log.Warn("Could not persist dropped override", logging.WindowKey(key.String()), logging.Error(err))
		}
	}

	var res Result
	if ov != nil {
		res = e.fromOverride(raw, key, ov, snap)
	} else {
		res = e.fromModel(raw, key, store, snap)
	}

	e.log.Debug("Calibrated",
		logging.WindowKey(key.String()),
		logging.Method(string(res.Method)),
		logging.Value("raw", res.OriginalValue),
		logging.Value("calibrated", res.CalibratedValue))
	logging.LogEvent(logging.EventCalibrate,
		logging.WindowKey(key.String()),
		logging.Method(string(res.Method)),
		logging.Status(string(res.Status)),
		logging.Value("raw", res.OriginalValue),
		logging.Value("calibrated", res.CalibratedValue),
		logging.Confidence(res.Confidence))
	logging.GlobalMetrics().RecordCalibration(string(res.Method))

	return res
}

func (e *Engine) fromOverride(raw float64, key window.Key, ov *Override, snap *usage.Snapshot) Result {
	value := ov.CalibratedPercentage / 100
	method := MethodOverrideFixed

	var limit *Rate
	if ov.LearnedLimit > 0 && e.bounds.Contains(ov.LearnedLimit) {
		limit = ratePtr(ov.LearnedLimit)
		if tokens, ok := snap.TokensFor(key); ok {
			value = projected(tokens.OutputTotal(), ov.LearnedLimit, key.Minutes())
			method = MethodOverrideLimitBased
		}
	}

	expires := ov.ExpiresAt
	return Result{
		OriginalValue:   round4(raw),
		CalibratedValue: round4(value),
		OffsetApplied:   round4(value - raw),
		Confidence:      1.0,
		Status:          StatusOverride,
		Method:          method,
		Threshold:       e.baseline,
		WindowKey:       key,
		ExpiresAt:       &expires,
		LearnedLimit:    limit,
	}
}

func (e *Engine) fromModel(raw float64, key window.Key, store Store, snap *usage.Snapshot) Result {
	rec := store[key]
	if rec == nil || rec.Model == nil {
		return e.passthrough(raw, key, 0, StatusNoData)
	}
	m := rec.Model

	if m.SampleCount < MinSamples {
		if value, limit, ok := e.fallbackValue(key, store, snap); ok {
			return Result{
				OriginalValue:   round4(raw),
				CalibratedValue: round4(value),
				OffsetApplied:   round4(value - raw),
				Confidence:      fallbackConfidence,
				Status:          StatusLearningWithFallback,
				Method:          MethodFallbackLimit,
				Threshold:       e.baseline,
				WindowKey:       key,
				FallbackLimit:   ratePtr(limit),
			}
		}
		return e.passthrough(raw, key, m.Confidence, StatusInsufficientData)
	}

	res := Result{
		OriginalValue: round4(raw),
		OffsetApplied: round4(m.OffsetMean),
		Confidence:    m.Confidence,
		Status:        m.Status,
		Threshold:     round4(e.baseline * (1 + m.Confidence*thresholdGain)),
		WindowKey:     key,
	}

	var value float64
	if m.HasLimitLearning {
		res.LearnedLimits = &LearnedLimits{Input: m.LearnedInputLimit, Output: m.LearnedOutputLimit}
		if v, ok := limitValue(key, m, snap); ok {
			value, res.Method = v, MethodLimitBased
		} else {
			value, res.Method = raw+m.OffsetMean, MethodOffsetFallback
		}
	} else if v, limit, ok := e.fallbackValue(key, store, snap); ok {
		value, res.Method = v, MethodFallbackLimit
		res.FallbackLimit = ratePtr(limit)
	} else {
		value, res.Method = raw+m.OffsetMean, MethodOffsetBased
	}

	res.CalibratedValue = round4(value)
	return res
}

func (e *Engine) passthrough(raw float64, key window.Key, confidence float64, status Status) Result {
	return Result{
		OriginalValue:   round4(raw),
		CalibratedValue: round4(raw),
		Confidence:      confidence,
		Status:          status,
		Method:          MethodPassthrough,
		Threshold:       e.baseline,
		WindowKey:       key,
	}
}

// fallbackValue projects the session output tokens against the cross-window
// fallback limit. Never used for the weekly window.
func (e *Engine) fallbackValue(key window.Key, store Store, snap *usage.Snapshot) (float64, Rate, bool) {
	if key.IsWeekly() {
		return 0, 0, false
	}
	limit, ok := FallbackLimit(store)
	if !ok {
		return 0, 0, false
	}
	tokens, ok := snap.TokensFor(key)
	if !ok {
		return 0, 0, false
	}
	logging.LogEvent(logging.EventFallback,
		logging.WindowKey(key.String()),
		logging.Limit("fallback_tpm", int(limit)))
	return projected(tokens.OutputTotal(), limit, window.SlotMinutes), limit, true
}

// limitValue projects live tokens against the model's learned limits and
// takes the larger of the input and output fractions. Learned limits are
// per-minute rates over a session slot, so the weekly window never uses them.
func limitValue(key window.Key, m *Model, snap *usage.Snapshot) (float64, bool) {
	if key.IsWeekly() {
		return 0, false
	}
	if m.LearnedInputLimit == nil || m.LearnedOutputLimit == nil ||
		*m.LearnedInputLimit <= 0 || *m.LearnedOutputLimit <= 0 {
		return 0, false
	}
	tokens, ok := snap.TokensFor(key)
	if !ok {
		return 0, false
	}
	in := projected(tokens.InputTotal(), *m.LearnedInputLimit, window.SlotMinutes)
	out := projected(tokens.OutputTotal(), *m.LearnedOutputLimit, window.SlotMinutes)
	return math.Max(in, out), true
}

// projected is the fraction of limit×minutes that tokens represent.
func projected(tokens int64, limit Rate, minutes int) float64 {
	return float64(tokens) / (float64(limit) * float64(minutes))
}
