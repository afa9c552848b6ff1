package calibration

import (
	"math"

	"github.com/abdul-hamid-achik/usagecal/internal/logging"
)

// Bounds are the safety limits for reverse-solved rate limits.
type Bounds struct {
	Min Rate
	Max Rate
}

// DefaultBounds are used when no bounds are configured.
var DefaultBounds = Bounds{Min: 100, Max: 20000}

// Contains reports whether r lies within the bounds.
func (b Bounds) Contains(r Rate) bool {
	return r >= b.Min && r <= b.Max
}

// ReverseLimit estimates the rate limit implied by one observation: tokens
// used so far were actualPercent of what the limit allows over minutes.
// The result is rounded and clamped into the bounds. It returns false when
// any input is non-positive or the percent is NaN.
func (b Bounds) ReverseLimit(actualPercent float64, tokens int64, minutes int) (Rate, bool) {
	if !(actualPercent > 0) || tokens <= 0 || minutes <= 0 {
		return 0, false
	}

	// Clamp in float64: a tiny percent can overflow the integer conversion.
	raw := math.RoundToEven(float64(tokens) / (actualPercent / 100) / float64(minutes))

	switch {
	case raw < float64(b.Min):
		warnClamp(raw, b.Min, "below minimum")
		return b.Min, true
	case raw > float64(b.Max):
		warnClamp(raw, b.Max, "above maximum")
		return b.Max, true
	}
	return Rate(raw), true
}

func warnClamp(raw float64, bound Rate, reason string) {
	logger().Warn("Reverse-solved limit out of range, clamping",
		logging.Value("raw_tpm", raw),
		logging.Limit("clamped_tpm", int(bound)),
		logging.Reason(reason))
	logging.LogEvent(logging.EventLimitClamp,
		logging.Value("raw_tpm", raw),
		logging.Limit("clamped_tpm", int(bound)))
	logging.GlobalMetrics().RecordLimitClamped()
}

func logger() *logging.Logger {
	return logging.Global().WithPrefix("calibration")
}
