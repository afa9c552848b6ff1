package calibration

import (
	"encoding/json"
	"math"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/usage"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

// MaxHistory is the number of samples kept per window.
const MaxHistory = 200

// MinSamples is the history length at which a window starts learning.
const MinSamples = 3

// Status describes how far a window's model (or a calibration result) got.
type Status string

const (
	StatusNoData               Status = "no_data"
	StatusInsufficientData     Status = "insufficient_data"
	StatusLearning             Status = "learning"
	StatusLearned              Status = "learned"
	StatusOverride             Status = "override"
	StatusLearningWithFallback Status = "learning_with_fallback"
)

// Method names the cascade step that produced a calibrated value.
type Method string

const (
	MethodOverrideLimitBased Method = "override_limit_based"
	MethodOverrideFixed      Method = "override_fixed"
	MethodPassthrough        Method = "passthrough"
	MethodFallbackLimit      Method = "fallback_limit"
	MethodLimitBased         Method = "limit_based"
	MethodOffsetFallback     Method = "offset_fallback"
	MethodOffsetBased        Method = "offset_based"
)

// Rate is a token rate limit in tokens per minute.
type Rate int

// UnmarshalJSON accepts integral floats ("882.0") as written by older stores.
func (r *Rate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Rate(math.Round(f))
	return nil
}

// Sample is one user-confirmed correction point. Values are fractions (0-1).
type Sample struct {
	Timestamp     time.Time     `json:"timestamp"`
	MonitorValue  float64       `json:"monitor_value"`
	ActualValue   float64       `json:"actual_value"`
	Offset        float64       `json:"offset"`
	AbsoluteError float64       `json:"absolute_error"`
	TokenData     *usage.Tokens `json:"token_data,omitempty"`
}

// NewSample builds a sample. The offset is taken from the unrounded inputs
// and every stored value is rounded to 4 decimals.
func NewSample(ts time.Time, monitor, actual float64, tokens *usage.Tokens) Sample {
	offset := actual - monitor
	s := Sample{
		Timestamp:     ts,
		MonitorValue:  round4(monitor),
		ActualValue:   round4(actual),
		Offset:        round4(offset),
		AbsoluteError: round4(math.Abs(offset)),
	}
	if tokens != nil {
		t := *tokens
		s.TokenData = &t
	}
	return s
}

// Model is the statistical summary of a window's recent history.
type Model struct {
	OffsetMean         float64    `json:"offset_mean"`
	OffsetStd          float64    `json:"offset_std"`
	Confidence         float64    `json:"confidence"`
	SampleCount        int        `json:"sample_count"`
	LastUpdated        *time.Time `json:"last_updated"`
	BaselineThreshold  float64    `json:"baseline_threshold"`
	Status             Status     `json:"status"`
	RecentSamples      int        `json:"recent_samples,omitempty"`
	WindowKey          window.Key `json:"window_key"`
	LearnedInputLimit  *Rate      `json:"learned_input_limit,omitempty"`
	LearnedOutputLimit *Rate      `json:"learned_output_limit,omitempty"`
	HasLimitLearning   bool       `json:"has_limit_learning"`
}

// Override pins a window to a user-confirmed value until it expires.
type Override struct {
	CreatedAt            time.Time `json:"timestamp"`
	CalibratedPercentage float64   `json:"calibrated_percentage"`
	ExpiresAt            time.Time `json:"expires_at"`
	LearnedLimit         Rate      `json:"learned_limit"`
}

// WindowRecord is everything stored for one window.
type WindowRecord struct {
	History  []Sample  `json:"history"`
	Model    *Model    `json:"model"`
	Override *Override `json:"latest_override,omitempty"`
}

// Store maps window keys to their records.
type Store map[window.Key]*WindowRecord

// record returns the record for key, creating it if absent.
func (s Store) record(key window.Key) *WindowRecord {
	rec, ok := s[key]
	if !ok || rec == nil {
		rec = &WindowRecord{History: []Sample{}}
		s[key] = rec
	}
	return rec
}

func round4(v float64) float64 {
	return roundTo(v, 4)
}

func round2(v float64) float64 {
	return roundTo(v, 2)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}

func ratePtr(r Rate) *Rate {
	return &r
}
