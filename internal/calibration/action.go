package calibration

import (
	"fmt"
	"time"

	ucerr "github.com/abdul-hamid-achik/usagecal/internal/errors"
	"github.com/abdul-hamid-achik/usagecal/internal/logging"
	"github.com/abdul-hamid-achik/usagecal/internal/usage"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

// SessionOutcome reports what a calibration action did for the session window.
type SessionOutcome struct {
	WindowKey   window.Key
	Monitor     float64 // fraction
	Actual      float64 // percent
	InputLimit  *Rate
	OutputLimit *Rate
	ExpiresAt   time.Time
	Sample      Sample
	Model       Model
}

// WeeklyOutcome reports what a calibration action did for the weekly window.
// Err is set when the weekly override could not be installed; the session
// part of the action still stands.
type WeeklyOutcome struct {
	WindowKey   window.Key
	Monitor     float64
	Actual      float64
	Offset      float64 // fraction
	InputLimit  *Rate
	OutputLimit *Rate
	ExpiresAt   time.Time
	Err         error
}

// ActionResult is the outcome of ApplyActuals.
type ActionResult struct {
	Session SessionOutcome
	Weekly  *WeeklyOutcome
}

// ValidatePercent checks that a user-supplied percentage is within 0-100.
func ValidatePercent(name string, pct float64) error {
	// written so that NaN fails too
	if !(pct >= 0 && pct <= 100) {
		return ucerr.InvalidPercentage(name, pct)
	}
	return nil
}

// ApplyActuals takes the real session percentage (and optionally the weekly
// one) the user just looked up, and makes them effective immediately: the
// implied rate limits are reverse-solved, a sample is recorded, overrides are
// installed until each window ends and the session model is relearned.
//
// Both percentages are validated before anything is written.
func (e *Engine) ApplyActuals(snap *usage.Snapshot, sessionPct float64, weeklyPct *float64) (*ActionResult, error) {
	if snap == nil {
		return nil, usage.ErrNoData
	}
	if err := ValidatePercent("session", sessionPct); err != nil {
		return nil, err
	}
	if weeklyPct != nil {
		if err := ValidatePercent("weekly", *weeklyPct); err != nil {
			return nil, err
		}
	}

	actionID := logging.Global().NewActionID()
	defer logging.Global().ClearActionID()

	key := e.SessionKey(snap)
	tokens := snap.Session.Usage
	now := e.Now()

	out := SessionOutcome{
		WindowKey: key,
		Monitor:   snap.Monitor(),
		Actual:    sessionPct,
		ExpiresAt: e.resolver.EndTime(key, now),
	}
	if r, ok := e.bounds.ReverseLimit(sessionPct, tokens.InputTotal(), window.SlotMinutes); ok {
		out.InputLimit = ratePtr(r)
	}
	if r, ok := e.bounds.ReverseLimit(sessionPct, tokens.OutputTotal(), window.SlotMinutes); ok {
		out.OutputLimit = ratePtr(r)
	}

	var err error
	if out.Sample, err = e.Record(key, out.Monitor, sessionPct/100, &tokens); err != nil {
		return nil, fmt.Errorf("record session sample: %w", err)
	}
	if _, err = e.SetOverride(key, sessionPct, rateOrZero(out.OutputLimit), out.ExpiresAt); err != nil {
		return nil, fmt.Errorf("set session override: %w", err)
	}
	if out.Model, err = e.UpdateModel(key); err != nil {
		return nil, fmt.Errorf("update session model: %w", err)
	}

	res := &ActionResult{Session: out}
	if weeklyPct != nil {
		res.Weekly = e.applyWeekly(snap, *weeklyPct, now)
	}

	e.log.Info("Applied actuals",
		logging.F("action_id", actionID),
		logging.WindowKey(key.String()),
		logging.Percent(sessionPct),
		logging.F("weekly", weeklyPct != nil))
	return res, nil
}

func (e *Engine) applyWeekly(snap *usage.Snapshot, pct float64, now time.Time) *WeeklyOutcome {
	out := &WeeklyOutcome{
		WindowKey: window.Weekly,
		Monitor:   snap.WeeklyMonitor(),
		Actual:    pct,
		Offset:    pct/100 - snap.WeeklyMonitor(),
	}

	tokens, ok := snap.TokensFor(window.Weekly)
	if !ok {
		out.Err = ucerr.SnapshotMalformed("weekly.usage")
		e.log.Warn("Weekly override skipped", logging.Error(out.Err))
		return out
	}

	if r, ok := e.bounds.ReverseLimit(pct, tokens.InputTotal(), window.WeeklyMinutes); ok {
		out.InputLimit = ratePtr(r)
	}
	if r, ok := e.bounds.ReverseLimit(pct, tokens.OutputTotal(), window.WeeklyMinutes); ok {
		out.OutputLimit = ratePtr(r)
	}

	out.ExpiresAt = e.resolver.EndTime(window.Weekly, now)
	if _, err := e.SetOverride(window.Weekly, pct, rateOrZero(out.OutputLimit), out.ExpiresAt); err != nil {
		out.Err = err
		e.log.Warn("Weekly override failed", logging.Error(err))
	}
	return out
}

// LegacyResult is the outcome of RecordAndLearn.
type LegacyResult struct {
	WindowKey    window.Key
	Sample       Sample
	Model        Model
	WeeklyOffset *float64
}

// RecordAndLearn records the session actual as a training sample and
// relearns the model without installing any override. The weekly value, if
// given, is only reported back as an offset.
func (e *Engine) RecordAndLearn(snap *usage.Snapshot, sessionPct float64, weeklyPct *float64) (*LegacyResult, error) {
	if snap == nil {
		return nil, usage.ErrNoData
	}
	if err := ValidatePercent("session", sessionPct); err != nil {
		return nil, err
	}
	if weeklyPct != nil {
		if err := ValidatePercent("weekly", *weeklyPct); err != nil {
			return nil, err
		}
	}

	key := e.SessionKey(snap)
	tokens := snap.Session.Usage

	sample, err := e.Record(key, snap.Monitor(), sessionPct/100, &tokens)
	if err != nil {
		return nil, fmt.Errorf("record session sample: %w", err)
	}
	model, err := e.UpdateModel(key)
	if err != nil {
		return nil, fmt.Errorf("update session model: %w", err)
	}

	res := &LegacyResult{WindowKey: key, Sample: sample, Model: model}
	if weeklyPct != nil {
		off := *weeklyPct/100 - snap.WeeklyMonitor()
		res.WeeklyOffset = &off
	}
	return res, nil
}

func rateOrZero(r *Rate) Rate {
	if r == nil {
		return 0
	}
	return *r
}
