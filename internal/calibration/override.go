package calibration

import (
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/logging"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

// SetOverride pins key to pct (0-100) until expiresAt, replacing any
// existing override. limit is the output rate limit it was derived from, or
// zero.
func (e *Engine) SetOverride(key window.Key, pct float64, limit Rate, expiresAt time.Time) (Override, error) {
	store, err := e.load()
	if err != nil {
		return Override{}, err
	}

	ov := Override{
		CreatedAt:            e.Now(),
		CalibratedPercentage: pct,
		ExpiresAt:            expiresAt,
		LearnedLimit:         limit,
	}
	store.record(key).Override = &ov

	if err := e.save(store); err != nil {
		return Override{}, err
	}

	e.log.Info("Override set",
		logging.WindowKey(key.String()),
		logging.Percent(pct),
		logging.Limit("limit_tpm", int(limit)),
		logging.Expires(expiresAt))
	logging.LogEvent(logging.EventOverrideSet,
		logging.WindowKey(key.String()),
		logging.Percent(pct),
		logging.Limit("limit_tpm", int(limit)),
		logging.Expires(expiresAt))
	logging.GlobalMetrics().RecordOverrideSet()

	return ov, nil
}

// ValidateOverride returns key's override if it is still valid at the
// current time. An invalid override is deleted from the store.
func (e *Engine) ValidateOverride(key window.Key) (*Override, error) {
	store, err := e.load()
	if err != nil {
		return nil, err
	}

	ov, dropped := e.checkOverride(store, key, e.Now())
	if dropped {
		if err := e.save(store); err != nil {
			return nil, err
		}
	}
	return ov, nil
}

// checkOverride validates key's override within an already loaded store,
// deleting it in place when invalid. It reports whether the store changed.
//
// A slot override is valid only while now is before its expiry and still
// inside the same slot. A weekly override only has to be unexpired.
func (e *Engine) checkOverride(store Store, key window.Key, now time.Time) (*Override, bool) {
	rec, ok := store[key]
	if !ok || rec == nil || rec.Override == nil {
		return nil, false
	}
	ov := rec.Override

	expired := !now.Before(ov.ExpiresAt)
	stale := !key.IsWeekly() && e.resolver.SlotKey(now) != key
	if !expired && !stale {
		return ov, false
	}

	rec.Override = nil

	event, reason := logging.EventOverrideExpired, "expired"
	if stale {
		event, reason = logging.EventOverrideStale, "slot changed"
	}
	e.log.Debug("Dropped override",
		logging.WindowKey(key.String()),
		logging.Reason(reason),
		logging.Expires(ov.ExpiresAt))
	logging.LogEvent(event,
		logging.WindowKey(key.String()),
		logging.Expires(ov.ExpiresAt))
	logging.GlobalMetrics().RecordOverrideDropped()

	return nil, true
}
