package calibration

import (
	"sort"
	"time"

	ucerr "github.com/abdul-hamid-achik/usagecal/internal/errors"
	"github.com/abdul-hamid-achik/usagecal/internal/logging"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

// Prune keeps only the newest keep samples of key and recomputes its model.
// It returns how many samples were removed.
func (e *Engine) Prune(key window.Key, keep int) (int, error) {
	if keep <= 0 {
		return 0, ucerr.InvalidInput("keep", "must be at least 1")
	}

	store, err := e.load()
	if err != nil {
		return 0, err
	}
	rec, ok := store[key]
	if !ok || rec == nil {
		return 0, ucerr.InvalidWindowKey(key.String())
	}

	removed := len(rec.History) - keep
	if removed <= 0 {
		return 0, nil
	}

	rec.History = rec.History[removed:]
	m := ComputeModel(key, rec.History, e.baseline, e.Now())
	rec.Model = &m

	if err := e.save(store); err != nil {
		return 0, err
	}

	e.log.Info("Pruned window",
		logging.WindowKey(key.String()),
		logging.Count(removed),
		logging.Samples(len(rec.History)))
	logging.LogEvent(logging.EventWindowPrune,
		logging.WindowKey(key.String()),
		logging.Count(removed))
	return removed, nil
}

// Reset deletes everything stored for key.
func (e *Engine) Reset(key window.Key) error {
	store, err := e.load()
	if err != nil {
		return err
	}
	if _, ok := store[key]; !ok {
		return ucerr.InvalidWindowKey(key.String())
	}

	delete(store, key)
	if err := e.save(store); err != nil {
		return err
	}

	e.log.Info("Reset window", logging.WindowKey(key.String()))
	logging.LogEvent(logging.EventWindowReset, logging.WindowKey(key.String()))
	return nil
}

// WindowSummary is a read-only view of one stored window.
type WindowSummary struct {
	Key      window.Key
	Samples  int
	Model    *Model
	Override *Override
	Oldest   time.Time
	Newest   time.Time
}

// Summaries lists every stored window, sorted by key. Overrides are shown
// as stored; they are not validated here.
func (e *Engine) Summaries() ([]WindowSummary, error) {
	store, err := e.load()
	if err != nil {
		return nil, err
	}

	out := make([]WindowSummary, 0, len(store))
	for key, rec := range store {
		if rec == nil {
			continue
		}
		s := WindowSummary{
			Key:      key,
			Samples:  len(rec.History),
			Model:    rec.Model,
			Override: rec.Override,
		}
		if n := len(rec.History); n > 0 {
			s.Oldest = rec.History[0].Timestamp
			s.Newest = rec.History[n-1].Timestamp
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
