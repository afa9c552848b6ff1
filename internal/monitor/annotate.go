package monitor

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/calibration"
	"github.com/tidwall/sjson"
)

// Annotate returns raw with the calibration results added under
// "calibration" and the calibrated percentages next to the aggregator's own.
// Every other field of raw is left untouched.
func Annotate(raw []byte, session, weekly calibration.Result, at time.Time) ([]byte, error) {
	sets := []struct {
		path  string
		value any
	}{
		{"calibration.session", session},
		{"calibration.weekly", weekly},
		{"calibration.updated_at", at.Format(time.RFC3339)},
		{"session.percentages.calibrated_percentage", round2(session.Percent())},
		{"weekly.percentages.calibrated_percentage", round2(weekly.Percent())},
	}

	out := raw
	for _, s := range sets {
		var err error
		out, err = sjson.SetBytes(out, s.path, s.value)
		if err != nil {
			return nil, fmt.Errorf("annotate %s: %w", s.path, err)
		}
	}
	return out, nil
}
