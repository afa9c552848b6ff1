package calibration

import (
	"math"
	"sort"

	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

// FallbackLimit borrows an output rate limit from the slot windows that have
// learned one. Each qualifying window (learned output limit and at least
// MinSamples samples) is weighted by min(samples/10, 1). The weekly window
// never contributes.
func FallbackLimit(store Store) (Rate, bool) {
	keys := make([]window.Key, 0, len(store))
	for k := range store {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var sum, total float64
	for _, k := range keys {
		if k.IsWeekly() {
			continue
		}
		rec := store[k]
		if rec == nil || rec.Model == nil {
			continue
		}
		m := rec.Model
		if m.LearnedOutputLimit == nil || *m.LearnedOutputLimit <= 0 || m.SampleCount < MinSamples {
			continue
		}
		w := math.Min(float64(m.SampleCount)/10, 1)
		sum += float64(*m.LearnedOutputLimit) * w
		total += w
	}

	if total == 0 {
		return 0, false
	}
	return Rate(math.RoundToEven(sum / total)), true
}
