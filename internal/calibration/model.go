package calibration

import (
	"math"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/window"
)

const (
	offsetDecay = 0.9
	limitDecay  = 0.85

	learnedConfidence = 0.7
)

// lookback returns how many recent samples feed the model and the sample
// count at which the sample term of the confidence saturates.
func lookback(historyLen int) (size, target int) {
	switch {
	case historyLen <= 10:
		return 5, 10
	case historyLen <= 30:
		return 20, 30
	default:
		return 50, 50
	}
}

// Confidence combines how much history there is (relative to target) with
// how stable the offsets are. The result lies in [0,1].
func Confidence(sampleCount, target int, offsetStd float64) float64 {
	sample := math.Min(float64(sampleCount)/float64(target), 1)
	stability := math.Max(0, 1-offsetStd*10)
	return (sample + stability) / 2
}

// decayWeights returns n weights, newest last with weight 1 and each older
// one multiplied by decay.
func decayWeights(n int, decay float64) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = math.Pow(decay, float64(n-1-i))
	}
	return w
}

func weightedMean(values, weights []float64) float64 {
	var sum, total float64
	for i, v := range values {
		sum += v * weights[i]
		total += weights[i]
	}
	return sum / total
}

// ComputeModel derives the model for key from its full history. It is a
// pure function: the same history always produces the same model.
func ComputeModel(key window.Key, history []Sample, baseline float64, now time.Time) Model {
	if len(history) == 0 {
		return Model{
			BaselineThreshold: baseline,
			Status:            StatusNoData,
			WindowKey:         key,
		}
	}

	updated := now
	if len(history) < MinSamples {
		return Model{
			SampleCount:       len(history),
			LastUpdated:       &updated,
			BaselineThreshold: baseline,
			Status:            StatusInsufficientData,
			WindowKey:         key,
		}
	}

	size, target := lookback(len(history))
	recent := history
	if len(recent) > size {
		recent = recent[len(recent)-size:]
	}

	m := Model{
		SampleCount:       len(history),
		LastUpdated:       &updated,
		BaselineThreshold: baseline,
		RecentSamples:     len(recent),
		WindowKey:         key,
	}

	if in, out, ok := learnLimits(recent); ok {
		m.HasLimitLearning = true
		if in > 0 {
			m.LearnedInputLimit = ratePtr(in)
		}
		if out > 0 {
			m.LearnedOutputLimit = ratePtr(out)
		}
	}

	offsets := make([]float64, len(recent))
	for i, s := range recent {
		offsets[i] = s.Offset
	}
	weights := decayWeights(len(offsets), offsetDecay)
	mean := weightedMean(offsets, weights)

	sq := make([]float64, len(offsets))
	for i, o := range offsets {
		sq[i] = (o - mean) * (o - mean)
	}
	std := math.Sqrt(weightedMean(sq, weights))

	conf := Confidence(len(history), target, std)
	m.OffsetMean = round4(mean)
	m.OffsetStd = round4(std)
	m.Confidence = round2(conf)
	if conf >= learnedConfidence {
		m.Status = StatusLearned
	} else {
		m.Status = StatusLearning
	}
	return m
}

// learnLimits reverse-solves per-sample input and output rates over the
// session window and combines them with decay weights. It needs at least
// MinSamples samples that carry tokens and a positive actual value.
func learnLimits(recent []Sample) (in, out Rate, ok bool) {
	var inRates, outRates []float64
	for _, s := range recent {
		if s.TokenData == nil || s.ActualValue <= 0 {
			continue
		}
		denom := s.ActualValue * window.SlotMinutes
		inRates = append(inRates, float64(s.TokenData.InputTotal())/denom)
		outRates = append(outRates, float64(s.TokenData.OutputTotal())/denom)
	}
	if len(inRates) < MinSamples {
		return 0, 0, false
	}

	weights := decayWeights(len(inRates), limitDecay)
	in = Rate(math.RoundToEven(weightedMean(inRates, weights)))
	out = Rate(math.RoundToEven(weightedMean(outRates, weights)))
	return in, out, true
}
