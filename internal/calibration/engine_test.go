package calibration

import (
	"math"
	"reflect"
	"testing"

	"github.com/abdul-hamid-achik/usagecal/internal/usage"
)

func TestRecordFIFO(t *testing.T) {
	for _, n := range []int{1, 3, 199, 200, 201, 230} {
		engine, repo, _ := newTestEngine(t, kstTime(1, 15, 0))

		for i := 0; i < n; i++ {
			if _, err := engine.Record(afternoon, float64(i)/1000, 0.5, nil); err != nil {
				t.Fatalf("Record #%d: %v", i, err)
			}
		}

		history := loadStore(t, repo)[afternoon].History
		want := n
		if want > MaxHistory {
			want = MaxHistory
		}
		if len(history) != want {
			t.Fatalf("n=%d: history length = %d, want %d", n, len(history), want)
		}

		firstKept := n - want
		if got := history[0].MonitorValue; got != float64(firstKept)/1000 {
			t.Errorf("n=%d: oldest kept monitor = %v, want %v", n, got, float64(firstKept)/1000)
		}
		if got := history[len(history)-1].MonitorValue; got != float64(n-1)/1000 {
			t.Errorf("n=%d: newest monitor = %v, want %v", n, got, float64(n-1)/1000)
		}
	}
}

func TestRecordOffsetExactness(t *testing.T) {
	tests := []struct {
		monitor, actual float64
	}{
		{0.35, 0.40},
		{0.40, 0.35},
		{0.123456, 0.654321},
		{0, 0},
		{1, 0},
		{0.333333, 0.333333},
	}

	engine, _, _ := newTestEngine(t, kstTime(1, 15, 0))
	for _, tt := range tests {
		s, err := engine.Record(afternoon, tt.monitor, tt.actual, nil)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if s.Offset != round4(tt.actual-tt.monitor) {
			t.Errorf("offset(%v, %v) = %v, want %v", tt.monitor, tt.actual, s.Offset, round4(tt.actual-tt.monitor))
		}
		if s.AbsoluteError != math.Abs(s.Offset) {
			t.Errorf("absolute_error = %v, want |%v|", s.AbsoluteError, s.Offset)
		}
	}
}

func TestRecordCopiesTokens(t *testing.T) {
	engine, repo, _ := newTestEngine(t, kstTime(1, 15, 0))
	tokens := usage.Tokens{InputTokens: 10, OutputTokens: 20}

	s, err := engine.Record(afternoon, 0.1, 0.2, &tokens)
	if err != nil {
		t.Fatal(err)
	}
	tokens.OutputTokens = 999

	if s.TokenData == nil || s.TokenData.OutputTokens != 20 {
		t.Errorf("sample tokens = %+v", s.TokenData)
	}
	stored := loadStore(t, repo)[afternoon].History[0]
	if stored.TokenData == nil || stored.TokenData.OutputTokens != 20 {
		t.Errorf("stored tokens = %+v", stored.TokenData)
	}
	if !stored.Timestamp.Equal(kstTime(1, 15, 0)) {
		t.Errorf("timestamp = %v", stored.Timestamp)
	}
}

func TestUpdateModelNoData(t *testing.T) {
	engine, repo, _ := newTestEngine(t, kstTime(1, 15, 0))

	m, err := engine.UpdateModel(afternoon)
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != StatusNoData || m.SampleCount != 0 || m.Confidence != 0 {
		t.Errorf("unexpected model %+v", m)
	}
	if repo.Saves() != 0 {
		t.Error("no_data model must not be persisted")
	}
}

func TestStatusProgression(t *testing.T) {
	engine, repo, _ := newTestEngine(t, kstTime(1, 15, 0))

	want := map[int]Status{
		1: StatusInsufficientData,
		2: StatusInsufficientData,
		3: StatusLearning,
		5: StatusLearned,
		6: StatusLearned,
	}

	for n := 1; n <= 6; n++ {
		if _, err := engine.Record(afternoon, 0.30, 0.35, nil); err != nil {
			t.Fatal(err)
		}
		m, err := engine.UpdateModel(afternoon)
		if err != nil {
			t.Fatal(err)
		}
		if m.SampleCount != n {
			t.Errorf("n=%d: sample_count = %d", n, m.SampleCount)
		}
		if n < MinSamples && m.Status != StatusInsufficientData {
			t.Errorf("n=%d: status = %s, insufficient_data must not be skipped", n, m.Status)
		}
		if s, ok := want[n]; ok && m.Status != s {
			t.Errorf("n=%d: status = %s, want %s", n, m.Status, s)
		}

		stored := loadStore(t, repo)[afternoon].Model
		if stored == nil || stored.Status != m.Status {
			t.Errorf("n=%d: persisted model = %+v", n, stored)
		}
	}
}

func TestUpdateModelDeterministic(t *testing.T) {
	engine, _, _ := newTestEngine(t, kstTime(1, 15, 0))
	for i, actual := range []float64{0.40, 0.43, 0.37, 0.41, 0.44, 0.39, 0.42} {
		tokens := usage.Tokens{InputTokens: int64(1000 * (i + 1)), OutputTokens: int64(30000 + 500*i)}
		if _, err := engine.Record(afternoon, 0.35, actual, &tokens); err != nil {
			t.Fatal(err)
		}
	}

	first, err := engine.UpdateModel(afternoon)
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.UpdateModel(afternoon)
	if err != nil {
		t.Fatal(err)
	}

	first.LastUpdated, second.LastUpdated = nil, nil
	if !reflect.DeepEqual(first, second) {
		t.Errorf("models differ:\n%+v\n%+v", first, second)
	}
}

func TestEndToEndThreeSamples(t *testing.T) {
	engine, _, _ := newTestEngine(t, kstTime(1, 15, 0))

	actuals := []float64{0.40, 0.42, 0.38}
	tokens := usage.Tokens{InputTokens: 5000, CacheCreationTokens: 1000, OutputTokens: 36000}
	for _, a := range actuals {
		tk := tokens
		if _, err := engine.Record(afternoon, 0.35, a, &tk); err != nil {
			t.Fatal(err)
		}
	}

	m, err := engine.UpdateModel(afternoon)
	if err != nil {
		t.Fatal(err)
	}

	if m.SampleCount != 3 {
		t.Errorf("sample_count = %d, want 3", m.SampleCount)
	}
	if m.Status != StatusLearning && m.Status != StatusLearned {
		t.Errorf("status = %s, want learning or learned", m.Status)
	}
	if !m.HasLimitLearning || m.LearnedOutputLimit == nil || m.LearnedInputLimit == nil {
		t.Fatalf("expected limit learning, got %+v", m)
	}

	rates := make([]float64, len(actuals))
	for i, a := range actuals {
		rates[i] = float64(tokens.OutputTokens) / (a * 300)
	}
	weights := []float64{0.85 * 0.85, 0.85, 1}
	var sum, total float64
	for i := range rates {
		sum += rates[i] * weights[i]
		total += weights[i]
	}
	want := sum / total

	assertClose(t, "learned_output_limit", float64(*m.LearnedOutputLimit), want, 0.5)

	plainMean := (rates[0] + rates[1] + rates[2]) / 3
	if float64(*m.LearnedOutputLimit) <= plainMean {
		t.Errorf("learned limit %d should lean toward the newest rate %.1f (plain mean %.1f)",
			*m.LearnedOutputLimit, rates[2], plainMean)
	}

	wantInput := float64(tokens.InputTotal()) / 300 * (weights[0]/0.40 + weights[1]/0.42 + weights[2]/0.38) / total
	assertClose(t, "learned_input_limit", float64(*m.LearnedInputLimit), wantInput, 0.5)
}
