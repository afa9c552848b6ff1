package calibration

import (
	"math"
	"testing"
)

func TestReverseLimit(t *testing.T) {
	tests := []struct {
		name    string
		pct     float64
		tokens  int64
		minutes int
		want    Rate
		wantOK  bool
	}{
		{"session output", 39, 103279, 300, 883, true},
		{"exact", 50, 60000, 300, 400, true},
		{"weekly", 25, 700560, 10080, 278, true},
		{"clamped low", 39, 6000, 300, 100, true},
		{"clamped high", 1, 90000000, 300, 20000, true},
		{"overflowing rate clamps high", 1e-300, 1000000, 300, 20000, true},
		{"NaN percent", math.NaN(), 1000, 300, 0, false},
		{"zero percent", 0, 1000, 300, 0, false},
		{"zero tokens", 40, 0, 300, 0, false},
		{"zero minutes", 40, 1000, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DefaultBounds.ReverseLimit(tt.pct, tt.tokens, tt.minutes)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ReverseLimit(%v, %d, %d) = %d, %v; want %d, %v",
					tt.pct, tt.tokens, tt.minutes, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestReverseLimitCustomBounds(t *testing.T) {
	b := Bounds{Min: 500, Max: 600}
	if got, _ := b.ReverseLimit(50, 60000, 300); got != 500 {
		t.Errorf("got %d, want 500", got)
	}
	if got, _ := b.ReverseLimit(10, 60000, 300); got != 600 {
		t.Errorf("got %d, want 600", got)
	}
}

func TestBoundsContains(t *testing.T) {
	for r, want := range map[Rate]bool{99: false, 100: true, 882: true, 20000: true, 20001: false} {
		if got := DefaultBounds.Contains(r); got != want {
			t.Errorf("Contains(%d) = %v, want %v", r, got, want)
		}
	}
}
