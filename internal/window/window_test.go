package window

import (
	"testing"
	"time"
)

var seoul = time.FixedZone("KST", 9*60*60)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, seoul)
}

func TestSlots(t *testing.T) {
	got := NewResolver(14).Slots()
	want := []Slot{{14, 19}, {19, 0}, {0, 5}, {5, 10}, {10, 15}}
	if len(got) != len(want) {
		t.Fatalf("got %d slots, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSlotKey(t *testing.T) {
	r := NewResolver(DefaultBaseHour)

	tests := []struct {
		name string
		t    time.Time
		want Key
	}{
		{"base slot start", at(1, 14, 0), "14:00-19:00"},
		{"base slot middle", at(1, 16, 45), "14:00-19:00"},
		{"evening", at(1, 19, 0), "19:00-00:00"},
		{"late night wraps", at(1, 23, 59), "19:00-00:00"},
		{"midnight", at(1, 0, 0), "00:00-05:00"},
		{"early morning", at(1, 4, 59), "00:00-05:00"},
		{"morning", at(1, 7, 30), "05:00-10:00"},
		{"overlap hour resolves to earlier slot", at(1, 12, 0), "10:00-15:00"},
		{"minutes are ignored", at(1, 13, 59), "10:00-15:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.SlotKey(tt.t); got != tt.want {
				t.Errorf("SlotKey(%s) = %q, want %q", tt.t.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestSlotKeyOtherBaseHour(t *testing.T) {
	r := NewResolver(0)
	if got := r.SlotKey(at(1, 21, 0)); got != "20:00-01:00" {
		t.Errorf("SlotKey = %q, want 20:00-01:00", got)
	}
	if got := r.SlotKey(at(1, 0, 30)); got != "00:00-05:00" {
		t.Errorf("SlotKey = %q, want 00:00-05:00", got)
	}
}

func TestSlotKeyCoversEveryHour(t *testing.T) {
	for base := 0; base < 24; base++ {
		r := NewResolver(base)
		for h := 0; h < 24; h++ {
			key := r.SlotKey(at(1, h, 0))
			if !r.Valid(key) {
				t.Errorf("base %d hour %d resolved to unknown key %q", base, h, key)
			}
		}
	}
}

func TestWeeklyKey(t *testing.T) {
	if got := NewResolver(3).WeeklyKey(); got != Weekly {
		t.Errorf("WeeklyKey = %q, want %q", got, Weekly)
	}
	if !Weekly.IsWeekly() || Key("14:00-19:00").IsWeekly() {
		t.Error("IsWeekly mismatch")
	}
}

func TestMinutes(t *testing.T) {
	if Minutes(Weekly) != 10080 {
		t.Errorf("weekly minutes = %d", Minutes(Weekly))
	}
	if Minutes("14:00-19:00") != 300 {
		t.Errorf("slot minutes = %d", Minutes("14:00-19:00"))
	}
}

func TestEndTime(t *testing.T) {
	r := NewResolver(DefaultBaseHour)

	tests := []struct {
		name string
		key  Key
		now  time.Time
		want time.Time
	}{
		{"weekly is seven days out", Weekly, at(1, 15, 20), at(8, 15, 20)},
		{"end later today", "14:00-19:00", at(1, 15, 20), at(1, 19, 0)},
		{"end hour equals current hour", "14:00-19:00", at(1, 19, 30), at(1, 19, 0)},
		{"midnight end from evening", "19:00-00:00", at(1, 22, 0), at(2, 0, 0)},
		{"midnight end after midnight", "19:00-00:00", at(2, 0, 30), at(2, 0, 0)},
		{"end already passed rolls to tomorrow", "05:00-10:00", at(1, 12, 0), at(2, 10, 0)},
		{"unparsable label uses 19", "bogus", at(1, 9, 0), at(1, 19, 0)},
		{"month rollover", "05:00-10:00", at(31, 23, 0), time.Date(2025, time.April, 1, 10, 0, 0, 0, seoul)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.EndTime(tt.key, tt.now)
			if !got.Equal(tt.want) {
				t.Errorf("EndTime(%q, %s) = %s, want %s", tt.key, tt.now, got, tt.want)
			}
			if got.Location() != seoul {
				t.Errorf("EndTime location = %v, want %v", got.Location(), seoul)
			}
		})
	}
}

func TestEndHour(t *testing.T) {
	tests := map[Key]int{
		"14:00-19:00": 19,
		"19:00-00:00": 0,
		"weekly":      19,
		"10:00-xx:00": 19,
		"10:00-25:00": 19,
	}
	for key, want := range tests {
		if got := EndHour(key); got != want {
			t.Errorf("EndHour(%q) = %d, want %d", key, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	r := NewResolver(DefaultBaseHour)
	for _, k := range []Key{"14:00-19:00", "10:00-15:00", Weekly} {
		if !r.Valid(k) {
			t.Errorf("Valid(%q) = false", k)
		}
	}
	for _, k := range []Key{"09:00-14:00", "", "WEEKLY"} {
		if r.Valid(k) {
			t.Errorf("Valid(%q) = true", k)
		}
	}
}
