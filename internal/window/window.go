// Package window maps timestamps to the recurring usage buckets that
// calibration data is keyed by: five 5-hour session slots anchored at a
// configurable base hour, plus a single rolling weekly bucket.
package window

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key identifies a calibration bucket. It is either a slot label such as
// "14:00-19:00" or Weekly.
type Key string

// Weekly is the key of the rolling 7-day bucket.
const Weekly Key = "weekly"

const (
	// SlotHours is the length of one session slot.
	SlotHours = 5
	// SlotCount is the number of slots generated from the base hour.
	SlotCount = 5

	// SlotMinutes is the length of a session slot in minutes.
	SlotMinutes = SlotHours * 60
	// WeeklyMinutes is the length of the weekly bucket in minutes.
	WeeklyMinutes = 7 * 24 * 60

	// DefaultBaseHour is the hour the first slot starts at.
	DefaultBaseHour = 14

	fallbackEndHour = 19
)

// IsWeekly reports whether k is the weekly bucket.
func (k Key) IsWeekly() bool {
	return k == Weekly
}

func (k Key) String() string {
	return string(k)
}

// Minutes returns the bucket length used to turn rates into percentages.
func (k Key) Minutes() int {
	if k.IsWeekly() {
		return WeeklyMinutes
	}
	return SlotMinutes
}

// Minutes returns the bucket length of key in minutes.
func Minutes(key Key) int {
	return key.Minutes()
}

// Slot is one [Start, End) hour range. End < Start means it wraps past midnight.
type Slot struct {
	Start int
	End   int
}

// Key returns the "HH:00-HH:00" label of the slot.
func (s Slot) Key() Key {
	return Key(fmt.Sprintf("%02d:00-%02d:00", s.Start, s.End))
}

// Contains reports whether hour h falls inside the slot.
func (s Slot) Contains(h int) bool {
	if s.End < s.Start {
		return h >= s.Start || h < s.End
	}
	return s.Start <= h && h < s.End
}

// Resolver resolves timestamps to window keys.
type Resolver struct {
	BaseHour int
}

// NewResolver returns a resolver anchored at baseHour.
func NewResolver(baseHour int) Resolver {
	return Resolver{BaseHour: baseHour}
}

// Slots returns the five slots in the order they are matched.
// Because 24 is not a multiple of 5 the slots do not tile the day evenly.
func (r Resolver) Slots() []Slot {
	slots := make([]Slot, 0, SlotCount)
	start := r.BaseHour
	for i := 0; i < SlotCount; i++ {
		end := (start + SlotHours) % 24
		slots = append(slots, Slot{Start: start, End: end})
		start = end
	}
	return slots
}

// SlotKey returns the key of the slot containing t. Only t.Hour() is used.
func (r Resolver) SlotKey(t time.Time) Key {
	h := t.Hour()
	for _, s := range r.Slots() {
		if s.Contains(h) {
			return s.Key()
		}
	}
	return Slot{Start: r.BaseHour, End: (r.BaseHour + SlotHours) % 24}.Key()
}

// WeeklyKey returns the weekly bucket key.
func (r Resolver) WeeklyKey() Key {
	return Weekly
}

// EndTime returns the end of the current occurrence of key relative to now,
// in now's location.
func (r Resolver) EndTime(key Key, now time.Time) time.Time {
	if key.IsWeekly() {
		return now.AddDate(0, 0, 7)
	}

	end := EndHour(key)
	at := func(dayOffset, hour int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day()+dayOffset, hour, 0, 0, 0, now.Location())
	}

	switch {
	case end == 0:
		if now.Hour() >= 12 {
			return at(1, 0)
		}
		return at(0, 0)
	case end < now.Hour():
		// the end hour already passed today
		return at(1, end)
	default:
		return at(0, end)
	}
}

// EndHour parses the end hour of a slot label, returning 19 when the label
// cannot be parsed.
func EndHour(key Key) int {
	_, end, ok := strings.Cut(string(key), "-")
	if !ok {
		return fallbackEndHour
	}
	hh, _, _ := strings.Cut(end, ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return fallbackEndHour
	}
	return h
}

// Valid reports whether key is Weekly or one of r's slot labels.
func (r Resolver) Valid(key Key) bool {
	if key.IsWeekly() {
		return true
	}
	for _, s := range r.Slots() {
		if s.Key() == key {
			return true
		}
	}
	return false
}
