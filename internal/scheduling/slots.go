// Package scheduling expands doctor work hours into bookable slots and
// computes per-day availability over a rolling booking window.
package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultSlotDuration is the length of one appointment slot.
const DefaultSlotDuration = 30 * time.Minute

const endOfDay = 24 * time.Hour

// TimeOfDay is a wall-clock time expressed as the offset from midnight.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)
}

// TimeOfDayOf extracts the clock component of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	layout := "15:04:05"
	if strings.Count(value, ":") == 1 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return 0, fmt.Errorf("scheduling: parse time of day %q: %w", value, err)
	}
	return TimeOfDayOf(t), nil
}

// String formats the time as zero-padded HH:MM:SS.
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Weekday is a Monday-based day ordinal: Monday is 0, Sunday is 6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WeekdayOf converts t's weekday to the Monday-based ordinal.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// Valid reports whether w is within 0..6.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// WorkInterval is one weekday's working hours for a doctor, [Start, End).
type WorkInterval struct {
	Weekday Weekday   `json:"weekday"`
	Start   TimeOfDay `json:"start_time"`
	End     TimeOfDay `json:"end_time"`
}

// Validate checks the weekday range and that Start precedes End.
func (w WorkInterval) Validate() error {
	if !w.Weekday.Valid() {
		return fmt.Errorf("%w: weekday %d out of range", ErrInvalidInterval, int(w.Weekday))
	}
	if w.Start >= w.End {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidInterval, w.Start, w.End)
	}
	if time.Duration(w.End) > endOfDay {
		return fmt.Errorf("%w: end %s past midnight", ErrInvalidInterval, w.End)
	}
	return nil
}

// SlotPolicy controls whether a slot that would run past the end of the
// work interval is offered.
type SlotPolicy int

const (
	// IncludePartialSlot offers every slot that starts before the interval ends.
	IncludePartialSlot SlotPolicy = iota
	// WholeSlotsOnly offers only slots that end at or before the interval end.
	WholeSlotsOnly
)

// SlotSet is an unordered collection of HH:MM:SS slot strings.
type SlotSet map[string]struct{}

// NewSlotSet builds a set from the given slot strings.
func NewSlotSet(slots ...string) SlotSet {
	s := make(SlotSet, len(slots))
	for _, slot := range slots {
		s[slot] = struct{}{}
	}
	return s
}

func (s SlotSet) Add(slot string) { s[slot] = struct{}{} }

func (s SlotSet) Contains(slot string) bool {
	_, ok := s[slot]
	return ok
}

// Sorted returns the slots in ascending order. The fixed-width format makes
// lexical order equal to chronological order.
func (s SlotSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for slot := range s {
		out = append(out, slot)
	}
	sort.Strings(out)
	return out
}

// Without returns the slots in s that are not in other.
func (s SlotSet) Without(other SlotSet) SlotSet {
	out := make(SlotSet, len(s))
	for slot := range s {
		if !other.Contains(slot) {
			out[slot] = struct{}{}
		}
	}
	return out
}

// GenerateSlots expands an interval into slot start times spaced by step.
// A degenerate interval or non-positive step produces an empty set.
func GenerateSlots(interval WorkInterval, step time.Duration, policy SlotPolicy) SlotSet {
	slots := make(SlotSet)
	if step <= 0 || interval.Start >= interval.End {
		return slots
	}
	end := time.Duration(interval.End)
	for cur := time.Duration(interval.Start); cur < end && cur < endOfDay; cur += step {
		if policy == WholeSlotsOnly && cur+step > end {
			break
		}
		slots.Add(TimeOfDay(cur).String())
	}
	return slots
}

// WeeklySlots maps each working weekday to its set of slot start times.
type WeeklySlots map[Weekday]SlotSet

// WeeklySlotsFromIntervals runs GenerateSlots for each interval. A later
// interval for the same weekday replaces an earlier one.
func WeeklySlotsFromIntervals(intervals []WorkInterval, step time.Duration, policy SlotPolicy) WeeklySlots {
	weekly := make(WeeklySlots, len(intervals))
	for _, iv := range intervals {
		if !iv.Weekday.Valid() {
			continue
		}
		slots := GenerateSlots(iv, step, policy)
		if len(slots) == 0 {
			delete(weekly, iv.Weekday)
			continue
		}
		weekly[iv.Weekday] = slots
	}
	return weekly
}
