package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultBookingWindowDays is how many days ahead availability is offered.
const DefaultBookingWindowDays = 30

// DateLayout is the ISO calendar date format used for schedule keys.
const DateLayout = "2006-01-02"

// BookedSlot is a (date, time) pair taken by a pending appointment.
type BookedSlot struct {
	Date time.Time
	Time TimeOfDay
}

// DateOf returns midnight UTC of the calendar date t falls on in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AvailabilitySchedule maps ISO dates to the sorted free slots on that day.
// Only days with at least one free slot are present.
type AvailabilitySchedule map[string][]string

// Dates returns the schedule's days in ascending order.
func (a AvailabilitySchedule) Dates() []string {
	dates := make([]string, 0, len(a))
	for d := range a {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Contains reports whether slot is free on date.
func (a AvailabilitySchedule) Contains(date, slot string) bool {
	times, ok := a[date]
	if !ok {
		return false
	}
	i := sort.SearchStrings(times, slot)
	return i < len(times) && times[i] == slot
}

// GroupByDate collects booked slots into date -> set of taken times.
func GroupByDate(booked []BookedSlot) map[string]SlotSet {
	grouped := make(map[string]SlotSet)
	for _, b := range booked {
		key := FormatDate(DateOf(b.Date))
		set, ok := grouped[key]
		if !ok {
			set = make(SlotSet)
			grouped[key] = set
		}
		set.Add(b.Time.String())
	}
	return grouped
}

// ComputeAvailability walks [today, today+windowDays) and, for each day the
// doctor works, subtracts that day's booked slots from the weekday's slots.
// Non-working and fully booked days are omitted.
func ComputeAvailability(weekly WeeklySlots, booked []BookedSlot, today time.Time, windowDays int) AvailabilitySchedule {
	schedule := make(AvailabilitySchedule)
	if len(weekly) == 0 || windowDays <= 0 {
		return schedule
	}
	taken := GroupByDate(booked)
	start := DateOf(today)
	for i := 0; i < windowDays; i++ {
		day := start.AddDate(0, 0, i)
		working, ok := weekly[WeekdayOf(day)]
		if !ok || len(working) == 0 {
			continue
		}
		key := FormatDate(day)
		free := working
		if bookedToday, ok := taken[key]; ok {
			free = working.Without(bookedToday)
		}
		if len(free) == 0 {
			continue
		}
		schedule[key] = free.Sorted()
	}
	return schedule
}
