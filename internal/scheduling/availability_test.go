package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-12-09 is a Tuesday.
var tuesday = time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)

func TestComputeAvailabilityTuesdayScenario(t *testing.T) {
	weekly := WeeklySlotsFromIntervals([]WorkInterval{
		{Weekday: Tuesday, Start: at(8, 0), End: at(10, 0)},
	}, DefaultSlotDuration, IncludePartialSlot)
	booked := []BookedSlot{{Date: tuesday, Time: at(9, 0)}}

	got := ComputeAvailability(weekly, booked, tuesday, 7)

	assert.Equal(t, AvailabilitySchedule{
		"2025-12-09": {"08:00:00", "08:30:00", "09:30:00"},
	}, got)
}

func TestComputeAvailabilityFullyBookedDayOmitted(t *testing.T) {
	monday := tuesday.AddDate(0, 0, 6)
	weekly := WeeklySlots{Monday: NewSlotSet("08:00:00", "08:30:00")}
	booked := []BookedSlot{
		{Date: monday, Time: at(8, 0)},
		{Date: monday, Time: at(8, 30)},
	}

	got := ComputeAvailability(weekly, booked, tuesday, 14)

	assert.NotContains(t, got, FormatDate(monday))
	assert.Contains(t, got, FormatDate(monday.AddDate(0, 0, 7)))
	assert.Len(t, got, 1)
}

func TestComputeAvailabilityWindowBounds(t *testing.T) {
	weekly := WeeklySlots{}
	for d := Monday; d <= Sunday; d++ {
		weekly[d] = NewSlotSet("10:00:00")
	}
	window := 30

	got := ComputeAvailability(weekly, nil, tuesday.Add(15*time.Hour), window)

	require.Len(t, got, window)
	last := tuesday.AddDate(0, 0, window)
	for _, d := range got.Dates() {
		day, err := ParseDate(d)
		require.NoError(t, err)
		assert.False(t, day.Before(tuesday), "date %s before today", d)
		assert.True(t, day.Before(last), "date %s past window", d)
	}
	assert.Equal(t, "2025-12-09", got.Dates()[0])
}

func TestComputeAvailabilityNonWorkingDaysNeverAppear(t *testing.T) {
	weekly := WeeklySlots{Tuesday: NewSlotSet("08:00:00")}
	booked := []BookedSlot{{Date: tuesday.AddDate(0, 0, 1), Time: at(8, 0)}}

	got := ComputeAvailability(weekly, booked, tuesday, 30)

	for _, d := range got.Dates() {
		day, err := ParseDate(d)
		require.NoError(t, err)
		assert.Equal(t, Tuesday, WeekdayOf(day))
	}
}

func TestComputeAvailabilityEmptyInputs(t *testing.T) {
	assert.Empty(t, ComputeAvailability(nil, nil, tuesday, 30))
	assert.Empty(t, ComputeAvailability(WeeklySlots{Tuesday: NewSlotSet("08:00:00")}, nil, tuesday, 0))
}

func TestComputeAvailabilityIdempotent(t *testing.T) {
	weekly := WeeklySlotsFromIntervals([]WorkInterval{
		{Weekday: Tuesday, Start: at(8, 0), End: at(12, 0)},
		{Weekday: Thursday, Start: at(13, 0), End: at(17, 0)},
	}, DefaultSlotDuration, IncludePartialSlot)
	booked := []BookedSlot{
		{Date: tuesday, Time: at(8, 30)},
		{Date: tuesday.AddDate(0, 0, 2), Time: at(13, 0)},
	}

	first := ComputeAvailability(weekly, booked, tuesday, 30)
	second := ComputeAvailability(weekly, booked, tuesday, 30)

	assert.Equal(t, first, second)
	assert.Equal(t, 4*2-1, len(first["2025-12-09"]))
}

func TestAvailabilityScheduleContains(t *testing.T) {
	s := AvailabilitySchedule{"2025-12-09": {"08:00:00", "09:30:00"}}
	assert.True(t, s.Contains("2025-12-09", "09:30:00"))
	assert.False(t, s.Contains("2025-12-09", "09:00:00"))
	assert.False(t, s.Contains("2025-12-10", "08:00:00"))
}

func TestGroupByDate(t *testing.T) {
	grouped := GroupByDate([]BookedSlot{
		{Date: tuesday, Time: at(8, 0)},
		{Date: tuesday.Add(10 * time.Hour), Time: at(9, 0)},
		{Date: tuesday.AddDate(0, 0, 1), Time: at(8, 0)},
	})
	require.Len(t, grouped, 2)
	assert.Equal(t, []string{"08:00:00", "09:00:00"}, grouped["2025-12-09"].Sorted())
}
