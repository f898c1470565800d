package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProject_SingleWorkout(t *testing.T) {
	days := Project([]WorkoutEntry{{Date: date(2024, 1, 10), Label: "A"}}, nil, Range{})
	assert.Equal(t, map[string][]string{"2024-01-10": {"A"}}, AsMap(days))
}

func TestProject_ProgramExpansion(t *testing.T) {
	days := Project(nil, []ProgramEntry{{Name: "P", StartDate: date(2024, 2, 1), TotalDays: 3}}, Range{})
	require.Len(t, days, 3)
	assert.Equal(t, Day{Date: "2024-02-01", Workouts: []string{"P - Day 1"}}, days[0])
	assert.Equal(t, Day{Date: "2024-02-02", Workouts: []string{"P - Day 2"}}, days[1])
	assert.Equal(t, Day{Date: "2024-02-03", Workouts: []string{"P - Day 3"}}, days[2])
}

func TestProject_ProgramCrossesMonthAndLeapDay(t *testing.T) {
	days := Project(nil, []ProgramEntry{{Name: "P", StartDate: date(2024, 2, 28), TotalDays: 3}}, Range{})
	m := AsMap(days)
	assert.Equal(t, []string{"P - Day 1"}, m["2024-02-28"])
	assert.Equal(t, []string{"P - Day 2"}, m["2024-02-29"])
	assert.Equal(t, []string{"P - Day 3"}, m["2024-03-01"])
}

func TestProject_RoundTripDistinctDates(t *testing.T) {
	start := date(2024, 12, 20)
	const n = 21
	days := Project(nil, []ProgramEntry{{Name: "Strength", StartDate: start, TotalDays: n}}, Range{})
	require.Len(t, days, n)
	for i, d := range days {
		assert.Equal(t, start.AddDate(0, 0, i).Format("2006-01-02"), d.Date)
		assert.Equal(t, []string{ProgramDayLabel("Strength", i+1)}, d.Workouts)
	}
}

func TestProject_OverrideReplacesArithmeticDate(t *testing.T) {
	p := ProgramEntry{
		Name:      "P",
		StartDate: date(2024, 2, 1),
		TotalDays: 3,
		Overrides: map[int]time.Time{2: date(2024, 2, 10)},
	}
	m := AsMap(Project(nil, []ProgramEntry{p}, Range{}))

	_, ok := m["2024-02-02"]
	assert.False(t, ok, "day 2 must not stay on its arithmetic date")
	assert.Equal(t, []string{"P - Day 2"}, m["2024-02-10"])
	assert.Equal(t, []string{"P - Day 1"}, m["2024-02-01"])
	assert.Equal(t, []string{"P - Day 3"}, m["2024-02-03"])
}

func TestProject_MergesSameDateInInsertionOrder(t *testing.T) {
	workouts := []WorkoutEntry{
		{Date: date(2024, 2, 1), Label: "Morning Run"},
		{Date: date(2024, 2, 1), Label: "Evening Lift"},
	}
	programs := []ProgramEntry{{Name: "P", StartDate: date(2024, 2, 1), TotalDays: 1}}
	m := AsMap(Project(workouts, programs, Range{}))
	assert.Equal(t, []string{"Morning Run", "Evening Lift", "P - Day 1"}, m["2024-02-01"])
}

func TestProject_DeduplicatesLabels(t *testing.T) {
	workouts := []WorkoutEntry{
		{Date: date(2024, 1, 10), Label: "A"},
		{Date: date(2024, 1, 10).Add(15 * time.Hour), Label: "A"},
	}
	m := AsMap(Project(workouts, nil, Range{}))
	assert.Equal(t, []string{"A"}, m["2024-01-10"])
}

func TestProject_TimeOfDayIgnored(t *testing.T) {
	workouts := []WorkoutEntry{{Date: time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC), Label: "A"}}
	programs := []ProgramEntry{{Name: "P", StartDate: time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC), TotalDays: 1}}
	m := AsMap(Project(workouts, programs, Range{}))
	assert.Equal(t, []string{"A", "P - Day 1"}, m["2024-01-10"])
}

func TestProject_SortedAscending(t *testing.T) {
	workouts := []WorkoutEntry{
		{Date: date(2024, 3, 1), Label: "C"},
		{Date: date(2023, 12, 31), Label: "A"},
		{Date: date(2024, 1, 15), Label: "B"},
	}
	days := Project(workouts, nil, Range{})
	require.Len(t, days, 3)
	assert.Equal(t, "2023-12-31", days[0].Date)
	assert.Equal(t, "2024-01-15", days[1].Date)
	assert.Equal(t, "2024-03-01", days[2].Date)
}

func TestProject_Window(t *testing.T) {
	programs := []ProgramEntry{{Name: "P", StartDate: date(2024, 2, 1), TotalDays: 5}}
	days := Project(nil, programs, Range{From: date(2024, 2, 2), To: date(2024, 2, 4)})
	require.Len(t, days, 3)
	assert.Equal(t, "2024-02-02", days[0].Date)
	assert.Equal(t, "2024-02-04", days[2].Date)

	days = Project(nil, programs, Range{From: date(2024, 2, 4)})
	assert.Len(t, days, 2)
}

func TestProject_Idempotent(t *testing.T) {
	workouts := []WorkoutEntry{{Date: date(2024, 1, 10), Label: "A"}}
	programs := []ProgramEntry{{Name: "P", StartDate: date(2024, 1, 9), TotalDays: 4, Overrides: map[int]time.Time{4: date(2024, 1, 10)}}}
	first := Project(workouts, programs, Range{})
	second := Project(workouts, programs, Range{})
	assert.Equal(t, first, second)
}

func TestProject_Empty(t *testing.T) {
	days := Project(nil, nil, Range{})
	assert.NotNil(t, days)
	assert.Empty(t, days)
}
