// Package calendar projects single-workout assignments and program
// enrollments onto calendar dates. The projection is recomputed from its
// inputs on every call and holds no state of its own.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"alcyxob/fitness-scheduler/internal/domain"
)

// WorkoutEntry is one single-workout assignment.
type WorkoutEntry struct {
	Date  time.Time
	Label string
}

// ProgramEntry is one program enrollment. Overrides maps a day number to an
// explicit date that replaces the arithmetic one.
type ProgramEntry struct {
	Name      string
	StartDate time.Time
	TotalDays int
	Overrides map[int]time.Time
}

// Range bounds a projection. Zero From/To leave that side open; both ends are
// inclusive.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) contains(d time.Time) bool {
	if !r.From.IsZero() && d.Before(domain.DateOf(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(domain.DateOf(r.To)) {
		return false
	}
	return true
}

// Day is the list of workout labels scheduled on one date, in insertion order.
type Day struct {
	Date     string   `json:"date"`
	Workouts []string `json:"workouts"`
}

// ProgramDayLabel is the label of day n (1-based) of a program.
func ProgramDayLabel(programName string, n int) string {
	return fmt.Sprintf("%s - Day %d", programName, n)
}

type builder struct {
	window Range
	labels map[string][]string
	seen   map[string]map[string]struct{}
}

func (b *builder) add(date time.Time, label string) {
	date = domain.DateOf(date)
	if !b.window.contains(date) {
		return
	}
	key := date.Format(domain.DateLayout)
	if b.seen[key] == nil {
		b.seen[key] = make(map[string]struct{})
	}
	if _, dup := b.seen[key][label]; dup {
		return
	}
	b.seen[key][label] = struct{}{}
	b.labels[key] = append(b.labels[key], label)
}

// Project maps every workout entry to its date and expands every program
// entry into TotalDays consecutive dates starting at StartDate. A day with an
// override lands on the override date only. Identical labels on one date are
// collapsed. Days are returned in ascending date order.
func Project(workouts []WorkoutEntry, programs []ProgramEntry, window Range) []Day {
	b := &builder{
		window: window,
		labels: make(map[string][]string),
		seen:   make(map[string]map[string]struct{}),
	}

	for _, w := range workouts {
		b.add(w.Date, w.Label)
	}

	for _, p := range programs {
		start := domain.DateOf(p.StartDate)
		for i := 0; i < p.TotalDays; i++ {
			dayNumber := i + 1
			date := start.AddDate(0, 0, i)
			if override, ok := p.Overrides[dayNumber]; ok {
				date = override
			}
			b.add(date, ProgramDayLabel(p.Name, dayNumber))
		}
	}

	keys := make([]string, 0, len(b.labels))
	for k := range b.labels {
		keys = append(keys, k)
	}
	// ISO dates sort lexicographically in calendar order
	sort.Strings(keys)

	days := make([]Day, 0, len(keys))
	for _, k := range keys {
		days = append(days, Day{Date: k, Workouts: b.labels[k]})
	}
	return days
}

// AsMap flattens a projection into date -> labels.
func AsMap(days []Day) map[string][]string {
	m := make(map[string][]string, len(days))
	for _, d := range days {
		m[d.Date] = d.Workouts
	}
	return m
}
