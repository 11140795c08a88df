// Package calendar derives match-date sets from the club calendar.
package calendar

import (
	"sort"
	"strings"
	"time"

	"pitchpulse/internal/dataset"
)

// matchEventType is compared case-insensitively against calendar rows.
const matchEventType = "match"

// DateSet is a set of calendar dates, day-truncated in UTC. Never
// mutated after construction.
type DateSet map[time.Time]struct{}

// Contains reports whether the set holds the calendar date of t.
func (s DateSet) Contains(t time.Time) bool {
	_, ok := s[dataset.Day(t)]
	return ok
}

// Len returns the number of dates in the set.
func (s DateSet) Len() int {
	return len(s)
}

// Dates returns the dates in ascending order.
func (s DateSet) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// MatchDates returns the distinct dates on which the calendar lists a
// Match event. The comparison is case-insensitive; a date listed both as
// a match and as something else still counts once as a match date. Input
// order does not matter and an empty calendar yields an empty set.
func MatchDates(events []dataset.CalendarEvent) DateSet {
	set := make(DateSet)
	for _, ev := range events {
		if strings.EqualFold(strings.TrimSpace(ev.EventType), matchEventType) {
			set[dataset.Day(ev.Date)] = struct{}{}
		}
	}
	return set
}

// Offset returns the set of dates shifted by deltaDays. Shifting by zero
// returns a copy, never the input set itself.
func Offset(dates DateSet, deltaDays int) DateSet {
	shifted := make(DateSet, len(dates))
	for d := range dates {
		shifted[d.AddDate(0, 0, deltaDays)] = struct{}{}
	}
	return shifted
}

// MatchDatesForPlayer returns the match dates for events scoped to one
// player. Events without a player column are club-wide and included for
// every player.
func MatchDatesForPlayer(events []dataset.CalendarEvent, player string) DateSet {
	set := make(DateSet)
	for _, ev := range events {
		if ev.Player != "" && ev.Player != player {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(ev.EventType), matchEventType) {
			set[dataset.Day(ev.Date)] = struct{}{}
		}
	}
	return set
}
