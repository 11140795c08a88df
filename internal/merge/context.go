package merge

import (
	"time"

	"pitchpulse/internal/calendar"
)

// MatchContext carries the calendar-derived flags attached to a record.
type MatchContext struct {
	IsMDMinus1 bool `json:"is_md_minus_1"`
	IsMDPlus1  bool `json:"is_md_plus_1"`
}

// Contextual pairs a source record with its match context.
type Contextual[T any] struct {
	Record T `json:"record"`
	MatchContext
}

// AttachMatchContext attaches MD-1/MD+1 flags to every record with a
// usable date. Records with a zero date are dropped and counted; dates
// outside the calendar's covered range simply get both flags false.
// The output always has exactly one row per kept input row.
func AttachMatchContext[T any](records []T, dateOf func(T) time.Time, matchDates calendar.DateSet) ([]Contextual[T], int) {
	ctx := NewContextFlagger(matchDates)

	out := make([]Contextual[T], 0, len(records))
	dropped := 0
	for _, rec := range records {
		date := dateOf(rec)
		if date.IsZero() {
			dropped++
			continue
		}
		out = append(out, Contextual[T]{Record: rec, MatchContext: ctx.Flags(date)})
	}
	return out, dropped
}

// ContextFlagger computes match-context flags against one fixed set of
// match dates. The offset sets are built once per calendar snapshot.
type ContextFlagger struct {
	mdMinus1 calendar.DateSet
	mdPlus1  calendar.DateSet
}

// NewContextFlagger derives the two offset sets from the match dates.
func NewContextFlagger(matchDates calendar.DateSet) *ContextFlagger {
	return &ContextFlagger{
		// A record dated d is MD-1 when d is a member of the match
		// dates shifted back a day (d+1 is a match).
		mdMinus1: calendar.Offset(matchDates, -1),
		mdPlus1:  calendar.Offset(matchDates, +1),
	}
}

// Flags returns the match context for a date.
func (f *ContextFlagger) Flags(date time.Time) MatchContext {
	return MatchContext{
		IsMDMinus1: f.mdMinus1.Contains(date),
		IsMDPlus1:  f.mdPlus1.Contains(date),
	}
}
