package merge

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pitchpulse/internal/calendar"
	"pitchpulse/internal/dataset"
)

// CapabilityRecovery is one row of the capability+recovery analysis
// table: an inner join on (player, date) with match context attached.
// Several rows may share a key, one per movement tested that day.
type CapabilityRecovery struct {
	Player       string        `json:"player"`
	Date         time.Time     `json:"date"`
	Movement     string        `json:"movement"`
	Quality      string        `json:"quality"`
	Expression   string        `json:"expression"`
	BenchmarkPct dataset.Float `json:"benchmark_pct"`

	BioComposite           dataset.Float `json:"bio_composite"`
	MskJointRangeComposite dataset.Float `json:"msk_joint_range_composite"`
	SubjectiveComposite    dataset.Float `json:"subjective_composite"`
	SleepComposite         dataset.Float `json:"sleep_composite"`
	EmbossBaselineScore    dataset.Float `json:"emboss_baseline_score"`

	Position string `json:"position,omitempty"`
	MatchContext
}

// GPSSession is one row of the gps+calendar analysis table: a left join
// of GPS tracking against the day's primary calendar event, with match
// context attached. GPS days with no calendar entry keep null load and
// an empty event type.
type GPSSession struct {
	Player           string        `json:"player"`
	Date             time.Time     `json:"date"`
	Distance         dataset.Float `json:"distance"`
	DistanceOver21   dataset.Float `json:"distance_over_21"`
	DistanceOver24   dataset.Float `json:"distance_over_24"`
	DistanceOver27   dataset.Float `json:"distance_over_27"`
	AccelDecelOver25 dataset.Float `json:"accel_decel_over_2_5"`
	AccelDecelOver45 dataset.Float `json:"accel_decel_over_4_5"`
	PeakSpeed        dataset.Float `json:"peak_speed"`
	DayDuration      dataset.Float `json:"day_duration"`

	EventType    string        `json:"event_type,omitempty"`
	EventName    string        `json:"event_name,omitempty"`
	TrainingLoad dataset.Float `json:"training_load"`
	MatchContext
}

// RecoveryContext is one recovery row with match context, the input to
// the feature-importance summary.
type RecoveryContext struct {
	dataset.RecoveryRecord
	MatchContext
}

// Merger builds the merged analysis tables. Tables are recomputed fresh
// on every call; nothing is cached or mutated in place.
type Merger struct {
	logger *slog.Logger
}

// NewMerger creates a new table merger.
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger.With(slog.String("component", "merger"))}
}

// CapabilityRecovery inner-joins capability tests against recovery
// status on (player, date) and attaches match context and the position
// listed on the day's calendar event. Recovery must be unique per key;
// capability legitimately repeats keys across movements.
func (m *Merger) CapabilityRecovery(
	ctx context.Context,
	caps []dataset.CapabilityRecord,
	recs []dataset.RecoveryRecord,
	events []dataset.CalendarEvent,
) ([]CapabilityRecovery, error) {
	if err := RequireUnique(recs, recoveryKey, "recovery_status"); err != nil {
		return nil, err
	}

	pairs, err := JoinOnPlayerDate(caps, recs, capabilityKey, recoveryKey, Inner, "recovery_status")
	if err != nil {
		return nil, err
	}

	flagger := NewContextFlagger(calendar.MatchDates(events))
	positions := positionByKey(events)

	out := make([]CapabilityRecovery, 0, len(pairs))
	for _, p := range pairs {
		row := CapabilityRecovery{
			Player:       p.Left.Player,
			Date:         p.Left.Date,
			Movement:     p.Left.Movement,
			Quality:      p.Left.Quality,
			Expression:   p.Left.Expression,
			BenchmarkPct: p.Left.BenchmarkPct,

			BioComposite:           p.Right.BioComposite,
			MskJointRangeComposite: p.Right.MskJointRangeComposite,
			SubjectiveComposite:    p.Right.SubjectiveComposite,
			SleepComposite:         p.Right.SleepComposite,
			EmbossBaselineScore:    p.Right.EmbossBaselineScore,

			Position:     lookupPosition(positions, p.Left.Player, p.Left.Date),
			MatchContext: flagger.Flags(p.Left.Date),
		}
		out = append(out, row)
	}

	m.logger.InfoContext(ctx, "capability+recovery table built",
		slog.Int("capability_rows", len(caps)),
		slog.Int("recovery_rows", len(recs)),
		slog.Int("merged_rows", len(out)),
	)
	return out, nil
}

// GPSCalendar left-joins GPS tracking against the day's primary
// calendar event. Every GPS row is retained; days without a calendar
// entry carry null training load.
func (m *Merger) GPSCalendar(
	ctx context.Context,
	gps []dataset.GPSRecord,
	events []dataset.CalendarEvent,
) ([]GPSSession, error) {
	flagger := NewContextFlagger(calendar.MatchDates(events))
	primary := primaryEventByKey(events)

	out := make([]GPSSession, 0, len(gps))
	for _, g := range gps {
		row := GPSSession{
			Player:           g.Player,
			Date:             g.Date,
			Distance:         g.Distance,
			DistanceOver21:   g.DistanceOver21,
			DistanceOver24:   g.DistanceOver24,
			DistanceOver27:   g.DistanceOver27,
			AccelDecelOver25: g.AccelDecelOver25,
			AccelDecelOver45: g.AccelDecelOver45,
			PeakSpeed:        g.PeakSpeed,
			DayDuration:      g.DayDuration,
			TrainingLoad:     dataset.Null(),
			MatchContext:     flagger.Flags(g.Date),
		}

		if ev, ok := lookupEvent(primary, g.Player, g.Date); ok {
			row.EventType = ev.EventType
			row.EventName = ev.EventName
			row.TrainingLoad = ev.TrainingLoad
		}
		out = append(out, row)
	}

	m.logger.InfoContext(ctx, "gps+calendar table built",
		slog.Int("gps_rows", len(gps)),
		slog.Int("merged_rows", len(out)),
	)
	return out, nil
}

// RecoveryWithContext attaches match context to the recovery table.
func (m *Merger) RecoveryWithContext(
	ctx context.Context,
	recs []dataset.RecoveryRecord,
	events []dataset.CalendarEvent,
) []RecoveryContext {
	flagged, dropped := AttachMatchContext(recs,
		func(r dataset.RecoveryRecord) time.Time { return r.Date },
		calendar.MatchDates(events))

	out := make([]RecoveryContext, 0, len(flagged))
	for _, f := range flagged {
		out = append(out, RecoveryContext{RecoveryRecord: f.Record, MatchContext: f.MatchContext})
	}

	if dropped > 0 {
		m.logger.WarnContext(ctx, "recovery rows dropped for missing dates",
			slog.Int("dropped", dropped))
	}
	return out
}

func capabilityKey(c dataset.CapabilityRecord) dataset.Key {
	return dataset.Key{Player: c.Player, Date: dataset.Day(c.Date)}
}

func recoveryKey(r dataset.RecoveryRecord) dataset.Key {
	return dataset.Key{Player: r.Player, Date: dataset.Day(r.Date)}
}

// eventRank orders calendar entries sharing a date; the highest-ranked
// entry is the day's primary event.
func eventRank(eventType string) int {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "match":
		return 3
	case "training":
		return 2
	case "recovery", "rest":
		return 1
	default:
		return 0
	}
}

// primaryEventByKey reduces the calendar to one event per (player, date).
// Club-wide rows (no player) are stored under an empty player.
func primaryEventByKey(events []dataset.CalendarEvent) map[dataset.Key]dataset.CalendarEvent {
	primary := make(map[dataset.Key]dataset.CalendarEvent)
	for _, ev := range events {
		k := dataset.Key{Player: ev.Player, Date: dataset.Day(ev.Date)}
		if cur, ok := primary[k]; !ok || eventRank(ev.EventType) > eventRank(cur.EventType) {
			primary[k] = ev
		}
	}
	return primary
}

// lookupEvent resolves the event for a player and date, falling back to
// the club-wide entry when no player-scoped one exists.
func lookupEvent(primary map[dataset.Key]dataset.CalendarEvent, player string, date time.Time) (dataset.CalendarEvent, bool) {
	if ev, ok := primary[dataset.Key{Player: player, Date: dataset.Day(date)}]; ok {
		return ev, true
	}
	ev, ok := primary[dataset.Key{Date: dataset.Day(date)}]
	return ev, ok
}

// positionByKey indexes the position attribute of calendar events that
// carry one.
func positionByKey(events []dataset.CalendarEvent) map[dataset.Key]string {
	positions := make(map[dataset.Key]string)
	for _, ev := range events {
		if ev.Position == "" {
			continue
		}
		positions[dataset.Key{Player: ev.Player, Date: dataset.Day(ev.Date)}] = ev.Position
	}
	return positions
}

func lookupPosition(positions map[dataset.Key]string, player string, date time.Time) string {
	if pos, ok := positions[dataset.Key{Player: player, Date: dataset.Day(date)}]; ok {
		return pos
	}
	return positions[dataset.Key{Date: dataset.Day(date)}]
}
