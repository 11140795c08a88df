package dataset

import (
	"bytes"
	"math"
	"strconv"
	"time"
)

// DateFormat is the canonical date layout used across all datasets.
const DateFormat = "2006-01-02"

// Float is a measurement value that may be absent. Absent values are NaN
// in memory and null on the wire, since encoding/json rejects NaN.
type Float float64

// IsNull reports whether the value is absent.
func (f Float) IsNull() bool {
	return math.IsNaN(float64(f))
}

// Null returns the absent Float value.
func Null() Float {
	return Float(math.NaN())
}

// MarshalJSON encodes absent values as null.
func (f Float) MarshalJSON() ([]byte, error) {
	if f.IsNull() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(f), 'g', -1, 64)), nil
}

// UnmarshalJSON decodes null as an absent value.
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = Null()
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// GPSRecord is one day of GPS tracking for a player.
type GPSRecord struct {
	Player           string    `json:"player"`
	Date             time.Time `json:"date"`
	Distance         Float     `json:"distance"`
	DistanceOver21   Float     `json:"distance_over_21"`
	DistanceOver24   Float     `json:"distance_over_24"`
	DistanceOver27   Float     `json:"distance_over_27"`
	AccelDecelOver25 Float     `json:"accel_decel_over_2_5"`
	AccelDecelOver45 Float     `json:"accel_decel_over_4_5"`
	PeakSpeed        Float     `json:"peak_speed"`
	DayDuration      Float     `json:"day_duration"`
}

// RecoveryRecord is one day of recovery status for a player. The
// composite columns aggregate each wellness domain; EmbossBaselineScore
// is the overall readiness score.
type RecoveryRecord struct {
	Player                 string    `json:"player"`
	Date                   time.Time `json:"date"`
	BioComposite           Float     `json:"bio_composite"`
	MskJointRangeComposite Float     `json:"msk_joint_range_composite"`
	SubjectiveComposite    Float     `json:"subjective_composite"`
	SleepComposite         Float     `json:"sleep_composite"`
	SleepCompleteness      Float     `json:"sleep_completeness"`
	SubjectiveCompleteness Float     `json:"subjective_completeness"`
	EmbossBaselineScore    Float     `json:"emboss_baseline_score"`
}

// CapabilityRecord is one physical-capability test result. Several rows
// may share a (player, date) key, one per movement tested that day.
type CapabilityRecord struct {
	Player       string    `json:"player"`
	Date         time.Time `json:"date"`
	Movement     string    `json:"movement"`
	Quality      string    `json:"quality"`
	Expression   string    `json:"expression"`
	BenchmarkPct Float     `json:"benchmark_pct"`
}

// PriorityGoal is an individual priority area set for a player.
type PriorityGoal struct {
	Player        string    `json:"player"`
	Priority      int       `json:"priority"`
	Category      string    `json:"category"`
	Area          string    `json:"area"`
	Target        string    `json:"target"`
	TargetSetDate time.Time `json:"target_set_date"`
	ReviewDate    time.Time `json:"review_date"`
	Tracking      string    `json:"tracking"`
}

// CalendarEvent is one entry in the club calendar. Reference data,
// read-only after load.
type CalendarEvent struct {
	Player       string    `json:"player,omitempty"`
	Date         time.Time `json:"event_date"`
	EventType    string    `json:"event_type"`
	EventName    string    `json:"event_name,omitempty"`
	Formation    string    `json:"formation,omitempty"`
	Position     string    `json:"position,omitempty"`
	TrainingLoad Float     `json:"training_load"`
}

// Key identifies at most one row per source table.
type Key struct {
	Player string
	Date   time.Time
}

// Day truncates a timestamp to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
