package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "pitchpulse/internal/errors"
)

// dateLayouts are tried in order when parsing date columns.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// LoadStats reports per-table load diagnostics.
type LoadStats struct {
	Table   string `json:"table"`
	Rows    int    `json:"rows"`
	Dropped int    `json:"dropped"`
}

// Bundle holds all five datasets after a load pass.
type Bundle struct {
	GPS        []GPSRecord
	Recovery   []RecoveryRecord
	Capability []CapabilityRecord
	Priority   []PriorityGoal
	Calendar   []CalendarEvent
	Stats      []LoadStats
}

// Paths names the CSV file for each dataset.
type Paths struct {
	GPS        string
	Recovery   string
	Capability string
	Priority   string
	Calendar   string
}

// Loader reads the squad datasets from CSV files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new dataset loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "dataset_loader"))}
}

// LoadAll loads the five datasets concurrently and collects their stats.
func (l *Loader) LoadAll(ctx context.Context, paths Paths) (*Bundle, error) {
	bundle := &Bundle{}
	var gpsStats, recStats, capStats, priStats, calStats LoadStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		bundle.GPS, gpsStats, err = l.LoadGPS(gctx, paths.GPS)
		return err
	})
	g.Go(func() (err error) {
		bundle.Recovery, recStats, err = l.LoadRecovery(gctx, paths.Recovery)
		return err
	})
	g.Go(func() (err error) {
		bundle.Capability, capStats, err = l.LoadCapability(gctx, paths.Capability)
		return err
	})
	g.Go(func() (err error) {
		bundle.Priority, priStats, err = l.LoadPriority(gctx, paths.Priority)
		return err
	})
	g.Go(func() (err error) {
		bundle.Calendar, calStats, err = l.LoadCalendar(gctx, paths.Calendar)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bundle.Stats = []LoadStats{gpsStats, recStats, capStats, priStats, calStats}
	return bundle, nil
}

// LoadGPS reads the GPS tracking dataset.
func (l *Loader) LoadGPS(ctx context.Context, path string) ([]GPSRecord, LoadStats, error) {
	const table = "gps_data"
	stats := LoadStats{Table: table}

	rows, err := l.readTable(ctx, path, table, []string{"player", "date"})
	if err != nil {
		return nil, stats, err
	}

	records := make([]GPSRecord, 0, len(rows.data))
	for _, row := range rows.data {
		date, ok := l.parseRowDate(table, rows.get(row, "date"), &stats)
		if !ok {
			continue
		}
		records = append(records, GPSRecord{
			Player:           rows.get(row, "player"),
			Date:             date,
			Distance:         parseFloat(rows.get(row, "distance")),
			DistanceOver21:   parseFloat(rows.get(row, "distance_over_21")),
			DistanceOver24:   parseFloat(rows.get(row, "distance_over_24")),
			DistanceOver27:   parseFloat(rows.get(row, "distance_over_27")),
			AccelDecelOver25: parseFloat(rows.get(row, "accel_decel_over_2_5")),
			AccelDecelOver45: parseFloat(rows.get(row, "accel_decel_over_4_5")),
			PeakSpeed:        parseFloat(rows.get(row, "peak_speed")),
			DayDuration:      parseFloat(rows.get(row, "day_duration")),
		})
	}

	stats.Rows = len(records)
	l.logLoaded(ctx, stats)
	return records, stats, nil
}

// LoadRecovery reads the recovery status dataset.
func (l *Loader) LoadRecovery(ctx context.Context, path string) ([]RecoveryRecord, LoadStats, error) {
	const table = "recovery_status"
	stats := LoadStats{Table: table}

	rows, err := l.readTable(ctx, path, table, []string{"player", "date", "emboss_baseline_score"})
	if err != nil {
		return nil, stats, err
	}

	records := make([]RecoveryRecord, 0, len(rows.data))
	for _, row := range rows.data {
		date, ok := l.parseRowDate(table, rows.get(row, "date"), &stats)
		if !ok {
			continue
		}
		records = append(records, RecoveryRecord{
			Player:                 rows.get(row, "player"),
			Date:                   date,
			BioComposite:           parseFloat(rows.get(row, "bio_composite")),
			MskJointRangeComposite: parseFloat(rows.get(row, "msk_joint_range_composite")),
			SubjectiveComposite:    parseFloat(rows.get(row, "subjective_composite")),
			SleepComposite:         parseFloat(rows.get(row, "sleep_composite")),
			SleepCompleteness:      parseFloat(rows.get(row, "sleep_completeness")),
			SubjectiveCompleteness: parseFloat(rows.get(row, "subjective_completeness")),
			EmbossBaselineScore:    parseFloat(rows.get(row, "emboss_baseline_score")),
		})
	}

	stats.Rows = len(records)
	l.logLoaded(ctx, stats)
	return records, stats, nil
}

// LoadCapability reads the physical capability dataset.
func (l *Loader) LoadCapability(ctx context.Context, path string) ([]CapabilityRecord, LoadStats, error) {
	const table = "physical_capability"
	stats := LoadStats{Table: table}

	rows, err := l.readTable(ctx, path, table, []string{"player", "date", "movement", "benchmarkpct"})
	if err != nil {
		return nil, stats, err
	}

	records := make([]CapabilityRecord, 0, len(rows.data))
	for _, row := range rows.data {
		date, ok := l.parseRowDate(table, rows.get(row, "date"), &stats)
		if !ok {
			continue
		}
		records = append(records, CapabilityRecord{
			Player:       rows.get(row, "player"),
			Date:         date,
			Movement:     rows.get(row, "movement"),
			Quality:      rows.get(row, "quality"),
			Expression:   rows.get(row, "expression"),
			BenchmarkPct: parseFloat(rows.get(row, "benchmarkpct")),
		})
	}

	stats.Rows = len(records)
	l.logLoaded(ctx, stats)
	return records, stats, nil
}

// LoadPriority reads the individual priority areas dataset.
func (l *Loader) LoadPriority(ctx context.Context, path string) ([]PriorityGoal, LoadStats, error) {
	const table = "individual_priority_areas"
	stats := LoadStats{Table: table}

	rows, err := l.readTable(ctx, path, table, []string{"player", "category", "target_set_date"})
	if err != nil {
		return nil, stats, err
	}

	goals := make([]PriorityGoal, 0, len(rows.data))
	for _, row := range rows.data {
		setDate, ok := l.parseRowDate(table, rows.get(row, "target_set_date"), &stats)
		if !ok {
			continue
		}
		// Review date is optional; a blank or bad value leaves the zero time.
		reviewDate, _ := parseDate(rows.get(row, "review_date"))

		priority, _ := strconv.Atoi(rows.get(row, "priority"))
		goals = append(goals, PriorityGoal{
			Player:        rows.get(row, "player"),
			Priority:      priority,
			Category:      rows.get(row, "category"),
			Area:          rows.get(row, "area"),
			Target:        rows.get(row, "target"),
			TargetSetDate: setDate,
			ReviewDate:    reviewDate,
			Tracking:      rows.get(row, "tracking"),
		})
	}

	stats.Rows = len(goals)
	l.logLoaded(ctx, stats)
	return goals, stats, nil
}

// LoadCalendar reads the club calendar dataset.
func (l *Loader) LoadCalendar(ctx context.Context, path string) ([]CalendarEvent, LoadStats, error) {
	const table = "club_calendar"
	stats := LoadStats{Table: table}

	rows, err := l.readTable(ctx, path, table, []string{"event_date", "event_type"})
	if err != nil {
		return nil, stats, err
	}

	events := make([]CalendarEvent, 0, len(rows.data))
	for _, row := range rows.data {
		date, ok := l.parseRowDate(table, rows.get(row, "event_date"), &stats)
		if !ok {
			continue
		}
		events = append(events, CalendarEvent{
			Player:       rows.get(row, "player"),
			Date:         date,
			EventType:    rows.get(row, "event_type"),
			EventName:    rows.get(row, "event_name"),
			Formation:    rows.get(row, "formation"),
			Position:     rows.get(row, "position"),
			TrainingLoad: parseFloat(rows.get(row, "training_load")),
		})
	}

	stats.Rows = len(events)
	l.logLoaded(ctx, stats)
	return events, stats, nil
}

// table holds a parsed CSV with a case-insensitive header index.
type table struct {
	index map[string]int
	data  [][]string
}

// get returns the named column of a row, or "" when the column is absent.
func (t *table) get(row []string, column string) string {
	idx, ok := t.index[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// readTable reads a CSV file and validates that the required columns are
// present. Header matching is case-insensitive and ignores surrounding
// whitespace.
func (l *Loader) readTable(ctx context.Context, path, name string, required []string) (*table, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewParsingError(name, err).WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewParsingError(name, fmt.Errorf("table is empty: %s", path))
	}
	if err != nil {
		return nil, apperrors.NewParsingError(name, fmt.Errorf("read header: %w", err))
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\uFEFF")))
		index[col] = i
	}

	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, l.missingColumn(ctx, name, col, header)
		}
	}

	data, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(name, fmt.Errorf("read rows: %w", err))
	}

	return &table{index: index, data: data}, nil
}

func (l *Loader) missingColumn(ctx context.Context, name, col string, header []string) error {
	l.logger.ErrorContext(ctx, "required column missing",
		slog.String("table", name),
		slog.String("column", col),
		slog.Any("header", header),
	)
	return apperrors.NewMissingColumnError(name, col)
}

// parseRowDate parses a date cell, bumping the drop count on failure.
// The row is dropped, never coerced to a default date.
func (l *Loader) parseRowDate(tableName, raw string, stats *LoadStats) (time.Time, bool) {
	date, err := parseDate(raw)
	if err != nil {
		stats.Dropped++
		l.logger.Debug("dropping row with unparseable date",
			slog.String("error", apperrors.NewUnparseableDateError(tableName, raw, err).Error()))
		return time.Time{}, false
	}
	return Day(date), true
}

func (l *Loader) logLoaded(ctx context.Context, stats LoadStats) {
	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("table", stats.Table),
		slog.Int("rows", stats.Rows),
		slog.Int("dropped", stats.Dropped),
	)
}

// parseDate tries the supported date layouts in order.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}

// parseFloat parses a numeric cell; blank or malformed values become the
// absent Float.
func parseFloat(raw string) Float {
	if raw == "" {
		return Null()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Null()
	}
	return Float(v)
}
