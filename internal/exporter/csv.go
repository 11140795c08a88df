// Package exporter writes merged and summary tables to CSV. The files
// are cache artifacts for spreadsheet users, not a contract with other
// systems.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"pitchpulse/internal/analysis"
	"pitchpulse/internal/dataset"
	apperrors "pitchpulse/internal/errors"
	"pitchpulse/internal/merge"
)

// CSVWriter writes export files into a fixed output directory.
type CSVWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewCSVWriter creates a CSV writer rooted at outputDir.
func NewCSVWriter(outputDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		outputDir: outputDir,
		logger:    logger.With(slog.String("component", "csv_writer")),
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM for Excel compatibility
}

// WriteCSV writes a CSV file under the output directory and returns its
// full path.
func (w *CSVWriter) WriteCSV(ctx context.Context, filename string, options WriteOptions) (string, error) {
	fullPath := filepath.Join(w.outputDir, filename)

	w.logger.InfoContext(ctx, "writing CSV file",
		slog.String("path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", apperrors.NewStorageError("create output directory", filepath.Dir(fullPath), err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", apperrors.NewStorageError("open", fullPath, err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return "", apperrors.NewStorageError("write BOM", fullPath, err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", fmt.Errorf("write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", apperrors.NewStorageError("flush", fullPath, err)
	}
	return fullPath, nil
}

// MergeHeaders combines the column names of two joined tables. Names
// that appear on both sides (beyond the join key, which the caller
// lists once on the left) are suffixed rather than silently collapsed.
func MergeHeaders(left, right []string, leftSuffix, rightSuffix string) []string {
	rightSet := make(map[string]bool, len(right))
	for _, name := range right {
		rightSet[name] = true
	}

	out := make([]string, 0, len(left)+len(right))
	collides := make(map[string]bool)
	for _, name := range left {
		if rightSet[name] {
			collides[name] = true
			out = append(out, name+leftSuffix)
		} else {
			out = append(out, name)
		}
	}
	for _, name := range right {
		if collides[name] {
			out = append(out, name+rightSuffix)
		} else {
			out = append(out, name)
		}
	}
	return out
}

var capabilityRecoveryHeaders = append(
	[]string{"player", "date"},
	MergeHeaders(
		[]string{"movement", "quality", "expression", "benchmark_pct"},
		[]string{"bio_composite", "msk_joint_range_composite", "subjective_composite", "sleep_composite", "emboss_baseline_score"},
		"_capability", "_recovery",
	)...,
)

// WriteCapabilityRecovery exports the capability+recovery merged table.
func (w *CSVWriter) WriteCapabilityRecovery(ctx context.Context, rows []merge.CapabilityRecovery) (string, error) {
	headers := append(append([]string{}, capabilityRecoveryHeaders...),
		"position", "is_md_minus_1", "is_md_plus_1")

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Player,
			row.Date.Format(dataset.DateFormat),
			row.Movement,
			row.Quality,
			row.Expression,
			formatFloat(row.BenchmarkPct),
			formatFloat(row.BioComposite),
			formatFloat(row.MskJointRangeComposite),
			formatFloat(row.SubjectiveComposite),
			formatFloat(row.SleepComposite),
			formatFloat(row.EmbossBaselineScore),
			row.Position,
			formatBool(row.IsMDMinus1),
			formatBool(row.IsMDPlus1),
		})
	}

	return w.WriteCSV(ctx, "capability_recovery_merged.csv", WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteGPSCalendar exports the gps+calendar merged table.
func (w *CSVWriter) WriteGPSCalendar(ctx context.Context, rows []merge.GPSSession) (string, error) {
	headers := []string{
		"player", "date", "distance", "distance_over_21", "distance_over_24",
		"distance_over_27", "accel_decel_over_2_5", "accel_decel_over_4_5",
		"peak_speed", "day_duration", "event_type", "event_name",
		"training_load", "is_md_minus_1", "is_md_plus_1",
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Player,
			row.Date.Format(dataset.DateFormat),
			formatFloat(row.Distance),
			formatFloat(row.DistanceOver21),
			formatFloat(row.DistanceOver24),
			formatFloat(row.DistanceOver27),
			formatFloat(row.AccelDecelOver25),
			formatFloat(row.AccelDecelOver45),
			formatFloat(row.PeakSpeed),
			formatFloat(row.DayDuration),
			row.EventType,
			row.EventName,
			formatFloat(row.TrainingLoad),
			formatBool(row.IsMDMinus1),
			formatBool(row.IsMDPlus1),
		})
	}

	return w.WriteCSV(ctx, "gps_calendar_merged.csv", WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteCorrelations exports a correlation table. Metric columns follow
// the given order; undefined coefficients export as empty cells.
func (w *CSVWriter) WriteCorrelations(ctx context.Context, filename, groupName string, metrics []string, rows []analysis.CorrelationRow) (string, error) {
	headers := append([]string{groupName, "n"}, metrics...)

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := []string{row.Group, strconv.Itoa(row.N)}
		for _, metric := range metrics {
			record = append(record, formatFloat(row.Values[metric]))
		}
		records = append(records, record)
	}

	return w.WriteCSV(ctx, filename, WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
}

// WriteImportances exports a ranked feature-importance table.
func (w *CSVWriter) WriteImportances(ctx context.Context, filename string, rows []analysis.FeatureImportance) (string, error) {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Feature,
			strconv.FormatFloat(row.Importance, 'f', 6, 64),
		})
	}

	return w.WriteCSV(ctx, filename, WriteOptions{
		Headers:   []string{"feature", "importance"},
		Records:   records,
		BOMPrefix: true,
	})
}

// formatFloat renders an absent value as an empty cell.
func formatFloat(f dataset.Float) string {
	if f.IsNull() {
		return ""
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
