// Package services implements the dashboard's application services on
// top of the dataset, merge and analysis packages.
package services

import (
	"context"
	"log/slog"
	"time"

	"pitchpulse/internal/analysis"
	"pitchpulse/internal/config"
	"pitchpulse/internal/dataset"
	"pitchpulse/internal/exporter"
	"pitchpulse/internal/merge"
)

// Filter narrows a table to one player and/or a date range. Zero fields
// match everything. Filters arrive as explicit arguments; there is no
// ambient session state.
type Filter struct {
	Player string
	From   time.Time
	To     time.Time
}

// Matches reports whether a row identified by player and date passes
// the filter.
func (f Filter) Matches(player string, date time.Time) bool {
	if f.Player != "" && player != f.Player {
		return false
	}
	if !f.From.IsZero() && date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && date.After(f.To) {
		return false
	}
	return true
}

// ExportResult lists the files written by an export pass.
type ExportResult struct {
	Files []string `json:"files"`
}

// PipelineObserver is notified after each full merge pipeline run.
type PipelineObserver interface {
	ObservePipeline(duration time.Duration, err error)
}

// DashboardService loads the datasets and recomputes the merged and
// summary tables on every call. Tables are pure functions of the CSV
// inputs; nothing is cached between requests.
type DashboardService struct {
	cfg        *config.Config
	loader     *dataset.Loader
	merger     *merge.Merger
	summarizer *analysis.Summarizer
	writer     *exporter.CSVWriter
	observer   PipelineObserver
	logger     *slog.Logger
}

// NewDashboardService wires the pipeline components from configuration.
func NewDashboardService(cfg *config.Config, logger *slog.Logger, observer PipelineObserver) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	forest := analysis.ForestConfig{
		Trees:    cfg.Analysis.ForestTrees,
		MaxDepth: cfg.Analysis.ForestMaxDepth,
		MinLeaf:  cfg.Analysis.ForestMinLeaf,
		Seed:     cfg.Analysis.ForestSeed,
	}
	return &DashboardService{
		cfg:        cfg,
		loader:     dataset.NewLoader(logger),
		merger:     merge.NewMerger(logger),
		summarizer: analysis.NewSummarizer(logger, forest),
		writer:     exporter.NewCSVWriter(cfg.Data.OutputDir, logger),
		observer:   observer,
		logger:     logger.With(slog.String("component", "dashboard_service")),
	}
}

func (s *DashboardService) paths() dataset.Paths {
	return dataset.Paths{
		GPS:        s.cfg.GPSPath(),
		Recovery:   s.cfg.RecoveryPath(),
		Capability: s.cfg.CapabilityPath(),
		Priority:   s.cfg.PriorityPath(),
		Calendar:   s.cfg.CalendarPath(),
	}
}

func (s *DashboardService) load(ctx context.Context) (*dataset.Bundle, error) {
	start := time.Now()
	bundle, err := s.loader.LoadAll(ctx, s.paths())
	if s.observer != nil {
		s.observer.ObservePipeline(time.Since(start), err)
	}
	return bundle, err
}

// DatasetStats returns the per-table row and drop counts of a fresh
// load pass.
func (s *DashboardService) DatasetStats(ctx context.Context) ([]dataset.LoadStats, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return bundle.Stats, nil
}

// GPS returns the GPS table, filtered.
func (s *DashboardService) GPS(ctx context.Context, f Filter) ([]dataset.GPSRecord, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dataset.GPSRecord, 0, len(bundle.GPS))
	for _, r := range bundle.GPS {
		if f.Matches(r.Player, r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Recovery returns the recovery table, filtered.
func (s *DashboardService) Recovery(ctx context.Context, f Filter) ([]dataset.RecoveryRecord, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dataset.RecoveryRecord, 0, len(bundle.Recovery))
	for _, r := range bundle.Recovery {
		if f.Matches(r.Player, r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Capability returns the capability table, filtered.
func (s *DashboardService) Capability(ctx context.Context, f Filter) ([]dataset.CapabilityRecord, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dataset.CapabilityRecord, 0, len(bundle.Capability))
	for _, r := range bundle.Capability {
		if f.Matches(r.Player, r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// PriorityGoals returns the priority-goals table, filtered by player.
func (s *DashboardService) PriorityGoals(ctx context.Context, f Filter) ([]dataset.PriorityGoal, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dataset.PriorityGoal, 0, len(bundle.Priority))
	for _, g := range bundle.Priority {
		if f.Matches(g.Player, g.TargetSetDate) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Calendar returns the calendar table, filtered by date range.
func (s *DashboardService) Calendar(ctx context.Context, f Filter) ([]dataset.CalendarEvent, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	// Club-wide rows carry no player and pass any player filter.
	dateOnly := Filter{From: f.From, To: f.To}
	out := make([]dataset.CalendarEvent, 0, len(bundle.Calendar))
	for _, ev := range bundle.Calendar {
		if ev.Player == "" {
			if dateOnly.Matches("", ev.Date) {
				out = append(out, ev)
			}
			continue
		}
		if f.Matches(ev.Player, ev.Date) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// CapabilityRecovery builds the capability+recovery merged table.
func (s *DashboardService) CapabilityRecovery(ctx context.Context, f Filter) ([]merge.CapabilityRecovery, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.merger.CapabilityRecovery(ctx, bundle.Capability, bundle.Recovery, bundle.Calendar)
	if err != nil {
		return nil, err
	}
	out := make([]merge.CapabilityRecovery, 0, len(rows))
	for _, r := range rows {
		if f.Matches(r.Player, r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// GPSCalendar builds the gps+calendar merged table.
func (s *DashboardService) GPSCalendar(ctx context.Context, f Filter) ([]merge.GPSSession, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.merger.GPSCalendar(ctx, bundle.GPS, bundle.Calendar)
	if err != nil {
		return nil, err
	}
	out := make([]merge.GPSSession, 0, len(rows))
	for _, r := range rows {
		if f.Matches(r.Player, r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// MovementCorrelations computes the per-movement correlation table.
func (s *DashboardService) MovementCorrelations(ctx context.Context) ([]analysis.CorrelationRow, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.merger.CapabilityRecovery(ctx, bundle.Capability, bundle.Recovery, bundle.Calendar)
	if err != nil {
		return nil, err
	}
	return s.summarizer.MovementCorrelations(ctx, rows), nil
}

// FeatureImportances computes the readiness feature-importance table.
func (s *DashboardService) FeatureImportances(ctx context.Context) ([]analysis.FeatureImportance, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows := s.merger.RecoveryWithContext(ctx, bundle.Recovery, bundle.Calendar)
	return s.summarizer.RecoveryFeatureImportances(ctx, rows)
}

// Workloads computes per-player GPS workload aggregates.
func (s *DashboardService) Workloads(ctx context.Context) ([]analysis.PlayerWorkload, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.merger.GPSCalendar(ctx, bundle.GPS, bundle.Calendar)
	if err != nil {
		return nil, err
	}
	return s.summarizer.Workloads(ctx, rows), nil
}

// OutstandingPriorities lists overdue unachieved priority goals.
func (s *DashboardService) OutstandingPriorities(ctx context.Context) ([]dataset.PriorityGoal, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarizer.OutstandingPriorities(bundle.Priority, time.Now().UTC()), nil
}

// Export rebuilds the merged and summary tables and writes them out as
// CSV artifacts.
func (s *DashboardService) Export(ctx context.Context) (*ExportResult, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	capRec, err := s.merger.CapabilityRecovery(ctx, bundle.Capability, bundle.Recovery, bundle.Calendar)
	if err != nil {
		return nil, err
	}
	gpsCal, err := s.merger.GPSCalendar(ctx, bundle.GPS, bundle.Calendar)
	if err != nil {
		return nil, err
	}
	importances, err := s.summarizer.RecoveryFeatureImportances(ctx,
		s.merger.RecoveryWithContext(ctx, bundle.Recovery, bundle.Calendar))
	if err != nil {
		return nil, err
	}

	result := &ExportResult{}
	writes := []func() (string, error){
		func() (string, error) { return s.writer.WriteCapabilityRecovery(ctx, capRec) },
		func() (string, error) { return s.writer.WriteGPSCalendar(ctx, gpsCal) },
		func() (string, error) {
			return s.writer.WriteCorrelations(ctx, "movement_recovery_correlations.csv", "movement",
				CorrelationMetricNames(), s.summarizer.MovementCorrelations(ctx, capRec))
		},
		func() (string, error) { return s.writer.WriteImportances(ctx, "recovery_feature_importances.csv", importances) },
	}
	for _, write := range writes {
		path, err := write()
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
	}

	s.logger.InfoContext(ctx, "export completed", slog.Int("files", len(result.Files)))
	return result, nil
}

// CorrelationMetricNames lists the recovery metric columns of the
// movement correlation table, in report order.
func CorrelationMetricNames() []string {
	return []string{
		"sleep_composite",
		"bio_composite",
		"msk_joint_range_composite",
		"subjective_composite",
		"emboss_baseline_score",
	}
}
