package http

import (
	"context"

	"pitchpulse/internal/analysis"
	"pitchpulse/internal/dataset"
	"pitchpulse/internal/merge"
	"pitchpulse/internal/services"
)

// DashboardServiceInterface defines the operations the data handler
// needs from the dashboard service.
type DashboardServiceInterface interface {
	DatasetStats(ctx context.Context) ([]dataset.LoadStats, error)
	GPS(ctx context.Context, f services.Filter) ([]dataset.GPSRecord, error)
	Recovery(ctx context.Context, f services.Filter) ([]dataset.RecoveryRecord, error)
	Capability(ctx context.Context, f services.Filter) ([]dataset.CapabilityRecord, error)
	PriorityGoals(ctx context.Context, f services.Filter) ([]dataset.PriorityGoal, error)
	Calendar(ctx context.Context, f services.Filter) ([]dataset.CalendarEvent, error)

	CapabilityRecovery(ctx context.Context, f services.Filter) ([]merge.CapabilityRecovery, error)
	GPSCalendar(ctx context.Context, f services.Filter) ([]merge.GPSSession, error)

	MovementCorrelations(ctx context.Context) ([]analysis.CorrelationRow, error)
	FeatureImportances(ctx context.Context) ([]analysis.FeatureImportance, error)
	Workloads(ctx context.Context) ([]analysis.PlayerWorkload, error)
	OutstandingPriorities(ctx context.Context) ([]dataset.PriorityGoal, error)

	Export(ctx context.Context) (*services.ExportResult, error)
}
