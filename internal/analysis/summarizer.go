package analysis

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"pitchpulse/internal/dataset"
	apperrors "pitchpulse/internal/errors"
	"pitchpulse/internal/merge"
)

// FeatureImportance is one row of the ranked importance table.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Summarizer computes the dashboard summary tables.
type Summarizer struct {
	logger *slog.Logger
	forest ForestConfig
}

// NewSummarizer creates a summarizer with the given forest settings.
func NewSummarizer(logger *slog.Logger, forest ForestConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		logger: logger.With(slog.String("component", "summarizer")),
		forest: forest.withDefaults(),
	}
}

// MovementCorrelations correlates the capability benchmark against each
// recovery metric, per movement.
func (s *Summarizer) MovementCorrelations(ctx context.Context, rows []merge.CapabilityRecovery) []CorrelationRow {
	out := MovementRecoveryCorrelations(rows)
	s.logger.InfoContext(ctx, "movement correlations computed",
		slog.Int("input_rows", len(rows)),
		slog.Int("movements", len(out)),
	)
	return out
}

// recoveryFeatureNames are the predictor columns for the readiness
// model, in the tie-break order of the importance ranking.
var recoveryFeatureNames = []string{
	"bio_composite",
	"msk_joint_range_composite",
	"subjective_composite",
	"sleep_composite",
	"md_minus_1",
	"md_plus_1",
}

// RecoveryFeatureImportances fits a random forest predicting the emboss
// baseline score from the recovery composites and the matchday flags,
// and returns the features ranked by importance. Rows missing the target
// or any predictor are excluded. Too little data yields an empty table
// with a warning, not an error.
func (s *Summarizer) RecoveryFeatureImportances(ctx context.Context, rows []merge.RecoveryContext) ([]FeatureImportance, error) {
	var samples [][]float64
	var target []float64

	for _, r := range rows {
		features := []dataset.Float{
			r.BioComposite,
			r.MskJointRangeComposite,
			r.SubjectiveComposite,
			r.SleepComposite,
			boolFloat(r.IsMDMinus1),
			boolFloat(r.IsMDPlus1),
		}
		if r.EmbossBaselineScore.IsNull() || anyNull(features) {
			continue
		}

		row := make([]float64, len(features))
		for i, f := range features {
			row[i] = float64(f)
		}
		samples = append(samples, row)
		target = append(target, float64(r.EmbossBaselineScore))
	}

	if len(samples) < 2 {
		sparse := apperrors.NewEmptyGroupError("recovery_features", len(samples))
		s.logger.WarnContext(ctx, sparse.Error(),
			slog.Int("input_rows", len(rows)),
		)
		return []FeatureImportance{}, nil
	}

	forest, err := FitForest(samples, target, recoveryFeatureNames, s.forest)
	if err != nil {
		return nil, err
	}

	out := rankImportances(recoveryFeatureNames, forest.Importances())
	s.logger.InfoContext(ctx, "feature importances computed",
		slog.Int("usable_rows", len(samples)),
		slog.Int("trees", s.forest.Trees),
	)
	return out, nil
}

// rankImportances sorts features by importance descending; ties keep the
// original column order.
func rankImportances(names []string, importances []float64) []FeatureImportance {
	out := make([]FeatureImportance, len(names))
	for i, name := range names {
		out[i] = FeatureImportance{Feature: name, Importance: importances[i]}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Importance > out[b].Importance
	})
	return out
}

// PlayerWorkload aggregates a player's GPS sessions.
type PlayerWorkload struct {
	Player           string        `json:"player"`
	Sessions         int           `json:"sessions"`
	TotalDistance    dataset.Float `json:"total_distance"`
	MeanDistance     dataset.Float `json:"mean_distance"`
	HighIntensityKm  dataset.Float `json:"high_intensity_distance"`
	TopSpeed         dataset.Float `json:"top_speed"`
	MatchdayMinus1   int           `json:"md_minus_1_sessions"`
	MatchdayPlus1    int           `json:"md_plus_1_sessions"`
}

// Workloads aggregates the GPS table per player, in first-appearance
// order.
func (s *Summarizer) Workloads(ctx context.Context, rows []merge.GPSSession) []PlayerWorkload {
	byPlayer := make(map[string]*PlayerWorkload)
	var order []string

	for _, row := range rows {
		w, ok := byPlayer[row.Player]
		if !ok {
			w = &PlayerWorkload{
				Player:          row.Player,
				TotalDistance:   dataset.Null(),
				HighIntensityKm: dataset.Null(),
				TopSpeed:        dataset.Null(),
			}
			byPlayer[row.Player] = w
			order = append(order, row.Player)
		}

		w.Sessions++
		if row.IsMDMinus1 {
			w.MatchdayMinus1++
		}
		if row.IsMDPlus1 {
			w.MatchdayPlus1++
		}
		if !row.Distance.IsNull() {
			if w.TotalDistance.IsNull() {
				w.TotalDistance = 0
			}
			w.TotalDistance += row.Distance
		}
		if !row.DistanceOver24.IsNull() {
			if w.HighIntensityKm.IsNull() {
				w.HighIntensityKm = 0
			}
			w.HighIntensityKm += row.DistanceOver24
		}
		if !row.PeakSpeed.IsNull() && (w.TopSpeed.IsNull() || row.PeakSpeed > w.TopSpeed) {
			w.TopSpeed = row.PeakSpeed
		}
	}

	out := make([]PlayerWorkload, 0, len(order))
	for _, p := range order {
		w := byPlayer[p]
		if w.Sessions > 0 && !w.TotalDistance.IsNull() {
			w.MeanDistance = w.TotalDistance / dataset.Float(w.Sessions)
		} else {
			w.MeanDistance = dataset.Null()
		}
		out = append(out, *w)
	}

	s.logger.InfoContext(ctx, "player workloads computed",
		slog.Int("players", len(out)),
		slog.Int("sessions", len(rows)),
	)
	return out
}

// OutstandingPriorities returns goals whose review date has passed
// without the goal being achieved, ordered by priority.
func (s *Summarizer) OutstandingPriorities(goals []dataset.PriorityGoal, asOf time.Time) []dataset.PriorityGoal {
	var out []dataset.PriorityGoal
	for _, g := range goals {
		if g.ReviewDate.IsZero() || !g.ReviewDate.Before(asOf) {
			continue
		}
		if isAchieved(g.Tracking) {
			continue
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Priority < out[b].Priority })
	return out
}

func isAchieved(tracking string) bool {
	switch tracking {
	case "Achieved", "achieved", "Complete", "complete":
		return true
	}
	return false
}

func boolFloat(b bool) dataset.Float {
	if b {
		return 1
	}
	return 0
}

func anyNull(values []dataset.Float) bool {
	for _, v := range values {
		if v.IsNull() {
			return true
		}
	}
	return false
}
