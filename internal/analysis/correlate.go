package analysis

import (
	"math"

	"pitchpulse/internal/dataset"
	"pitchpulse/internal/merge"
)

// Metric names one numeric column of a table.
type Metric[T any] struct {
	Name  string
	Value func(T) dataset.Float
}

// CorrelationRow holds the correlations for one group: the Pearson
// coefficient between the x column and each y column, over rows where
// both are present. Undefined coefficients are null.
type CorrelationRow struct {
	Group  string                   `json:"group"`
	N      int                      `json:"n"`
	Values map[string]dataset.Float `json:"values"`
}

// Correlate computes, for each distinct group value in first-appearance
// order, the Pearson correlation between the x metric and each y metric.
// Groups with fewer than two valid pairs, or with zero variance on
// either side, get an undefined coefficient for that metric.
func Correlate[T any](rows []T, groupOf func(T) string, x Metric[T], ys []Metric[T]) []CorrelationRow {
	groups := make(map[string][]T)
	var order []string
	for _, row := range rows {
		g := groupOf(row)
		if _, seen := groups[g]; !seen {
			order = append(order, g)
		}
		groups[g] = append(groups[g], row)
	}

	out := make([]CorrelationRow, 0, len(order))
	for _, g := range order {
		members := groups[g]
		row := CorrelationRow{
			Group:  g,
			N:      len(members),
			Values: make(map[string]dataset.Float, len(ys)),
		}
		for _, y := range ys {
			row.Values[y.Name] = dataset.Float(pearson(members, x.Value, y.Value))
		}
		out = append(out, row)
	}
	return out
}

// pearson computes the Pearson correlation coefficient over rows where
// both metrics are present. NaN marks an undefined result.
func pearson[T any](rows []T, xOf, yOf func(T) dataset.Float) float64 {
	var xs, ys []float64
	for _, row := range rows {
		x, y := xOf(row), yOf(row)
		if x.IsNull() || y.IsNull() {
			continue
		}
		xs = append(xs, float64(x))
		ys = append(ys, float64(y))
	}

	n := float64(len(xs))
	if n < 2 {
		return math.NaN()
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// recoveryMetrics are the y columns of the movement correlation table,
// in the order they are reported.
var recoveryMetrics = []Metric[merge.CapabilityRecovery]{
	{Name: "sleep_composite", Value: func(r merge.CapabilityRecovery) dataset.Float { return r.SleepComposite }},
	{Name: "bio_composite", Value: func(r merge.CapabilityRecovery) dataset.Float { return r.BioComposite }},
	{Name: "msk_joint_range_composite", Value: func(r merge.CapabilityRecovery) dataset.Float { return r.MskJointRangeComposite }},
	{Name: "subjective_composite", Value: func(r merge.CapabilityRecovery) dataset.Float { return r.SubjectiveComposite }},
	{Name: "emboss_baseline_score", Value: func(r merge.CapabilityRecovery) dataset.Float { return r.EmbossBaselineScore }},
}

// MovementRecoveryCorrelations correlates the capability benchmark
// against each recovery metric, grouped by movement.
func MovementRecoveryCorrelations(rows []merge.CapabilityRecovery) []CorrelationRow {
	return Correlate(rows,
		func(r merge.CapabilityRecovery) string { return r.Movement },
		Metric[merge.CapabilityRecovery]{
			Name:  "benchmark_pct",
			Value: func(r merge.CapabilityRecovery) dataset.Float { return r.BenchmarkPct },
		},
		recoveryMetrics,
	)
}
