// Package analysis computes the summary tables served to the dashboard:
// per-group Pearson correlations, random-forest feature importances, and
// aggregate workload and priority-goal summaries.
//
// Sparse data degrades, it does not fail: a correlation group with fewer
// than two valid paired observations, or a constant column, yields an
// undefined value rather than an error. Callers render undefined as JSON
// null.
//
// The forest regressor takes an explicit seed. Exact importance values
// are an implementation detail and may shift between versions; only the
// ranking under a fixed seed is stable, and tests assert nothing
// stronger.
package analysis
