package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchpulse/internal/dataset"
	"pitchpulse/internal/merge"
)

type obs struct {
	group string
	x     dataset.Float
	y     dataset.Float
}

func obsGroup(o obs) string          { return o.group }
func obsX(o obs) dataset.Float       { return o.x }
func obsY(o obs) dataset.Float       { return o.y }

func correlate(rows []obs) []CorrelationRow {
	return Correlate(rows, obsGroup,
		Metric[obs]{Name: "x", Value: obsX},
		[]Metric[obs]{{Name: "y", Value: obsY}},
	)
}

func TestCorrelateSelfIsOne(t *testing.T) {
	rows := []obs{
		{group: "g", x: 1, y: 1},
		{group: "g", x: 2, y: 2},
		{group: "g", x: 3, y: 3},
	}

	out := correlate(rows)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, float64(out[0].Values["y"]), 1e-12)
}

func TestCorrelatePerfectNegative(t *testing.T) {
	rows := []obs{
		{group: "g", x: 1, y: 3},
		{group: "g", x: 2, y: 2},
		{group: "g", x: 3, y: 1},
	}

	out := correlate(rows)
	require.Len(t, out, 1)
	assert.InDelta(t, -1.0, float64(out[0].Values["y"]), 1e-12)
}

func TestCorrelateConstantColumnUndefined(t *testing.T) {
	rows := []obs{
		{group: "g", x: 5, y: 1},
		{group: "g", x: 5, y: 2},
		{group: "g", x: 5, y: 3},
	}

	out := correlate(rows)
	require.Len(t, out, 1)
	assert.True(t, out[0].Values["y"].IsNull())
}

func TestCorrelateSparseGroupUndefined(t *testing.T) {
	rows := []obs{
		{group: "thin", x: 1, y: 2},
		{group: "thin", x: 2, y: dataset.Null()}, // only one valid pair
		{group: "fat", x: 1, y: 1},
		{group: "fat", x: 2, y: 2},
	}

	out := correlate(rows)
	require.Len(t, out, 2)

	assert.Equal(t, "thin", out[0].Group)
	assert.True(t, out[0].Values["y"].IsNull())

	assert.Equal(t, "fat", out[1].Group)
	assert.InDelta(t, 1.0, float64(out[1].Values["y"]), 1e-12)
}

func TestCorrelateSkipsNullPairs(t *testing.T) {
	// The null pair would break the perfect correlation if it were
	// coerced instead of skipped
	rows := []obs{
		{group: "g", x: 1, y: 10},
		{group: "g", x: dataset.Null(), y: 99},
		{group: "g", x: 2, y: 20},
		{group: "g", x: 3, y: 30},
	}

	out := correlate(rows)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, float64(out[0].Values["y"]), 1e-12)
}

func TestCorrelateGroupOrderIsFirstAppearance(t *testing.T) {
	rows := []obs{
		{group: "b", x: 1, y: 1},
		{group: "a", x: 1, y: 1},
		{group: "b", x: 2, y: 2},
		{group: "a", x: 2, y: 2},
	}

	out := correlate(rows)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Group)
	assert.Equal(t, "a", out[1].Group)
}

func TestMovementRecoveryCorrelations(t *testing.T) {
	rows := []merge.CapabilityRecovery{
		{Movement: "Sprint", BenchmarkPct: 0.5, SleepComposite: 0.1, EmbossBaselineScore: 1},
		{Movement: "Sprint", BenchmarkPct: 0.7, SleepComposite: 0.3, EmbossBaselineScore: 3},
		{Movement: "Sprint", BenchmarkPct: 0.9, SleepComposite: 0.5, EmbossBaselineScore: 5},
		{Movement: "Jump", BenchmarkPct: 0.6, SleepComposite: 0.2, EmbossBaselineScore: 2},
	}

	out := MovementRecoveryCorrelations(rows)
	require.Len(t, out, 2)

	sprint := out[0]
	assert.Equal(t, "Sprint", sprint.Group)
	assert.Equal(t, 3, sprint.N)
	assert.InDelta(t, 1.0, float64(sprint.Values["sleep_composite"]), 1e-12)
	assert.InDelta(t, 1.0, float64(sprint.Values["emboss_baseline_score"]), 1e-12)
	// Metrics not present in the fixture stay undefined
	assert.True(t, sprint.Values["bio_composite"].IsNull())

	jump := out[1]
	assert.Equal(t, "Jump", jump.Group)
	assert.True(t, jump.Values["sleep_composite"].IsNull())
}
