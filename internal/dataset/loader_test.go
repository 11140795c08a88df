package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pitchpulse/internal/errors"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRecovery(t *testing.T) {
	path := writeCSV(t, "recovery.csv", `player,date,bio_composite,sleep_composite,emboss_baseline_score
P1,2024-08-02,0.5,0.8,5
P1,2024-08-04,,0.7,3
`)

	records, stats, err := NewLoader(nil).LoadRecovery(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "P1", records[0].Player)
	assert.Equal(t, time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, Float(0.5), records[0].BioComposite)
	assert.Equal(t, Float(5), records[0].EmbossBaselineScore)

	// Blank measurement is absent, not zero
	assert.True(t, records[1].BioComposite.IsNull())
	assert.Equal(t, Float(0.7), records[1].SleepComposite)

	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 0, stats.Dropped)
}

func TestLoadRecoveryMissingColumn(t *testing.T) {
	path := writeCSV(t, "recovery.csv", `player,date,bio_composite
P1,2024-08-02,0.5
`)

	_, _, err := NewLoader(nil).LoadRecovery(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingColumn))
	assert.Contains(t, err.Error(), "emboss_baseline_score")
}

func TestLoadDropsUnparseableDates(t *testing.T) {
	path := writeCSV(t, "gps.csv", `player,date,distance,peak_speed
P1,2024-08-02,5000,30.1
P1,not-a-date,4800,29.5
P2,2024-08-02,5100,31.2
`)

	records, stats, err := NewLoader(nil).LoadGPS(context.Background(), path)
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 2, stats.Rows)
}

func TestLoadHeaderMatchingIsFlexible(t *testing.T) {
	// Mixed-case headers, BOM prefix, reordered columns
	path := writeCSV(t, "capability.csv", "\uFEFFMovement,BenchmarkPct,Player,Date,Quality\nSprint,0.85,P1,03/08/2024,Acceleration\n")

	records, _, err := NewLoader(nil).LoadCapability(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Sprint", records[0].Movement)
	assert.Equal(t, "P1", records[0].Player)
	assert.Equal(t, Float(0.85), records[0].BenchmarkPct)
	assert.Equal(t, time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC), records[0].Date)
}

func TestLoadCalendarTimestampsTruncateToDay(t *testing.T) {
	path := writeCSV(t, "calendar.csv", `event_date,event_type,event_name,training_load
2024-08-03 20:00:00,Match,vs Arsenal,
2024-08-05,Training,,80
`)

	events, _, err := NewLoader(nil).LoadCalendar(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC), events[0].Date)
	assert.Equal(t, "Match", events[0].EventType)
	assert.True(t, events[0].TrainingLoad.IsNull())
	assert.Equal(t, Float(80), events[1].TrainingLoad)
}

func TestLoadAll(t *testing.T) {
	paths := Paths{
		GPS:        writeCSV(t, "gps.csv", "player,date,distance\nP1,2024-08-02,5000\n"),
		Recovery:   writeCSV(t, "recovery.csv", "player,date,emboss_baseline_score\nP1,2024-08-02,5\n"),
		Capability: writeCSV(t, "capability.csv", "player,date,movement,benchmarkpct\nP1,2024-08-02,Sprint,0.9\n"),
		Priority:   writeCSV(t, "priority.csv", "player,category,target_set_date,review_date\nP1,Recovery,2024-07-01,2024-09-01\n"),
		Calendar:   writeCSV(t, "calendar.csv", "event_date,event_type\n2024-08-03,Match\n"),
	}

	bundle, err := NewLoader(nil).LoadAll(context.Background(), paths)
	require.NoError(t, err)

	assert.Len(t, bundle.GPS, 1)
	assert.Len(t, bundle.Recovery, 1)
	assert.Len(t, bundle.Capability, 1)
	assert.Len(t, bundle.Priority, 1)
	assert.Len(t, bundle.Calendar, 1)
	assert.Len(t, bundle.Stats, 5)
}

func TestLoadAllPropagatesFailure(t *testing.T) {
	paths := Paths{
		GPS:        writeCSV(t, "gps.csv", "player,date\nP1,2024-08-02\n"),
		Recovery:   filepath.Join(t.TempDir(), "missing.csv"),
		Capability: writeCSV(t, "capability.csv", "player,date,movement,benchmarkpct\n"),
		Priority:   writeCSV(t, "priority.csv", "player,category,target_set_date\n"),
		Calendar:   writeCSV(t, "calendar.csv", "event_date,event_type\n"),
	}

	_, err := NewLoader(nil).LoadAll(context.Background(), paths)
	require.Error(t, err)
}

func TestFloatJSONRoundTrip(t *testing.T) {
	data, err := Float(1.5).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "1.5", string(data))

	data, err = Null().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var f Float
	require.NoError(t, f.UnmarshalJSON([]byte("null")))
	assert.True(t, f.IsNull())
	require.NoError(t, f.UnmarshalJSON([]byte("2.25")))
	assert.Equal(t, Float(2.25), f)
}

func TestLoadSurfacesParsingErrors(t *testing.T) {
	loader := NewLoader(nil)

	t.Run("missing file", func(t *testing.T) {
		_, _, err := loader.LoadGPS(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeCSV(t, "empty.csv", "")
		_, _, err := loader.LoadGPS(context.Background(), path)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
		assert.Contains(t, err.Error(), "gps_data")
	})
}
