package processing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitlane-data/pitwall/pkg/ingest"
	"github.com/pitlane-data/pitwall/pkg/model"
	"github.com/pitlane-data/pitwall/pkg/processing/laps"
)

func sampleLap(driver string, num int, secs float64, compound model.Compound) model.Lap {
	d := time.Duration(secs * float64(time.Second))
	s1 := d / 3
	s2 := d / 3
	s3 := d - s1 - s2
	return model.Lap{
		Driver:      driver,
		LapNumber:   num,
		LapTime:     &d,
		Sector1Time: &s1,
		Sector2Time: &s2,
		Sector3Time: &s3,
		Compound:    compound,
	}
}

func TestAnalyzeComposesAllOutputs(t *testing.T) {
	cleaned := []model.Lap{
		sampleLap("VER", 1, 92.0, model.CompoundSoft),
		sampleLap("VER", 2, 92.2, model.CompoundSoft),
		sampleLap("VER", 3, 92.4, model.CompoundSoft),
		sampleLap("VER", 4, 93.0, model.CompoundMedium),
		sampleLap("HAM", 1, 91.5, model.CompoundSoft),
	}

	analysis := NewAnalyzer().Analyze("Test GP", cleaned)

	assert.Equal(t, "Test GP", analysis.Name)
	assert.Equal(t, []string{"VER", "HAM"}, analysis.Drivers)

	require.Len(t, analysis.Classification, 2)
	assert.Equal(t, "HAM", analysis.Classification[0].Driver)

	require.NotNil(t, analysis.SectorBests)
	assert.Equal(t, "HAM", analysis.SectorBests.FastestLap.Driver)

	require.Len(t, analysis.Stints["VER"], 2)
	require.Len(t, analysis.Stints["HAM"], 1)

	// three timed soft laps give VER's first stint a trend
	require.Len(t, analysis.Degradation["VER"], 2)
	assert.NotNil(t, analysis.Degradation["VER"][0].Trend)
	assert.Nil(t, analysis.Degradation["VER"][1].Trend)
}

func TestAnalyzeRawNormalizesFirst(t *testing.T) {
	rows := []ingest.RawLap{
		{"Driver": "VER", "LapNumber": "1", "LapTime": "92.0", "Compound": "SOFT"},
		{"Driver": "", "LapTime": "90.0"},
	}
	analysis, err := NewAnalyzer().AnalyzeRaw("Test GP", rows)
	require.NoError(t, err)
	assert.Len(t, analysis.Laps, 1)
	assert.Equal(t, []string{"VER"}, analysis.Drivers)
}

func TestAnalyzeRawUnusableInput(t *testing.T) {
	_, err := NewAnalyzer().AnalyzeRaw("Test GP", []ingest.RawLap{{"LapTime": "90.0"}})
	assert.ErrorIs(t, err, laps.ErrUnusableInput)
}
