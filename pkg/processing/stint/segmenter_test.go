//nolint:funlen // ok for tests
package stint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitlane-data/pitwall/pkg/model"
)

func lap(num int, compound model.Compound, stintID *int) model.Lap {
	t := time.Duration(90+num) * time.Second
	return model.Lap{
		Driver:    "VER",
		LapNumber: num,
		LapTime:   &t,
		Compound:  compound,
		Stint:     stintID,
	}
}

func intPtr(v int) *int { return &v }

func TestSegmentCompoundChange(t *testing.T) {
	laps := []model.Lap{
		lap(1, model.CompoundSoft, nil),
		lap(2, model.CompoundSoft, nil),
		lap(3, model.CompoundMedium, nil),
	}
	stints := NewSegmenter().Segment(laps)
	require.Len(t, stints, 2)

	assert.Equal(t, 1, stints[0].Number)
	assert.Equal(t, model.CompoundSoft, stints[0].Compound)
	assert.Equal(t, 1, stints[0].StartLap)
	assert.Equal(t, 2, stints[0].EndLap)
	assert.Equal(t, 2, stints[0].Length)

	assert.Equal(t, 2, stints[1].Number)
	assert.Equal(t, model.CompoundMedium, stints[1].Compound)
	assert.Equal(t, 3, stints[1].StartLap)
	assert.Equal(t, 3, stints[1].EndLap)
	assert.Equal(t, 1, stints[1].Length)
}

func TestSegmentStintIDPrecedence(t *testing.T) {
	// pit stop without compound change: the explicit stint id must split
	laps := []model.Lap{
		lap(1, model.CompoundHard, intPtr(1)),
		lap(2, model.CompoundHard, intPtr(1)),
		lap(3, model.CompoundHard, intPtr(2)),
	}
	stints := NewSegmenter().Segment(laps)
	require.Len(t, stints, 2)
	assert.Equal(t, 2, stints[0].EndLap)
	assert.Equal(t, 3, stints[1].StartLap)
}

func TestSegmentMissingStintIDFallsBackToCompound(t *testing.T) {
	laps := []model.Lap{
		lap(1, model.CompoundSoft, intPtr(1)),
		lap(2, model.CompoundSoft, nil),
		lap(3, model.CompoundMedium, nil),
	}
	stints := NewSegmenter().Segment(laps)
	require.Len(t, stints, 2)
	assert.Equal(t, model.CompoundSoft, stints[0].Compound)
	assert.Equal(t, model.CompoundMedium, stints[1].Compound)
}

func TestSegmentEmpty(t *testing.T) {
	stints := NewSegmenter().Segment([]model.Lap{})
	assert.Empty(t, stints)
}

func TestSegmentTyreAgeRange(t *testing.T) {
	mk := func(num, life int) model.Lap {
		l := lap(num, model.CompoundSoft, nil)
		l.TyreLife = intPtr(life)
		return l
	}
	laps := []model.Lap{mk(1, 5), mk(2, 6), mk(3, 7)}
	laps[1].TyreLife = nil

	stints := NewSegmenter().Segment(laps)
	require.Len(t, stints, 1)
	require.NotNil(t, stints[0].StartTyreLife)
	require.NotNil(t, stints[0].EndTyreLife)
	assert.Equal(t, 5, *stints[0].StartTyreLife)
	assert.Equal(t, 7, *stints[0].EndTyreLife)
}

func TestSegmentNoTyreAge(t *testing.T) {
	laps := []model.Lap{
		lap(1, model.CompoundSoft, nil),
		lap(2, model.CompoundSoft, nil),
	}
	stints := NewSegmenter().Segment(laps)
	require.Len(t, stints, 1)
	assert.Nil(t, stints[0].StartTyreLife)
	assert.Nil(t, stints[0].EndTyreLife)
}

// stints must cover the driver's laps exactly, no gaps or overlaps
func TestSegmentPartitionsLaps(t *testing.T) {
	laps := []model.Lap{
		lap(4, model.CompoundMedium, nil),
		lap(1, model.CompoundSoft, nil),
		lap(3, model.CompoundMedium, nil),
		lap(2, model.CompoundSoft, nil),
		lap(5, model.CompoundSoft, nil),
	}
	stints := NewSegmenter().Segment(laps)

	total := 0
	covered := make(map[int]bool)
	for i := range stints {
		st := &stints[i]
		if i > 0 {
			assert.Equal(t, stints[i-1].EndLap+1, st.StartLap, "gap or overlap between stints")
		}
		for _, l := range st.Laps {
			assert.False(t, covered[l.LapNumber], "lap %d assigned twice", l.LapNumber)
			covered[l.LapNumber] = true
		}
		total += len(st.Laps)
	}
	assert.Equal(t, len(laps), total)
}
