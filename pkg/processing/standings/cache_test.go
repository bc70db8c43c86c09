package standings

import (
	"context"
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/pitlane-data/pitwall/pkg/model"
)

type fixedCalendar struct {
	concluded map[int]bool
	err       error
}

func (c *fixedCalendar) RoundConcluded(_ context.Context, _, round int) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.concluded[round], nil
}

func countingCompute(calls *int) StandingsFunc {
	return func(
		_ context.Context, season, round int, class model.CompetitorClass,
	) (*model.Standings, error) {
		*calls++
		return &model.Standings{Season: season, Round: round, Class: class}, nil
	}
}

func TestCachedSourceMemoizes(t *testing.T) {
	calls := 0
	src := NewCachedSource("test", countingCompute(&calls))

	ctx := context.Background()
	first, err := src.Get(ctx, 2025, 3, model.ClassDriver)
	assert.NilError(t, err)
	second, err := src.Get(ctx, 2025, 3, model.ClassDriver)
	assert.NilError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second) // same memoized instance

	// different class is a different key
	_, err = src.Get(ctx, 2025, 3, model.ClassConstructor)
	assert.NilError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachedSourceSkipsInProgressRound(t *testing.T) {
	calls := 0
	src := NewCachedSource("test", countingCompute(&calls),
		WithCalendar(&fixedCalendar{concluded: map[int]bool{1: true, 2: false}}))

	ctx := context.Background()
	_, err := src.Get(ctx, 2025, 2, model.ClassDriver)
	assert.NilError(t, err)
	_, err = src.Get(ctx, 2025, 2, model.ClassDriver)
	assert.NilError(t, err)
	// round 2 is in progress: computed fresh every time
	assert.Equal(t, 2, calls)

	_, err = src.Get(ctx, 2025, 1, model.ClassDriver)
	assert.NilError(t, err)
	_, err = src.Get(ctx, 2025, 1, model.ClassDriver)
	assert.NilError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCachedSourceCalendarFailureMeansNoStore(t *testing.T) {
	calls := 0
	src := NewCachedSource("test", countingCompute(&calls),
		WithCalendar(&fixedCalendar{err: errors.New("offline")}))

	ctx := context.Background()
	_, err := src.Get(ctx, 2025, 1, model.ClassDriver)
	assert.NilError(t, err)
	_, err = src.Get(ctx, 2025, 1, model.ClassDriver)
	assert.NilError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachedSourceInvalidateAll(t *testing.T) {
	calls := 0
	src := NewCachedSource("test", countingCompute(&calls))

	ctx := context.Background()
	_, err := src.Get(ctx, 2025, 1, model.ClassDriver)
	assert.NilError(t, err)
	src.InvalidateAll(ctx)
	_, err = src.Get(ctx, 2025, 1, model.ClassDriver)
	assert.NilError(t, err)
	assert.Equal(t, 2, calls)
}
