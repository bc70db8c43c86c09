package standings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitlane-data/pitwall/pkg/model"
)

type fakeAuthority struct {
	driver      *model.Standings
	constructor *model.Standings
	err         error
}

func (a *fakeAuthority) DriverStandings(
	_ context.Context, _, _ int,
) (*model.Standings, error) {
	return a.driver, a.err
}

func (a *fakeAuthority) ConstructorStandings(
	_ context.Context, _, _ int,
) (*model.Standings, error) {
	return a.constructor, a.err
}

type fixedResolver struct{ latest int }

func (r *fixedResolver) LatestConcludedRound(_ context.Context, _ int) (int, error) {
	return r.latest, nil
}

func TestFallbackPrefersAuthority(t *testing.T) {
	official := &model.Standings{Season: 2025, Round: 3, Source: "ergast"}
	src := NewFallbackSource(&fakeAuthority{driver: official}, nil, nil)

	got, err := src.Compute(context.Background(), 2025, 3, model.ClassDriver)
	require.NoError(t, err)
	assert.Equal(t, official, got)
}

func TestFallbackReconstructsWhenAuthorityEmpty(t *testing.T) {
	provider := &fakeProvider{
		race: map[int][]model.ResultRow{1: {row("X", "Foo", 1, 0)}},
	}
	rec := NewReconstructor(provider, scoringWithoutBonus())
	src := NewFallbackSource(
		&fakeAuthority{err: model.ErrNotAvailable}, rec, &fixedResolver{latest: 1})

	got, err := src.Compute(context.Background(), 2025, 0, model.ClassDriver)
	require.NoError(t, err)
	assert.Equal(t, "reconstructed", got.Source)
	assert.Equal(t, 1, got.Round)
	assert.Equal(t, "25", pts(t, got.Entries, "X"))
}

func TestFallbackExplicitRoundNeedsNoResolver(t *testing.T) {
	provider := &fakeProvider{
		race: map[int][]model.ResultRow{1: {row("X", "Foo", 1, 0)}},
	}
	rec := NewReconstructor(provider, scoringWithoutBonus())
	src := NewFallbackSource(&fakeAuthority{err: model.ErrNotAvailable}, rec, nil)

	got, err := src.Compute(context.Background(), 2025, 1, model.ClassDriver)
	require.NoError(t, err)
	assert.Equal(t, "reconstructed", got.Source)
}
