//nolint:funlen // ok for tests
package standings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitlane-data/pitwall/pkg/model"
)

type fakeProvider struct {
	race    map[int][]model.ResultRow
	sprint  map[int][]model.ResultRow
	raceErr map[int]error
}

func (f *fakeProvider) SessionResults(
	_ context.Context, _, round int, kind model.SessionKind,
) ([]model.ResultRow, error) {
	if kind == model.SessionSprint {
		rows, ok := f.sprint[round]
		if !ok {
			return nil, model.ErrNotAvailable
		}
		return rows, nil
	}
	if err, ok := f.raceErr[round]; ok {
		return nil, err
	}
	rows, ok := f.race[round]
	if !ok {
		return nil, model.ErrNotAvailable
	}
	return rows, nil
}

func row(id, team string, pos int, flSecs float64) model.ResultRow {
	r := model.ResultRow{CompetitorID: id, TeamName: team, Position: &pos}
	if flSecs > 0 {
		fl := time.Duration(flSecs * float64(time.Second))
		r.FastestLap = &fl
	}
	return r
}

func unclassified(id, team string) model.ResultRow {
	return model.ResultRow{CompetitorID: id, TeamName: team}
}

func pts(t *testing.T, entries []model.StandingsEntry, id string) string {
	t.Helper()
	for i := range entries {
		if entries[i].CompetitorID == id {
			return entries[i].Points.String()
		}
	}
	t.Fatalf("competitor %s not in standings", id)
	return ""
}

func TestReplaySkipsFailedRound(t *testing.T) {
	provider := &fakeProvider{
		race: map[int][]model.ResultRow{
			1: {row("X", "Foo", 1, 0), row("Y", "Bar", 2, 0)},
			3: {row("Y", "Bar", 1, 0), row("X", "Foo", 3, 0)},
		},
		raceErr: map[int]error{2: errors.New("boom")},
	}
	rec := NewReconstructor(provider,
		scoringWithoutBonus(),
		WithFetchWorkers(2))

	st, err := rec.DriverStandings(context.Background(), 2025, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{2}, st.SkippedRounds)
	assert.Equal(t, "43", pts(t, st.Entries, "Y")) // 18 + 25
	assert.Equal(t, "40", pts(t, st.Entries, "X")) // 25 + 15
	assert.Equal(t, "Y", st.Entries[0].CompetitorID)
	assert.Equal(t, 1, st.Entries[0].Position)
	assert.Equal(t, 1, st.Entries[0].Wins)
	assert.Equal(t, 1, st.Entries[1].Wins)
	assert.Equal(t, "reconstructed", st.Source)
}

func TestReplayFastestLapBonusCutoff(t *testing.T) {
	rows := make([]model.ResultRow, 0, 11)
	for i := 1; i <= 11; i++ {
		rows = append(rows, row(driverID(i), "T", i, 0))
	}
	// fastest lap to the driver finishing 11th: no bonus
	fl := 85 * time.Second
	rows[10].FastestLap = &fl

	provider := &fakeProvider{race: map[int][]model.ResultRow{1: rows}}
	rec := NewReconstructor(provider)
	st, err := rec.DriverStandings(context.Background(), 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, "0", pts(t, st.Entries, driverID(11)))
	assert.Equal(t, "25", pts(t, st.Entries, driverID(1)))

	// same race, fastest lap to P10: bonus applies
	rows[10].FastestLap = nil
	rows[9].FastestLap = &fl
	st, err = rec.DriverStandings(context.Background(), 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, "2", pts(t, st.Entries, driverID(10))) // 1 + 1
}

func TestReplaySprintPointsNoBonus(t *testing.T) {
	fl := 85 * time.Second
	sprintRows := []model.ResultRow{row("X", "Foo", 1, 0), row("Y", "Bar", 2, 0)}
	sprintRows[0].FastestLap = &fl

	provider := &fakeProvider{
		race:   map[int][]model.ResultRow{1: {row("Y", "Bar", 1, 0), row("X", "Foo", 2, 0)}},
		sprint: map[int][]model.ResultRow{1: sprintRows},
	}
	rec := NewReconstructor(provider, scoringWithoutBonus())
	st, err := rec.DriverStandings(context.Background(), 2025, 1)
	require.NoError(t, err)

	assert.Equal(t, "26", pts(t, st.Entries, "X")) // 18 race + 8 sprint
	assert.Equal(t, "32", pts(t, st.Entries, "Y")) // 25 race + 7 sprint
	// sprint win does not count as a win
	assert.Equal(t, 0, st.Entries[1].Wins)
	assert.Equal(t, 1, st.Entries[0].Wins)
}

func TestReplayUnclassifiedScoresNothing(t *testing.T) {
	provider := &fakeProvider{
		race: map[int][]model.ResultRow{
			1: {row("X", "Foo", 1, 0), unclassified("Z", "Baz")},
		},
	}
	rec := NewReconstructor(provider)
	st, err := rec.DriverStandings(context.Background(), 2025, 1)
	require.NoError(t, err)

	require.Len(t, st.Entries, 1)
	assert.Equal(t, "X", st.Entries[0].CompetitorID)
}

func TestReplayConstructorAliases(t *testing.T) {
	provider := &fakeProvider{
		race: map[int][]model.ResultRow{
			1: {
				row("VER", "Red Bull", 1, 0),
				row("TSU", "Red Bull Racing Honda RBPT", 2, 0),
			},
		},
	}
	rec := NewReconstructor(provider, scoringWithoutBonus())
	st, err := rec.ConstructorStandings(context.Background(), 2025, 1)
	require.NoError(t, err)

	require.Len(t, st.Entries, 1)
	assert.Equal(t, "Red Bull Racing Honda RBPT", st.Entries[0].CompetitorID)
	assert.Equal(t, "43", st.Entries[0].Points.String())
}

func TestReplayConstructorFastestLapSingleBonus(t *testing.T) {
	// both cars in the points, fastest lap on the second car: the team
	// collects the bonus exactly once
	fl := 85 * time.Second
	rows := []model.ResultRow{
		row("VER", "Red Bull Racing Honda RBPT", 1, 0),
		row("TSU", "Red Bull Racing Honda RBPT", 2, 0),
	}
	rows[1].FastestLap = &fl

	provider := &fakeProvider{race: map[int][]model.ResultRow{1: rows}}
	rec := NewReconstructor(provider)
	st, err := rec.ConstructorStandings(context.Background(), 2025, 1)
	require.NoError(t, err)

	require.Len(t, st.Entries, 1)
	assert.Equal(t, "44", st.Entries[0].Points.String()) // 25 + 18 + 1
}

func TestReplayConstructorFastestLapHolderIneligible(t *testing.T) {
	// fastest lap on the car finishing 11th: no bonus for the team, even
	// though the teammate finished well inside the cutoff
	fl := 85 * time.Second
	rows := []model.ResultRow{
		row("ALO", "Aston Martin Aramco Mercedes", 5, 0),
		row("STR", "Aston Martin Aramco Mercedes", 11, 0),
	}
	rows[1].FastestLap = &fl

	provider := &fakeProvider{race: map[int][]model.ResultRow{1: rows}}
	rec := NewReconstructor(provider)
	st, err := rec.ConstructorStandings(context.Background(), 2025, 1)
	require.NoError(t, err)

	require.Len(t, st.Entries, 1)
	assert.Equal(t, "10", st.Entries[0].Points.String()) // P5 only
}

func TestReplayOverrideForcesTotal(t *testing.T) {
	rules := DefaultScoringRules()
	rules.FastestLap.Enabled = false
	rules.Overrides = []Override{
		{Round: 1, Class: model.ClassDriver, CompetitorID: "X",
			Points: decimal.NewFromFloat(12.5)},
		{Round: 5, Class: model.ClassDriver, CompetitorID: "X",
			Points: decimal.NewFromInt(99)},
	}
	provider := &fakeProvider{
		race: map[int][]model.ResultRow{1: {row("X", "Foo", 1, 0)}},
	}
	rec := NewReconstructor(provider, WithScoringRules(rules))

	// only the override at or below the cutoff applies
	st, err := rec.DriverStandings(context.Background(), 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, "12.5", pts(t, st.Entries, "X"))
}

func TestReplayTieKeepsFirstAppearance(t *testing.T) {
	provider := &fakeProvider{
		race: map[int][]model.ResultRow{
			1: {row("A", "T1", 1, 0), row("B", "T2", 2, 0)},
			2: {row("B", "T2", 1, 0), row("A", "T1", 2, 0)},
		},
	}
	rec := NewReconstructor(provider, scoringWithoutBonus())
	st, err := rec.DriverStandings(context.Background(), 2025, 2)
	require.NoError(t, err)

	// both on 43; A appeared first
	assert.Equal(t, "A", st.Entries[0].CompetitorID)
	assert.Equal(t, "B", st.Entries[1].CompetitorID)
}

func TestReplayNoRoundsYieldsEmptyStandings(t *testing.T) {
	provider := &fakeProvider{race: map[int][]model.ResultRow{}}
	rec := NewReconstructor(provider)
	st, err := rec.DriverStandings(context.Background(), 2025, 2)
	require.NoError(t, err)
	assert.Empty(t, st.Entries)
	assert.Empty(t, st.SkippedRounds)
}

func scoringWithoutBonus() ReconstructorOption {
	rules := DefaultScoringRules()
	rules.FastestLap.Enabled = false
	return WithScoringRules(rules)
}

func driverID(pos int) string {
	return string(rune('A' + pos - 1))
}
