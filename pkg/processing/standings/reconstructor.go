// Package standings reconstructs championship tables round-by-round
// from session results when no authoritative standings feed is
// available, and memoizes the results per (season, round, class).
package standings

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/model"
)

// ResultsProvider supplies classified session results for one round.
// model.ErrNotAvailable is the normal "no such session" outcome (e.g.
// no sprint this round); any other error marks the fetch as failed.
type ResultsProvider interface {
	SessionResults(
		ctx context.Context, season, round int, kind model.SessionKind,
	) ([]model.ResultRow, error)
}

const defaultFetchWorkers = 4

type Reconstructor struct {
	provider ResultsProvider
	rules    *ScoringRules
	workers  int
	l        *log.Logger
}

type ReconstructorOption func(*Reconstructor)

func WithScoringRules(rules *ScoringRules) ReconstructorOption {
	return func(r *Reconstructor) { r.rules = rules }
}

func WithFetchWorkers(n int) ReconstructorOption {
	return func(r *Reconstructor) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithLogger(arg *log.Logger) ReconstructorOption {
	return func(r *Reconstructor) { r.l = arg }
}

func NewReconstructor(provider ResultsProvider, opts ...ReconstructorOption) *Reconstructor {
	r := &Reconstructor{
		provider: provider,
		rules:    DefaultScoringRules(),
		workers:  defaultFetchWorkers,
		l:        log.Default().Named("standings"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DriverStandings replays rounds 1..round and returns the driver
// championship table at that cutoff.
func (r *Reconstructor) DriverStandings(
	ctx context.Context, season, round int,
) (*model.Standings, error) {
	return r.replay(ctx, season, round, model.ClassDriver)
}

// ConstructorStandings is the constructor-championship counterpart of
// DriverStandings; points attribute to canonicalized team names.
func (r *Reconstructor) ConstructorStandings(
	ctx context.Context, season, round int,
) (*model.Standings, error) {
	return r.replay(ctx, season, round, model.ClassConstructor)
}

type roundData struct {
	race      []model.ResultRow
	raceErr   error
	sprint    []model.ResultRow
	hasSprint bool
}

// fetchRounds loads all rounds in parallel. Failures are recorded per
// round, never propagated; the fold decides what a failed round means.
func (r *Reconstructor) fetchRounds(ctx context.Context, season, rounds int) []roundData {
	data := make([]roundData, rounds)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := 0; i < rounds; i++ {
		i := i
		g.Go(func() error {
			rnd := i + 1
			rd := &data[i]
			rd.race, rd.raceErr = r.provider.SessionResults(gctx, season, rnd, model.SessionRace)

			sprint, err := r.provider.SessionResults(gctx, season, rnd, model.SessionSprint)
			switch {
			case err == nil:
				rd.sprint, rd.hasSprint = sprint, true
			case errors.Is(err, model.ErrNotAvailable):
				// normal: not every round has a sprint
			default:
				r.l.Warn("sprint results unavailable",
					log.Int("season", season), log.Int("round", rnd), log.ErrorField(err))
			}
			return nil
		})
	}
	//nolint:errcheck // goroutines only record errors
	g.Wait()
	return data
}

type tally struct {
	name      string
	team      string
	points    decimal.Decimal
	wins      int
	firstSeen int
}

//nolint:funlen // the replay loop reads best as one piece
func (r *Reconstructor) replay(
	ctx context.Context, season, rounds int, class model.CompetitorClass,
) (*model.Standings, error) {
	result := &model.Standings{
		Season: season,
		Round:  rounds,
		Class:  class,
		Source: "reconstructed",
	}

	data := r.fetchRounds(ctx, season, rounds)

	tallies := make(map[string]*tally)
	order := make([]string, 0)
	// fold strictly in round order so first-appearance ranking is
	// deterministic regardless of fetch completion order
	for rnd := 1; rnd <= rounds; rnd++ {
		rd := &data[rnd-1]
		if rd.raceErr != nil && !errors.Is(rd.raceErr, model.ErrNotAvailable) {
			r.l.Warn("skipping round",
				log.Int("season", season), log.Int("round", rnd),
				log.ErrorField(rd.raceErr))
			result.SkippedRounds = append(result.SkippedRounds, rnd)
			continue
		}
		if errors.Is(rd.raceErr, model.ErrNotAvailable) {
			// round not run yet; contributes nothing
			continue
		}
		r.applySession(tallies, &order, rd.race, class, r.rules.Race, true)
		if rd.hasSprint {
			r.applySession(tallies, &order, rd.sprint, class, r.rules.Sprint, false)
		}
	}

	for _, key := range order {
		if forced := r.rules.overrideFor(class, key, rounds); forced != nil {
			tallies[key].points = *forced
		}
	}

	result.Entries = rank(tallies, order)
	return result, nil
}

// applySession attributes one session's points. Race sessions also
// count wins and may award the fastest-lap bonus; sprints do neither.
func (r *Reconstructor) applySession(
	tallies map[string]*tally,
	order *[]string,
	rows []model.ResultRow,
	class model.CompetitorClass,
	table PointsTable,
	race bool,
) {
	for i := range rows {
		row := &rows[i]
		if row.Position == nil {
			continue // not classified
		}
		key, name, team := r.identify(row, class)
		t, ok := tallies[key]
		if !ok {
			t = &tally{name: name, team: team, firstSeen: len(*order)}
			tallies[key] = t
			*order = append(*order, key)
		}
		if pts, ok := table[*row.Position]; ok {
			t.points = t.points.Add(pts)
		}
		if race && *row.Position == 1 {
			t.wins++
		}
	}
	if race && r.rules.FastestLap.Enabled {
		r.awardFastestLapBonus(tallies, rows, class)
	}
}

// awardFastestLapBonus pays the bonus at most once per race, to the
// classified competitor with the lowest recorded fastest-lap time (ties
// to the first encountered). Eligibility is the holder's own finishing
// position, even when the point is credited to the team in a
// constructor replay.
func (r *Reconstructor) awardFastestLapBonus(
	tallies map[string]*tally, rows []model.ResultRow, class model.CompetitorClass,
) {
	best := -1
	for i := range rows {
		if rows[i].Position == nil || rows[i].FastestLap == nil {
			continue
		}
		if best == -1 || *rows[i].FastestLap < *rows[best].FastestLap {
			best = i
		}
	}
	if best == -1 || *rows[best].Position > r.rules.FastestLap.EligiblePosition {
		return
	}
	key, _, _ := r.identify(&rows[best], class)
	if t, ok := tallies[key]; ok {
		t.points = t.points.Add(r.rules.FastestLap.Points)
	}
}

func (r *Reconstructor) identify(
	row *model.ResultRow, class model.CompetitorClass,
) (key, name, team string) {
	canonical := r.rules.CanonicalTeam(row.TeamName)
	if class == model.ClassConstructor {
		return canonical, canonical, ""
	}
	name = row.DriverName
	if name == "" {
		name = row.CompetitorID
	}
	return row.CompetitorID, name, canonical
}

// rank orders by points descending; equal points keep first-appearance
// order. This tie-break mirrors the data source, not the sporting
// regulations (which compare best finishes).
func rank(tallies map[string]*tally, order []string) []model.StandingsEntry {
	keys := make([]string, len(order))
	copy(keys, order)
	sort.SliceStable(keys, func(i, j int) bool {
		return tallies[keys[i]].points.Cmp(tallies[keys[j]].points) > 0
	})

	entries := make([]model.StandingsEntry, 0, len(keys))
	for i, key := range keys {
		t := tallies[key]
		entries = append(entries, model.StandingsEntry{
			Position:     i + 1,
			CompetitorID: key,
			Name:         t.name,
			Team:         t.team,
			Points:       t.points,
			Wins:         t.wins,
		})
	}
	return entries
}
