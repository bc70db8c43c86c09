package standings

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/model"
)

// Authority is an external source of official standings tables.
type Authority interface {
	DriverStandings(ctx context.Context, season, round int) (*model.Standings, error)
	ConstructorStandings(ctx context.Context, season, round int) (*model.Standings, error)
}

// RoundResolver turns the "latest" cutoff (round 0) into a concrete
// round for the replay.
type RoundResolver interface {
	LatestConcludedRound(ctx context.Context, season int) (int, error)
}

// FallbackSource answers standings requests authoritative-first and
// reconstructs from session results when the authority has no data.
type FallbackSource struct {
	authority     Authority
	reconstructor *Reconstructor
	resolver      RoundResolver
	l             *log.Logger
}

func NewFallbackSource(
	authority Authority, reconstructor *Reconstructor, resolver RoundResolver,
) *FallbackSource {
	return &FallbackSource{
		authority:     authority,
		reconstructor: reconstructor,
		resolver:      resolver,
		l:             log.Default().Named("standings.source"),
	}
}

// Compute satisfies StandingsFunc.
func (s *FallbackSource) Compute(
	ctx context.Context, season, round int, class model.CompetitorClass,
) (*model.Standings, error) {
	if s.authority != nil {
		st, err := s.authoritative(ctx, season, round, class)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, model.ErrNotAvailable) {
			s.l.Warn("authoritative standings failed, reconstructing",
				log.Int("season", season), log.Int("round", round), log.ErrorField(err))
		}
	}

	cutoff := round
	if cutoff == 0 {
		if s.resolver == nil {
			return nil, fmt.Errorf("cannot resolve latest round: %w", model.ErrNotAvailable)
		}
		var err error
		if cutoff, err = s.resolver.LatestConcludedRound(ctx, season); err != nil {
			return nil, err
		}
	}
	if class == model.ClassConstructor {
		return s.reconstructor.ConstructorStandings(ctx, season, cutoff)
	}
	return s.reconstructor.DriverStandings(ctx, season, cutoff)
}

func (s *FallbackSource) authoritative(
	ctx context.Context, season, round int, class model.CompetitorClass,
) (*model.Standings, error) {
	if class == model.ClassConstructor {
		return s.authority.ConstructorStandings(ctx, season, round)
	}
	return s.authority.DriverStandings(ctx, season, round)
}
