package standings

import (
	"context"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/model"
	"github.com/pitlane-data/pitwall/pkg/utils/cache"
	"github.com/pitlane-data/pitwall/pkg/utils/cache/loadercache"
)

// StandingsFunc computes a standings table for one cutoff.
type StandingsFunc func(
	ctx context.Context, season, round int, class model.CompetitorClass,
) (*model.Standings, error)

// RoundCalendar answers whether a round has concluded. Results for a
// round still in progress must not be memoized: they change while the
// session runs.
type RoundCalendar interface {
	RoundConcluded(ctx context.Context, season, round int) (bool, error)
}

type cacheKey struct {
	Source string
	Season int
	Round  int
	Class  model.CompetitorClass
}

// CachedSource memoizes a StandingsFunc per (source, season, round,
// class). Entries never expire; a changed scoring configuration is the
// caller's cue to InvalidateAll.
type CachedSource struct {
	source   string
	compute  StandingsFunc
	calendar RoundCalendar
	cache    cache.Cache[cacheKey, model.Standings]
	l        *log.Logger
}

type CacheOption func(*CachedSource)

// WithCalendar enables the non-cacheable-round policy. Without a
// calendar every result is memoized.
func WithCalendar(cal RoundCalendar) CacheOption {
	return func(s *CachedSource) { s.calendar = cal }
}

func WithCacheLogger(arg *log.Logger) CacheOption {
	return func(s *CachedSource) { s.l = arg }
}

func NewCachedSource(source string, compute StandingsFunc, opts ...CacheOption) *CachedSource {
	s := &CachedSource{
		source:  source,
		compute: compute,
		l:       log.Default().Named("standings.cache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = loadercache.New[cacheKey, model.Standings](
		loadercache.WithLoader[cacheKey, model.Standings](
			func(ctx context.Context, key cacheKey) (*model.Standings, error) {
				return s.compute(ctx, key.Season, key.Round, key.Class)
			}),
		loadercache.WithLogger[cacheKey, model.Standings](s.l),
	)
	return s
}

// Get returns the memoized standings for the cutoff, computing them on
// first access. A round not yet concluded is computed fresh every time
// and never stored.
func (s *CachedSource) Get(
	ctx context.Context, season, round int, class model.CompetitorClass,
) (*model.Standings, error) {
	if !s.storable(ctx, season, round) {
		s.l.Debug("round in progress, bypassing cache",
			log.Int("season", season), log.Int("round", round))
		return s.compute(ctx, season, round, class)
	}
	return s.cache.Get(ctx, cacheKey{Source: s.source, Season: season, Round: round, Class: class})
}

// storable errs on the side of not caching: an unknown conclusion
// state is treated as in progress.
func (s *CachedSource) storable(ctx context.Context, season, round int) bool {
	if s.calendar == nil {
		return true
	}
	concluded, err := s.calendar.RoundConcluded(ctx, season, round)
	if err != nil {
		s.l.Warn("round calendar unavailable",
			log.Int("season", season), log.Int("round", round), log.ErrorField(err))
		return false
	}
	return concluded
}

func (s *CachedSource) Invalidate(
	ctx context.Context, season, round int, class model.CompetitorClass,
) {
	s.cache.Invalidate(ctx, cacheKey{Source: s.source, Season: season, Round: round, Class: class})
}

func (s *CachedSource) InvalidateAll(ctx context.Context) {
	s.cache.InvalidateAll(ctx)
}
