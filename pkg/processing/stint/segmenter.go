// Package stint partitions a driver's laps into tyre stints and fits
// per-stint degradation trends.
package stint

import (
	"slices"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/model"
)

type Segmenter struct {
	l *log.Logger
}

type SegmenterOption func(*Segmenter)

func WithLogger(arg *log.Logger) SegmenterOption {
	return func(s *Segmenter) { s.l = arg }
}

func NewSegmenter(opts ...SegmenterOption) *Segmenter {
	s := &Segmenter{l: log.Default().Named("stint")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment walks one driver's laps in lap-number order and opens a new
// stint on every boundary. When both adjacent laps carry an explicit
// stint id, the id decides (pit stops without a compound change must
// still split); otherwise a compound change is the boundary. The
// returned stints cover the laps exactly, with no gaps or overlaps.
func (s *Segmenter) Segment(laps []model.Lap) []model.Stint {
	if len(laps) == 0 {
		return []model.Stint{}
	}

	ordered := make([]model.Lap, len(laps))
	copy(ordered, laps)
	slices.SortStableFunc(ordered, func(a, b model.Lap) int {
		return a.LapNumber - b.LapNumber
	})

	stints := make([]model.Stint, 0, 4)
	cur := []model.Lap{ordered[0]}
	for i := 1; i < len(ordered); i++ {
		if boundary(&ordered[i-1], &ordered[i]) {
			stints = append(stints, s.buildStint(len(stints)+1, cur))
			cur = nil
		}
		cur = append(cur, ordered[i])
	}
	stints = append(stints, s.buildStint(len(stints)+1, cur))
	return stints
}

// explicit stint id takes precedence over compound inference when both
// laps have one
func boundary(prev, cur *model.Lap) bool {
	if prev.Stint != nil && cur.Stint != nil {
		return *prev.Stint != *cur.Stint
	}
	return prev.Compound != cur.Compound
}

func (s *Segmenter) buildStint(number int, laps []model.Lap) model.Stint {
	st := model.Stint{
		Driver:   laps[0].Driver,
		Number:   number,
		Compound: laps[0].Compound,
		StartLap: laps[0].LapNumber,
		EndLap:   laps[len(laps)-1].LapNumber,
		Laps:     laps,
	}
	st.Length = st.EndLap - st.StartLap + 1

	for i := range laps {
		tl := laps[i].TyreLife
		if tl == nil {
			continue
		}
		if st.StartTyreLife == nil || *tl < *st.StartTyreLife {
			v := *tl
			st.StartTyreLife = &v
		}
		if st.EndTyreLife == nil || *tl > *st.EndTyreLife {
			v := *tl
			st.EndTyreLife = &v
		}
	}
	return st
}
