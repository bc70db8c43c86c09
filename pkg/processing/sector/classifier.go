// Package sector derives session-wide sector bests, per-driver sector
// summaries and a fallback qualifying classification from a lap set.
// Everything here is a pure function of its input.
package sector

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/pitlane-data/pitwall/pkg/model"
)

// BestSectors computes the fastest individual sectors and the fastest
// complete lap over all laps carrying a lap time and all three sector
// times. Returns nil when no lap qualifies ("no data", not zeros).
// Ties go to the first-encountered lap.
func BestSectors(laps []model.Lap) *model.SectorBest {
	eligible := lo.Filter(laps, func(l model.Lap, _ int) bool {
		return l.CompleteSectors()
	})
	if len(eligible) == 0 {
		return nil
	}

	best := &model.SectorBest{}
	for i := range eligible {
		l := &eligible[i]
		challenge(&best.Sector1, l, *l.Sector1Time, i == 0)
		challenge(&best.Sector2, l, *l.Sector2Time, i == 0)
		challenge(&best.Sector3, l, *l.Sector3Time, i == 0)
		challenge(&best.FastestLap, l, *l.LapTime, i == 0)
	}
	return best
}

func challenge(slot *model.BestSector, l *model.Lap, t time.Duration, first bool) {
	if first || t < slot.Time {
		*slot = model.BestSector{Driver: l.Driver, LapNumber: l.LapNumber, Time: t}
	}
}

// DriverSummaries builds the sector comparison table: per driver the
// fastest lap plus per-sector personal bests (each sector may come
// from a different lap) and deltas to the session bests. Only drivers
// with at least one complete-sector lap appear; rows are ordered by
// fastest lap ascending.
func DriverSummaries(laps []model.Lap) []model.DriverSectorSummary {
	session := BestSectors(laps)
	if session == nil {
		return nil
	}

	order := make([]string, 0)
	byDriver := make(map[string][]model.Lap)
	for i := range laps {
		if !laps[i].CompleteSectors() {
			continue
		}
		d := laps[i].Driver
		if _, ok := byDriver[d]; !ok {
			order = append(order, d)
		}
		byDriver[d] = append(byDriver[d], laps[i])
	}

	rows := make([]model.DriverSectorSummary, 0, len(order))
	for _, d := range order {
		dl := byDriver[d]
		row := model.DriverSectorSummary{Driver: d, Team: dl[0].Team}
		for i := range dl {
			l := &dl[i]
			challengeTime(&row.FastestLap, l.LapNumber, *l.LapTime, i == 0)
			challengeTime(&row.Sector1, l.LapNumber, *l.Sector1Time, i == 0)
			challengeTime(&row.Sector2, l.LapNumber, *l.Sector2Time, i == 0)
			challengeTime(&row.Sector3, l.LapNumber, *l.Sector3Time, i == 0)
		}
		row.Sector1Delta = row.Sector1.Time - session.Sector1.Time
		row.Sector2Delta = row.Sector2.Time - session.Sector2.Time
		row.Sector3Delta = row.Sector3.Time - session.Sector3.Time
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].FastestLap.Time < rows[j].FastestLap.Time
	})
	return rows
}

func challengeTime(slot *model.SectorTime, lapNo int, t time.Duration, first bool) {
	if first || t < slot.Time {
		*slot = model.SectorTime{LapNumber: lapNo, Time: t}
	}
}

// Classify derives a ranked classification when no authoritative one is
// available: per driver the minimum lap time over timed laps, sorted
// ascending. Drivers without a timed lap rank last, keeping their
// original encounter order among themselves.
func Classify(laps []model.Lap) []model.ClassificationEntry {
	type acc struct {
		entry   model.ClassificationEntry
		hasTime bool
	}
	order := make([]string, 0)
	byDriver := make(map[string]*acc)

	for i := range laps {
		l := &laps[i]
		a, ok := byDriver[l.Driver]
		if !ok {
			a = &acc{entry: model.ClassificationEntry{Driver: l.Driver, Team: l.Team}}
			byDriver[l.Driver] = a
			order = append(order, l.Driver)
		}
		if a.entry.Team == "" && l.Team != "" {
			a.entry.Team = l.Team
		}
		if !l.Timed() {
			continue
		}
		if !a.hasTime || *l.LapTime < *a.entry.BestLap {
			t := *l.LapTime
			a.entry.BestLap = &t
			a.entry.Compound = l.Compound
			a.hasTime = true
		}
	}

	out := make([]model.ClassificationEntry, 0, len(order))
	timed := make([]string, 0, len(order))
	for _, d := range order {
		if byDriver[d].hasTime {
			timed = append(timed, d)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return *byDriver[timed[i]].entry.BestLap < *byDriver[timed[j]].entry.BestLap
	})
	for _, d := range timed {
		out = append(out, byDriver[d].entry)
	}
	for _, d := range order {
		if !byDriver[d].hasTime {
			out = append(out, byDriver[d].entry)
		}
	}
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}
