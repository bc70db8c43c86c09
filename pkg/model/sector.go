package model

import "time"

// BestSector identifies the lap achieving the minimum time for one
// sector (or for the whole lap).
type BestSector struct {
	Driver    string        `json:"driver"`
	LapNumber int           `json:"lapNumber"`
	Time      time.Duration `json:"time"`
}

// SectorBest holds the session-wide sector bests plus the single
// fastest complete lap. Produced only when at least one lap has all
// three sectors and a lap time.
type SectorBest struct {
	Sector1    BestSector `json:"sector1"`
	Sector2    BestSector `json:"sector2"`
	Sector3    BestSector `json:"sector3"`
	FastestLap BestSector `json:"fastestLap"`
}

// SectorTime is a per-driver sector (or lap) personal best.
type SectorTime struct {
	LapNumber int           `json:"lapNumber"`
	Time      time.Duration `json:"time"`
}

// DriverSectorSummary is one row of the sector comparison table: a
// driver's fastest lap and per-sector bests, with deltas to the
// session bests. Sector bests may come from different laps.
type DriverSectorSummary struct {
	Driver       string        `json:"driver"`
	Team         string        `json:"team,omitempty"`
	FastestLap   SectorTime    `json:"fastestLap"`
	Sector1      SectorTime    `json:"sector1"`
	Sector2      SectorTime    `json:"sector2"`
	Sector3      SectorTime    `json:"sector3"`
	Sector1Delta time.Duration `json:"sector1Delta"`
	Sector2Delta time.Duration `json:"sector2Delta"`
	Sector3Delta time.Duration `json:"sector3Delta"`
}

// ClassificationEntry is one row of a derived session classification.
// BestLap is nil for drivers without a timed lap; those rank last.
type ClassificationEntry struct {
	Position int            `json:"position"`
	Driver   string         `json:"driver"`
	Team     string         `json:"team,omitempty"`
	BestLap  *time.Duration `json:"bestLap,omitempty"`
	Compound Compound       `json:"compound,omitempty"`
}
