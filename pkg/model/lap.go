package model

import (
	"strings"
	"time"
)

// Compound is the tyre rubber type of a lap.
type Compound string

const (
	CompoundSoft         Compound = "SOFT"
	CompoundMedium       Compound = "MEDIUM"
	CompoundHard         Compound = "HARD"
	CompoundIntermediate Compound = "INTERMEDIATE"
	CompoundWet          Compound = "WET"
	CompoundUnknown      Compound = "UNKNOWN"
)

// ParseCompound normalizes a raw compound string. Unrecognized values
// map to CompoundUnknown, never an error.
func ParseCompound(arg string) Compound {
	switch c := Compound(strings.ToUpper(strings.TrimSpace(arg))); c {
	case CompoundSoft, CompoundMedium, CompoundHard, CompoundIntermediate, CompoundWet:
		return c
	default:
		return CompoundUnknown
	}
}

// Lap is one cleaned timing row for one driver. Optional fields are
// pointers; nil means the upstream data did not provide a value.
type Lap struct {
	Driver      string         `json:"driver"`
	Team        string         `json:"team,omitempty"`
	LapNumber   int            `json:"lapNumber"`
	LapTime     *time.Duration `json:"lapTime,omitempty"`
	Sector1Time *time.Duration `json:"sector1Time,omitempty"`
	Sector2Time *time.Duration `json:"sector2Time,omitempty"`
	Sector3Time *time.Duration `json:"sector3Time,omitempty"`
	Compound    Compound       `json:"compound"`
	Stint       *int           `json:"stint,omitempty"`
	TyreLife    *int           `json:"tyreLife,omitempty"`
	Position    *int           `json:"position,omitempty"`
	Accurate    bool           `json:"accurate"`
}

// Timed reports whether the lap carries a lap time.
func (l *Lap) Timed() bool { return l.LapTime != nil }

// CompleteSectors reports whether lap time and all three sector times
// are present. Only such laps enter sector-best computations.
func (l *Lap) CompleteSectors() bool {
	return l.LapTime != nil && l.Sector1Time != nil &&
		l.Sector2Time != nil && l.Sector3Time != nil
}
