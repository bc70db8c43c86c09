package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotAvailable signals that an upstream source has no data for the
// requested season/round/session. It is a normal outcome (e.g. no
// sprint this round), not a failure.
var ErrNotAvailable = errors.New("session data not available")

// CompetitorClass selects the championship a standings request refers to.
type CompetitorClass string

const (
	ClassDriver      CompetitorClass = "driver"
	ClassConstructor CompetitorClass = "constructor"
)

// SessionKind identifies a points-scoring session within a round.
type SessionKind string

const (
	SessionRace   SessionKind = "R"
	SessionSprint SessionKind = "S"
)

// ResultRow is one classified competitor of a session as delivered by
// a round-results provider.
type ResultRow struct {
	CompetitorID string         `json:"competitorId"` // driver abbreviation
	DriverName   string         `json:"driverName,omitempty"`
	TeamName     string         `json:"teamName"`
	Position     *int           `json:"position,omitempty"`
	FastestLap   *time.Duration `json:"fastestLap,omitempty"`
}

// StandingsEntry is one ranked row of a championship table.
type StandingsEntry struct {
	Position     int             `json:"position"`
	CompetitorID string          `json:"competitorId"` // driver code or canonical team name
	Name         string          `json:"name"`
	Team         string          `json:"team,omitempty"` // drivers only
	Points       decimal.Decimal `json:"points"`
	Wins         int             `json:"wins"`
}

// Standings is a championship table at a round cutoff. Immutable once
// computed; SkippedRounds lists rounds whose results could not be
// fetched and therefore contributed nothing.
type Standings struct {
	Season        int              `json:"season"`
	Round         int              `json:"round"` // cutoff; 0 = latest known
	Class         CompetitorClass  `json:"class"`
	Entries       []StandingsEntry `json:"entries"`
	SkippedRounds []int            `json:"skippedRounds,omitempty"`
	Source        string           `json:"source"` // e.g. "ergast", "reconstructed"
}
