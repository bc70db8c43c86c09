package model

// Stint is a contiguous run of laps on one tyre set. Derived fresh from
// the lap set; never persisted.
type Stint struct {
	Driver        string   `json:"driver"`
	Number        int      `json:"number"` // 1-based sequence
	Compound      Compound `json:"compound"`
	StartLap      int      `json:"startLap"` // inclusive
	EndLap        int      `json:"endLap"`   // inclusive
	Length        int      `json:"length"`
	StartTyreLife *int     `json:"startTyreLife,omitempty"` // nil when unknown for the whole stint
	EndTyreLife   *int     `json:"endTyreLife,omitempty"`
	Laps          []Lap    `json:"-"`
}

// DegradationTrend is the per-stint linear fit of lap time over lap
// number. A nil trend means "not computable", which is distinct from a
// flat (zero slope) trend.
type DegradationTrend struct {
	SecondsPerLap float64 `json:"secondsPerLap"` // positive = degrading
	Intercept     float64 `json:"intercept"`
	Samples       int     `json:"samples"`
}

// StintDegradation pairs a stint with its trend for presentation.
type StintDegradation struct {
	Stint
	Trend *DegradationTrend `json:"trend,omitempty"`
}
