package model

// SessionAnalysis is the composed, immutable result of analyzing one
// session's lap table. Per-driver maps are keyed by driver id; Drivers
// preserves first-appearance order for stable presentation.
type SessionAnalysis struct {
	Name            string                        `json:"name"`
	Laps            []Lap                         `json:"-"`
	Drivers         []string                      `json:"drivers"`
	Classification  []ClassificationEntry         `json:"classification"`
	SectorBests     *SectorBest                   `json:"sectorBests,omitempty"`
	SectorSummaries []DriverSectorSummary         `json:"sectorSummaries,omitempty"`
	Stints          map[string][]Stint            `json:"stints"`
	Degradation     map[string][]StintDegradation `json:"degradation"`
}
