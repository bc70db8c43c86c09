package standings

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pitlane-data/pitwall/pkg/model"
)

// PointsTable maps a finishing position to the points it scores.
// Positions outside the table score zero.
type PointsTable map[int]decimal.Decimal

// FastestLapRule awards bonus points to the competitor with the single
// fastest race lap, provided they finish within EligiblePosition.
// Sprints never award the bonus.
type FastestLapRule struct {
	Enabled          bool
	Points           decimal.Decimal
	EligiblePosition int
}

// Override forces a competitor's point total at a given round cutoff.
// This replaces hard-coding season-specific totals into the replay when
// the upstream points feed is known to be incomplete.
type Override struct {
	Round        int
	Class        model.CompetitorClass
	CompetitorID string
	Points       decimal.Decimal
}

// ScoringRules bundles everything the reconstructor needs to attribute
// points: per-session tables, the fastest-lap bonus rule, team-name
// canonicalization and manual overrides.
type ScoringRules struct {
	Race        PointsTable
	Sprint      PointsTable
	FastestLap  FastestLapRule
	TeamAliases map[string]string
	Overrides   []Override
}

// DefaultScoringRules returns the current F1 points system with the
// official team-name aliases used by the timing feed.
func DefaultScoringRules() *ScoringRules {
	return &ScoringRules{
		Race: pointsTable(map[int]int64{
			1: 25, 2: 18, 3: 15, 4: 12, 5: 10, 6: 8, 7: 6, 8: 4, 9: 2, 10: 1,
		}),
		Sprint: pointsTable(map[int]int64{
			1: 8, 2: 7, 3: 6, 4: 5, 5: 4, 6: 3, 7: 2, 8: 1,
		}),
		FastestLap: FastestLapRule{
			Enabled:          true,
			Points:           decimal.NewFromInt(1),
			EligiblePosition: 10,
		},
		TeamAliases: map[string]string{
			"Red Bull":         "Red Bull Racing Honda RBPT",
			"RB":               "Racing Bulls Honda RBPT",
			"Visa Cash App RB": "Racing Bulls Honda RBPT",
			"AlphaTauri":       "RB Honda RBPT",
			"Alpine":           "Alpine Renault",
			"Aston Martin":     "Aston Martin Aramco Mercedes",
			"Alfa Romeo":       "Stake F1 Team Kick Sauber",
			"Williams":         "Williams Mercedes",
			"Haas":             "Haas Ferrari",
			"McLaren":          "McLaren Mercedes",
		},
	}
}

func pointsTable(arg map[int]int64) PointsTable {
	t := make(PointsTable, len(arg))
	for pos, pts := range arg {
		t[pos] = decimal.NewFromInt(pts)
	}
	return t
}

// CanonicalTeam maps a raw team name to its canonical key. Names
// without an alias are already canonical.
func (r *ScoringRules) CanonicalTeam(name string) string {
	if canonical, ok := r.TeamAliases[name]; ok {
		return canonical
	}
	return name
}

// overrideFor picks the override with the greatest round not beyond the
// cutoff for the competitor, or nil.
func (r *ScoringRules) overrideFor(
	class model.CompetitorClass, competitorID string, cutoff int,
) *decimal.Decimal {
	var best *Override
	for i := range r.Overrides {
		o := &r.Overrides[i]
		if o.Class != class || o.CompetitorID != competitorID || o.Round > cutoff {
			continue
		}
		if best == nil || o.Round > best.Round {
			best = o
		}
	}
	if best == nil {
		return nil
	}
	return &best.Points
}

type rulesFile struct {
	Race       map[int]float64 `yaml:"race"`
	Sprint     map[int]float64 `yaml:"sprint"`
	FastestLap *struct {
		Enabled          bool    `yaml:"enabled"`
		Points           float64 `yaml:"points"`
		EligiblePosition int     `yaml:"eligible_position"`
	} `yaml:"fastest_lap"`
	TeamAliases map[string]string `yaml:"team_aliases"`
	Overrides   []struct {
		Round      int     `yaml:"round"`
		Class      string  `yaml:"class"`
		Competitor string  `yaml:"competitor"`
		Points     float64 `yaml:"points"`
	} `yaml:"overrides"`
}

// LoadScoringRules reads rules from a yaml file. Sections left out of
// the file keep their defaults.
func LoadScoringRules(path string) (*ScoringRules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing scoring rules %s: %w", path, err)
	}

	rules := DefaultScoringRules()
	if len(file.Race) > 0 {
		rules.Race = floatTable(file.Race)
	}
	if len(file.Sprint) > 0 {
		rules.Sprint = floatTable(file.Sprint)
	}
	if file.FastestLap != nil {
		rules.FastestLap = FastestLapRule{
			Enabled:          file.FastestLap.Enabled,
			Points:           decimal.NewFromFloat(file.FastestLap.Points),
			EligiblePosition: file.FastestLap.EligiblePosition,
		}
	}
	if file.TeamAliases != nil {
		rules.TeamAliases = file.TeamAliases
	}
	for _, o := range file.Overrides {
		class := model.CompetitorClass(o.Class)
		if class != model.ClassDriver && class != model.ClassConstructor {
			return nil, fmt.Errorf("scoring rules %s: unknown class %q", path, o.Class)
		}
		rules.Overrides = append(rules.Overrides, Override{
			Round:        o.Round,
			Class:        class,
			CompetitorID: o.Competitor,
			Points:       decimal.NewFromFloat(o.Points),
		})
	}
	return rules, nil
}

func floatTable(arg map[int]float64) PointsTable {
	t := make(PointsTable, len(arg))
	for pos, pts := range arg {
		t[pos] = decimal.NewFromFloat(pts)
	}
	return t
}
