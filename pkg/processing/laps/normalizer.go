// Package laps turns raw lap records into cleaned model.Lap entities.
// Individual malformed fields degrade to "absent" values; a row is only
// dropped when it has no driver identifier at all.
package laps

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/ingest"
	"github.com/pitlane-data/pitwall/pkg/model"
)

// ErrUnusableInput marks a structurally unusable lap table: none of the
// records carries a driver column. Malformed individual rows never
// trigger it.
var ErrUnusableInput = errors.New("lap table contains no driver records")

type Normalizer struct {
	l *log.Logger
}

type NormalizerOption func(*Normalizer)

func WithLogger(arg *log.Logger) NormalizerOption {
	return func(n *Normalizer) { n.l = arg }
}

func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{l: log.Default().Named("laps")}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize cleans raw lap rows. Rows without a driver id are dropped;
// everything else is kept with unparseable fields mapped to absent
// values. Negative lap times are treated as unparseable.
func (n *Normalizer) Normalize(rows []ingest.RawLap) ([]model.Lap, error) {
	if len(rows) > 0 && !anyHasDriver(rows) {
		return nil, ErrUnusableInput
	}

	out := make([]model.Lap, 0, len(rows))
	dropped := 0
	for i := range rows {
		row := rows[i]
		driver := strings.TrimSpace(row["Driver"])
		if driver == "" {
			dropped++
			continue
		}
		lap := model.Lap{
			Driver:      driver,
			Team:        strings.TrimSpace(row["Team"]),
			LapNumber:   parseInt(row["LapNumber"], 0),
			LapTime:     ParseDuration(row["LapTime"]),
			Sector1Time: ParseDuration(row["Sector1Time"]),
			Sector2Time: ParseDuration(row["Sector2Time"]),
			Sector3Time: ParseDuration(row["Sector3Time"]),
			Compound:    model.ParseCompound(row["Compound"]),
			Stint:       parseOptInt(row["Stint"]),
			TyreLife:    parseOptInt(row["TyreLife"]),
			Position:    parseOptInt(row["Position"]),
			Accurate:    parseBool(row["IsAccurate"]),
		}
		out = append(out, lap)
	}
	if dropped > 0 {
		n.l.Debug("dropped rows without driver id", log.Int("count", dropped))
	}
	return out, nil
}

func anyHasDriver(rows []ingest.RawLap) bool {
	for i := range rows {
		if _, ok := rows[i]["Driver"]; ok {
			return true
		}
	}
	return false
}

// pandas timedelta repr: "0 days 00:01:30.500000"
var pandasTimedelta = regexp.MustCompile(
	`^(?:(\d+) days? )?(\d{1,2}):(\d{2}):(\d{2}(?:\.\d+)?)$`)

// ParseDuration coerces a raw timing cell to a duration. Supported
// renderings: plain seconds ("90.5"), minutes:seconds ("1:30.500"),
// and pandas timedelta ("0 days 00:01:30.500000"). Anything else,
// including NaT/nan and negative values, yields nil.
//
//nolint:cyclop // plain cascade over the known renderings
func ParseDuration(raw string) *time.Duration {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "nat", "nan", "none":
		return nil
	}

	if m := pandasTimedelta.FindStringSubmatch(s); m != nil {
		days, _ := strconv.Atoi(zeroIfEmpty(m[1]))
		hours, _ := strconv.Atoi(m[2])
		mins, _ := strconv.Atoi(m[3])
		secs, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return nil
		}
		total := float64(days*86400+hours*3600+mins*60) + secs
		return durationPtr(total)
	}

	if idx := strings.Index(s, ":"); idx > 0 {
		mins, err1 := strconv.Atoi(s[:idx])
		secs, err2 := strconv.ParseFloat(s[idx+1:], 64)
		if err1 != nil || err2 != nil || mins < 0 || secs < 0 {
			return nil
		}
		return durationPtr(float64(mins*60) + secs)
	}

	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return durationPtr(secs)
}

func durationPtr(seconds float64) *time.Duration {
	if seconds < 0 {
		return nil
	}
	d := time.Duration(seconds * float64(time.Second))
	return &d
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func parseInt(raw string, def int) int {
	if v := parseOptInt(raw); v != nil {
		return *v
	}
	return def
}

func parseOptInt(raw string) *int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	// fastf1 exports numeric columns as floats ("3.0")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
