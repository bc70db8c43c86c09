package stint

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pitlane-data/pitwall/pkg/model"
)

// minimum timed laps for a meaningful fit
const minTrendSamples = 3

type Estimator struct{}

func NewEstimator() *Estimator { return &Estimator{} }

// Estimate fits an ordinary least-squares line of lap time (seconds)
// against lap number for one stint. Returns nil when the stint has
// fewer than three timed laps: "no trend" is not the same as a flat
// trend. Identical lap times yield an exact zero slope.
func (e *Estimator) Estimate(st *model.Stint) *model.DegradationTrend {
	xs := make([]float64, 0, len(st.Laps))
	ys := make([]float64, 0, len(st.Laps))
	for i := range st.Laps {
		if !st.Laps[i].Timed() {
			continue
		}
		xs = append(xs, float64(st.Laps[i].LapNumber))
		ys = append(ys, st.Laps[i].LapTime.Seconds())
	}
	if len(ys) < minTrendSamples {
		return nil
	}

	if allEqual(ys) {
		return &model.DegradationTrend{
			SecondsPerLap: 0,
			Intercept:     ys[0],
			Samples:       len(ys),
		}
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return &model.DegradationTrend{
		SecondsPerLap: beta,
		Intercept:     alpha,
		Samples:       len(ys),
	}
}

// EstimateAll pairs every stint with its trend (nil where not
// computable) in stint order.
func (e *Estimator) EstimateAll(stints []model.Stint) []model.StintDegradation {
	out := make([]model.StintDegradation, 0, len(stints))
	for i := range stints {
		out = append(out, model.StintDegradation{
			Stint: stints[i],
			Trend: e.Estimate(&stints[i]),
		})
	}
	return out
}

func allEqual(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}
