// Package processing composes the per-concern processors into a full
// session analysis.
package processing

import (
	"github.com/samber/lo"

	"github.com/pitlane-data/pitwall/pkg/ingest"
	"github.com/pitlane-data/pitwall/pkg/model"
	"github.com/pitlane-data/pitwall/pkg/processing/laps"
	"github.com/pitlane-data/pitwall/pkg/processing/sector"
	"github.com/pitlane-data/pitwall/pkg/processing/stint"
)

type Analyzer struct {
	normalizer *laps.Normalizer
	segmenter  *stint.Segmenter
	estimator  *stint.Estimator
}

type AnalyzerOption func(*Analyzer)

func WithNormalizer(arg *laps.Normalizer) AnalyzerOption {
	return func(a *Analyzer) { a.normalizer = arg }
}

func WithSegmenter(arg *stint.Segmenter) AnalyzerOption {
	return func(a *Analyzer) { a.segmenter = arg }
}

func WithEstimator(arg *stint.Estimator) AnalyzerOption {
	return func(a *Analyzer) { a.estimator = arg }
}

func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		normalizer: laps.NewNormalizer(),
		segmenter:  stint.NewSegmenter(),
		estimator:  stint.NewEstimator(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeRaw normalizes raw lap rows and analyzes the result.
func (a *Analyzer) AnalyzeRaw(name string, rows []ingest.RawLap) (*model.SessionAnalysis, error) {
	cleaned, err := a.normalizer.Normalize(rows)
	if err != nil {
		return nil, err
	}
	return a.Analyze(name, cleaned), nil
}

// Analyze derives every per-session output from a cleaned lap set.
// The result is a self-contained snapshot; the input is not retained
// beyond the Laps field.
func (a *Analyzer) Analyze(name string, cleaned []model.Lap) *model.SessionAnalysis {
	drivers := lo.Uniq(lo.Map(cleaned, func(l model.Lap, _ int) string {
		return l.Driver
	}))

	analysis := &model.SessionAnalysis{
		Name:            name,
		Laps:            cleaned,
		Drivers:         drivers,
		Classification:  sector.Classify(cleaned),
		SectorBests:     sector.BestSectors(cleaned),
		SectorSummaries: sector.DriverSummaries(cleaned),
		Stints:          make(map[string][]model.Stint, len(drivers)),
		Degradation:     make(map[string][]model.StintDegradation, len(drivers)),
	}
	for _, driver := range drivers {
		own := lo.Filter(cleaned, func(l model.Lap, _ int) bool {
			return l.Driver == driver
		})
		stints := a.segmenter.Segment(own)
		analysis.Stints[driver] = stints
		analysis.Degradation[driver] = a.estimator.EstimateAll(stints)
	}
	return analysis
}
