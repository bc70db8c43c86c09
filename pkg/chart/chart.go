// Package chart renders derived session and championship data as
// self-contained echarts HTML pages.
package chart

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pitlane-data/pitwall/pkg/model"
)

type Renderer interface {
	Render(w io.Writer) error
}

// StandingsBar builds a bar chart of the championship table, ordered as
// ranked.
func StandingsBar(st *model.Standings) *charts.Bar {
	names := make([]string, 0, len(st.Entries))
	points := make([]opts.BarData, 0, len(st.Entries))
	for i := range st.Entries {
		entry := &st.Entries[i]
		names = append(names, entry.Name)
		points = append(points, opts.BarData{Value: entry.Points.InexactFloat64()})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%d %s standings", st.Season, st.Class),
			Subtitle: fmt.Sprintf("after round %d (source: %s)", st.Round, st.Source),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names)
	bar.AddSeries("points", points)
	return bar
}

// DegradationLine plots lap time over lap number per stint, one series
// each, with the fitted trend in the series name when available.
func DegradationLine(driver string, stints []model.StintDegradation) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s tyre degradation", driver)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "lap"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "lap time (s)", Scale: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	for i := range stints {
		sd := &stints[i]
		name := fmt.Sprintf("stint %d (%s)", sd.Number, sd.Compound)
		if sd.Trend != nil {
			name = fmt.Sprintf("%s %+.3f s/lap", name, sd.Trend.SecondsPerLap)
		}
		data := make([]opts.LineData, 0, len(sd.Laps))
		for j := range sd.Laps {
			l := &sd.Laps[j]
			if l.LapTime == nil {
				continue
			}
			data = append(data, opts.LineData{
				Value: []interface{}{l.LapNumber, l.LapTime.Seconds()},
			})
		}
		line.AddSeries(name, data)
	}
	return line
}

// WriteHTML renders a chart to a standalone HTML file.
func WriteHTML(r Renderer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	return f.Close()
}
