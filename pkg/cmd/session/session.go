// Package session provides the CLI for analyzing a single session's
// lap table: stints, degradation, sector comparison and the derived
// classification.
package session

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitlane-data/pitwall/pkg/chart"
	"github.com/pitlane-data/pitwall/pkg/config"
	"github.com/pitlane-data/pitwall/pkg/ingest"
	"github.com/pitlane-data/pitwall/pkg/model"
	"github.com/pitlane-data/pitwall/pkg/processing/laps"
	"github.com/pitlane-data/pitwall/pkg/processing/sector"
	"github.com/pitlane-data/pitwall/pkg/processing/stint"
)

var chartOut string

func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "analyze a session lap table",
	}
	cmd.PersistentFlags().StringVar(&config.LapsFile,
		"laps",
		"",
		"path to the session lap table (CSV export)")
	cmd.PersistentFlags().StringVar(&config.SessionName,
		"name",
		"",
		"display name of the session")
	//nolint:errcheck // flag is registered above
	cmd.MarkPersistentFlagRequired("laps")

	cmd.AddCommand(newStintsCmd())
	cmd.AddCommand(newDegradationCmd())
	cmd.AddCommand(newSectorsCmd())
	cmd.AddCommand(newClassificationCmd())
	return cmd
}

func newStintsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stints [driver]",
		Short: "show tyre stints per driver",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStints(optionalDriver(args))
		},
	}
}

func newDegradationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "degradation [driver]",
		Short: "show per-stint degradation trends",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDegradation(optionalDriver(args))
		},
	}
	cmd.Flags().StringVar(&chartOut, "chart-out", "",
		"write a lap-time/degradation chart to this HTML file")
	return cmd
}

func newSectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "show session sector bests and per-driver comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSectors()
		},
	}
}

func newClassificationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classification",
		Short: "show the classification derived from best lap times",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassification()
		},
	}
}

func optionalDriver(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func loadLaps() ([]model.Lap, error) {
	rows, err := ingest.LoadLapFile(config.LapsFile)
	if err != nil {
		return nil, err
	}
	cleaned, err := laps.NewNormalizer().Normalize(rows)
	if errors.Is(err, laps.ErrUnusableInput) {
		return nil, fmt.Errorf("%s: %w", config.LapsFile, err)
	}
	return cleaned, err
}

func driversOf(all []model.Lap, only string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for i := range all {
		d := all[i].Driver
		if seen[d] || (only != "" && d != only) {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func lapsOf(all []model.Lap, driver string) []model.Lap {
	out := make([]model.Lap, 0)
	for i := range all {
		if all[i].Driver == driver {
			out = append(out, all[i])
		}
	}
	return out
}

func runStints(driver string) error {
	all, err := loadLaps()
	if err != nil {
		return err
	}
	segmenter := stint.NewSegmenter()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DRIVER\tSTINT\tCOMPOUND\tLAPS\tRANGE\tTYRE AGE")
	for _, d := range driversOf(all, driver) {
		for _, st := range segmenter.Segment(lapsOf(all, d)) {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d-%d\t%s\n",
				st.Driver, st.Number, st.Compound, st.Length,
				st.StartLap, st.EndLap, fmtTyreAge(&st))
		}
	}
	return tw.Flush()
}

func runDegradation(driver string) error {
	all, err := loadLaps()
	if err != nil {
		return err
	}
	segmenter := stint.NewSegmenter()
	estimator := stint.NewEstimator()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DRIVER\tSTINT\tCOMPOUND\tLAPS\tTREND (s/lap)\tSAMPLES")
	for _, d := range driversOf(all, driver) {
		withTrends := estimator.EstimateAll(segmenter.Segment(lapsOf(all, d)))
		for i := range withTrends {
			sd := &withTrends[i]
			trend, samples := "n/a", "-"
			if sd.Trend != nil {
				trend = fmt.Sprintf("%+.3f", sd.Trend.SecondsPerLap)
				samples = fmt.Sprintf("%d", sd.Trend.Samples)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\t%s\n",
				sd.Driver, sd.Number, sd.Compound, sd.Length, trend, samples)
		}
		if chartOut != "" && d == firstDriver(all, driver) {
			if err := chart.WriteHTML(chart.DegradationLine(d, withTrends), chartOut); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

func firstDriver(all []model.Lap, only string) string {
	drivers := driversOf(all, only)
	if len(drivers) == 0 {
		return ""
	}
	return drivers[0]
}

func runSectors() error {
	all, err := loadLaps()
	if err != nil {
		return err
	}
	bests := sector.BestSectors(all)
	if bests == nil {
		fmt.Println("no laps with complete sector times")
		return nil
	}

	fmt.Printf("S1 %s (%s, lap %d)  S2 %s (%s, lap %d)  S3 %s (%s, lap %d)\n",
		fmtDuration(bests.Sector1.Time), bests.Sector1.Driver, bests.Sector1.LapNumber,
		fmtDuration(bests.Sector2.Time), bests.Sector2.Driver, bests.Sector2.LapNumber,
		fmtDuration(bests.Sector3.Time), bests.Sector3.Driver, bests.Sector3.LapNumber)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DRIVER\tFASTEST\tS1\tΔ\tS2\tΔ\tS3\tΔ")
	for _, row := range sector.DriverSummaries(all) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%+.3f\t%s\t%+.3f\t%s\t%+.3f\n",
			row.Driver,
			fmtDuration(row.FastestLap.Time),
			fmtDuration(row.Sector1.Time), row.Sector1Delta.Seconds(),
			fmtDuration(row.Sector2.Time), row.Sector2Delta.Seconds(),
			fmtDuration(row.Sector3.Time), row.Sector3Delta.Seconds())
	}
	return tw.Flush()
}

func runClassification() error {
	all, err := loadLaps()
	if err != nil {
		return err
	}
	entries := sector.Classify(all)
	if len(entries) == 0 {
		fmt.Println("no classifiable laps")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tDRIVER\tTEAM\tBEST LAP\tCOMPOUND")
	for i := range entries {
		e := &entries[i]
		best := "no time"
		if e.BestLap != nil {
			best = fmtDuration(*e.BestLap)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Position, e.Driver, e.Team, best, e.Compound)
	}
	return tw.Flush()
}

func fmtDuration(d time.Duration) string {
	mins := int(d / time.Minute)
	secs := d - time.Duration(mins)*time.Minute
	if mins > 0 {
		return fmt.Sprintf("%d:%06.3f", mins, secs.Seconds())
	}
	return fmt.Sprintf("%.3f", secs.Seconds())
}

func fmtTyreAge(st *model.Stint) string {
	if st.StartTyreLife == nil || st.EndTyreLife == nil {
		return "-"
	}
	return fmt.Sprintf("%d-%d", *st.StartTyreLife, *st.EndTyreLife)
}
