// Package standings provides the CLI for championship tables.
package standings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/chart"
	"github.com/pitlane-data/pitwall/pkg/config"
	"github.com/pitlane-data/pitwall/pkg/ergast"
	"github.com/pitlane-data/pitwall/pkg/model"
	"github.com/pitlane-data/pitwall/pkg/processing/standings"
)

var (
	season   int
	round    int
	class    string
	chartOut string
)

func NewStandingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "compute championship standings at a round cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStandings(cmd)
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "championship season (e.g. 2025)")
	cmd.Flags().IntVar(&round, "round", 0,
		"round cutoff (0: latest concluded round)")
	cmd.Flags().StringVar(&class, "class", "driver",
		"championship class (driver, constructor)")
	cmd.Flags().StringVar(&config.ScoringConfig, "scoring", "",
		"scoring rules yaml (points tables, team aliases, overrides)")
	cmd.Flags().IntVar(&config.FetchWorkers, "fetch-workers", 4,
		"max parallel round fetches during replay")
	cmd.Flags().StringVar(&chartOut, "chart-out", "",
		"write a standings chart to this HTML file")
	//nolint:errcheck // flag is registered above
	cmd.MarkFlagRequired("season")
	return cmd
}

func runStandings(cmd *cobra.Command) error {
	competitorClass := model.CompetitorClass(class)
	if competitorClass != model.ClassDriver && competitorClass != model.ClassConstructor {
		return fmt.Errorf("unknown class %q (want driver or constructor)", class)
	}

	rules := standings.DefaultScoringRules()
	if config.ScoringConfig != "" {
		var err error
		if rules, err = standings.LoadScoringRules(config.ScoringConfig); err != nil {
			return err
		}
	}

	client, closeStore, err := buildClient()
	if err != nil {
		return err
	}
	defer closeStore()

	reconstructor := standings.NewReconstructor(client,
		standings.WithScoringRules(rules),
		standings.WithFetchWorkers(config.FetchWorkers))
	source := standings.NewFallbackSource(client, reconstructor, client)

	table, err := source.Compute(cmd.Context(), season, round, competitorClass)
	if err != nil {
		return err
	}
	printStandings(table)

	if chartOut != "" {
		return chart.WriteHTML(chart.StandingsBar(table), chartOut)
	}
	return nil
}

// buildClient assembles the API client, with the on-disk response
// cache when a cache dir is configured.
func buildClient() (*ergast.Client, func(), error) {
	opts := []ergast.Option{ergast.WithBaseURL(config.ErgastURL)}
	closeStore := func() {}
	if config.CacheDir != "" {
		if err := os.MkdirAll(config.CacheDir, 0o755); err != nil {
			return nil, nil, err
		}
		store, err := ergast.NewSQLiteStore(filepath.Join(config.CacheDir, "responses.db"))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, ergast.WithResponseStore(store))
		closeStore = func() {
			if err := store.Close(); err != nil {
				log.Warn("closing response store", log.ErrorField(err))
			}
		}
	}
	return ergast.NewClient(opts...), closeStore, nil
}

func printStandings(table *model.Standings) {
	fmt.Printf("%d %s standings after round %d (source: %s)\n",
		table.Season, table.Class, table.Round, table.Source)
	if len(table.SkippedRounds) > 0 {
		fmt.Printf("warning: rounds skipped (results unavailable): %s\n",
			strings.Trim(strings.Join(strings.Fields(fmt.Sprint(table.SkippedRounds)), ", "), "[]"))
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tNAME\tTEAM\tPOINTS\tWINS")
	for i := range table.Entries {
		e := &table.Entries[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n",
			e.Position, e.Name, e.Team, e.Points.String(), e.Wins)
	}
	//nolint:errcheck // stdout
	tw.Flush()
}
