// Package server provides the `pitwall server` command: the REST
// backend the dashboard frontend talks to.
package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/config"
	"github.com/pitlane-data/pitwall/pkg/ergast"
	"github.com/pitlane-data/pitwall/pkg/ingest"
	"github.com/pitlane-data/pitwall/pkg/model"
	"github.com/pitlane-data/pitwall/pkg/processing"
	"github.com/pitlane-data/pitwall/pkg/processing/standings"
	"github.com/pitlane-data/pitwall/pkg/server"
)

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.HTTPAddr,
		"http-addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.LapsFile,
		"laps",
		"",
		"session lap table (CSV export) to serve analyses for")
	cmd.Flags().StringVar(&config.SessionName,
		"name",
		"",
		"display name of the loaded session")
	cmd.Flags().StringVar(&config.ScoringConfig,
		"scoring",
		"",
		"scoring rules yaml (points tables, team aliases, overrides)")
	cmd.Flags().IntVar(&config.FetchWorkers,
		"fetch-workers",
		4,
		"max parallel round fetches during standings replay")
	cmd.Flags().BoolVar(&config.WatchScoring,
		"watch-scoring",
		false,
		"reload scoring rules when the file changes and drop cached standings")
	return cmd
}

//nolint:funlen // wiring
func startServer() error {
	// local overrides for containerized deployments; absence is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Debug("no .env loaded", log.ErrorField(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	var analysis *model.SessionAnalysis
	if config.LapsFile != "" {
		rows, err := ingest.LoadLapFile(config.LapsFile)
		if err != nil {
			return err
		}
		analysis, err = processing.NewAnalyzer().AnalyzeRaw(config.SessionName, rows)
		if err != nil {
			return err
		}
		log.Info("session loaded",
			log.String("file", config.LapsFile), log.Int("laps", len(analysis.Laps)))
	}

	rules := standings.DefaultScoringRules()
	if config.ScoringConfig != "" {
		var err error
		if rules, err = standings.LoadScoringRules(config.ScoringConfig); err != nil {
			return err
		}
	}
	var currentRules atomic.Pointer[standings.ScoringRules]
	currentRules.Store(rules)

	client, closeStore, err := buildClient()
	if err != nil {
		return err
	}
	defer closeStore()

	// rules are re-read per request so a watcher swap takes effect
	// without rebuilding the source
	compute := func(
		ctx context.Context, season, round int, class model.CompetitorClass,
	) (*model.Standings, error) {
		reconstructor := standings.NewReconstructor(client,
			standings.WithScoringRules(currentRules.Load()),
			standings.WithFetchWorkers(config.FetchWorkers))
		return standings.NewFallbackSource(client, reconstructor, client).
			Compute(ctx, season, round, class)
	}
	cached := standings.NewCachedSource("ergast", compute,
		standings.WithCalendar(client))

	if config.WatchScoring && config.ScoringConfig != "" {
		stopWatch, err := watchScoringRules(ctx, config.ScoringConfig, &currentRules, cached)
		if err != nil {
			return err
		}
		defer stopWatch()
	}

	srv := server.New(
		server.WithAddr(config.HTTPAddr),
		server.WithAnalysis(analysis),
		server.WithStandingsSource(cached),
	)
	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped", log.ErrorField(err))
		return err
	}
	log.Info("Server terminated")
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

// watchScoringRules swaps in freshly parsed rules on file change and
// drops every cached standings table, since they were computed under
// the old rules.
func watchScoringRules(
	ctx context.Context,
	path string,
	rules *atomic.Pointer[standings.ScoringRules],
	cached *standings.CachedSource,
) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// watch the directory: editors replace the file on save
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) ||
					!event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				fresh, err := standings.LoadScoringRules(path)
				if err != nil {
					log.Warn("scoring rules not reloaded", log.ErrorField(err))
					continue
				}
				rules.Store(fresh)
				cached.InvalidateAll(ctx)
				log.Info("scoring rules reloaded", log.String("file", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("scoring rules watcher", log.ErrorField(err))
			}
		}
	}()
	return func() { watcher.Close() }, nil
}
