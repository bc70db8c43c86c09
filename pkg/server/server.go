// Package server exposes session analyses and championship standings
// to the dashboard frontend over a REST API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/model"
	"github.com/pitlane-data/pitwall/pkg/processing"
)

// StandingsSource answers standings requests; typically a cached
// ergast-first source with reconstruction fallback.
type StandingsSource interface {
	Get(ctx context.Context, season, round int, class model.CompetitorClass) (*model.Standings, error)
}

type Server struct {
	addr      string
	analysis  *model.SessionAnalysis
	standings StandingsSource
	engine    *gin.Engine
	l         *log.Logger
}

type Option func(*Server)

func WithAddr(arg string) Option {
	return func(s *Server) { s.addr = arg }
}

// WithSession analyzes the lap set once at startup; the session
// endpoints serve the resulting snapshot. Without it they answer
// "no data".
func WithSession(name string, laps []model.Lap) Option {
	return func(s *Server) {
		if len(laps) == 0 {
			return
		}
		s.analysis = processing.NewAnalyzer().Analyze(name, laps)
	}
}

func WithAnalysis(arg *model.SessionAnalysis) Option {
	return func(s *Server) { s.analysis = arg }
}

func WithStandingsSource(arg StandingsSource) Option {
	return func(s *Server) { s.standings = arg }
}

func WithLogger(arg *log.Logger) Option {
	return func(s *Server) { s.l = arg }
}

func New(opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		addr:   "localhost:8080",
		engine: engine,
		l:      log.Default().Named("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is canceled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.l.Info("listening", log.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")
	v1.GET("/session", s.handleSession)
	v1.GET("/session/classification", s.handleClassification)
	v1.GET("/session/sectors", s.handleSectors)
	v1.GET("/session/stints", s.handleStints)
	v1.GET("/session/degradation", s.handleDegradation)
	v1.GET("/standings/:class", s.handleStandings)
}
