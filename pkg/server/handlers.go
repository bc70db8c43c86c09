package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitlane-data/pitwall/pkg/model"
)

// noData renders the explicit "nothing to show" payload the frontend
// expects instead of an error status.
func noData(c *gin.Context, reason string) {
	c.JSON(http.StatusOK, gin.H{"available": false, "reason": reason})
}

// handleSession returns session metadata.
// GET /api/v1/session
func (s *Server) handleSession(c *gin.Context) {
	if s.analysis == nil {
		noData(c, "no session loaded")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available": true,
		"data": gin.H{
			"name":    s.analysis.Name,
			"drivers": s.analysis.Drivers,
			"laps":    len(s.analysis.Laps),
		},
	})
}

// handleClassification returns the derived qualifying classification.
// GET /api/v1/session/classification
func (s *Server) handleClassification(c *gin.Context) {
	if s.analysis == nil || len(s.analysis.Classification) == 0 {
		noData(c, "no classifiable laps")
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "data": s.analysis.Classification})
}

// handleSectors returns session sector bests plus the per-driver
// comparison rows.
// GET /api/v1/session/sectors
func (s *Server) handleSectors(c *gin.Context) {
	if s.analysis == nil || s.analysis.SectorBests == nil {
		noData(c, "no laps with complete sector times")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available": true,
		"data": gin.H{
			"bests":   s.analysis.SectorBests,
			"drivers": s.analysis.SectorSummaries,
		},
	})
}

// handleStints returns per-driver stints, optionally for one driver.
// GET /api/v1/session/stints?driver=VER
func (s *Server) handleStints(c *gin.Context) {
	if s.analysis == nil {
		noData(c, "no session loaded")
		return
	}
	stints := filterByDriver(s.analysis.Stints, c.Query("driver"))
	if len(stints) == 0 {
		noData(c, "no laps for requested driver")
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "data": stints})
}

// handleDegradation returns stints with fitted degradation trends.
// GET /api/v1/session/degradation?driver=VER
func (s *Server) handleDegradation(c *gin.Context) {
	if s.analysis == nil {
		noData(c, "no session loaded")
		return
	}
	trends := filterByDriver(s.analysis.Degradation, c.Query("driver"))
	if len(trends) == 0 {
		noData(c, "no laps for requested driver")
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "data": trends})
}

// handleStandings returns a championship table.
// GET /api/v1/standings/:class?season=2025&round=10
func (s *Server) handleStandings(c *gin.Context) {
	if s.standings == nil {
		noData(c, "no standings source configured")
		return
	}
	class := model.CompetitorClass(c.Param("class"))
	if class != model.ClassDriver && class != model.ClassConstructor {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class must be driver or constructor"})
		return
	}
	season, err := strconv.Atoi(c.Query("season"))
	if err != nil || season <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid season"})
		return
	}
	round := 0 // latest
	if arg := c.Query("round"); arg != "" {
		if round, err = strconv.Atoi(arg); err != nil || round < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid round"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	standings, err := s.standings.Get(ctx, season, round, class)
	switch {
	case errors.Is(err, model.ErrNotAvailable):
		noData(c, "no standings available for requested cutoff")
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "data": standings})
}

func filterByDriver[T any](data map[string][]T, only string) map[string][]T {
	if only == "" {
		return data
	}
	if rows, ok := data[only]; ok {
		return map[string][]T{only: rows}
	}
	return map[string][]T{}
}
