package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/internal/services"
	"github.com/jstittsworth/matchup-tracker/internal/store"
	"github.com/jstittsworth/matchup-tracker/pkg/utils"
)

const performanceCacheTTL = 10 * time.Minute

type FiltersHandler struct {
	analyzer *services.FilterAnalyzer
	filters  *store.FilterStore
	cache    *services.CacheService
}

func NewFiltersHandler(analyzer *services.FilterAnalyzer, filters *store.FilterStore, cache *services.CacheService) *FiltersHandler {
	return &FiltersHandler{
		analyzer: analyzer,
		filters:  filters,
		cache:    cache,
	}
}

// GetPresets returns the configured filter preset definitions
func (h *FiltersHandler) GetPresets(c *gin.Context) {
	utils.SendSuccess(c, h.analyzer.Presets())
}

// GetPerformance returns every preset's historical aggregate for a period
func (h *FiltersHandler) GetPerformance(c *gin.Context) {
	period := c.DefaultQuery("period", "30d")

	cacheKey := services.FilterPerformanceCacheKey(period)
	var cached []models.FilterHistoricalPerformance
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
		utils.SendSuccess(c, cached)
		return
	}

	records, err := h.filters.HistoricalForPeriod(period)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch filter performance")
		return
	}

	_ = h.cache.Set(c.Request.Context(), cacheKey, records, performanceCacheTTL)
	utils.SendSuccess(c, records)
}

// AnalyzeRound grades every preset against one settled round on demand
func (h *FiltersHandler) AnalyzeRound(c *gin.Context) {
	eventID, roundNum, ok := roundParams(c)
	if !ok {
		return
	}

	created, err := h.analyzer.AnalyzeFilterPerformance(eventID, roundNum)
	if err != nil {
		utils.SendInternalError(c, "Filter analysis failed")
		return
	}
	utils.SendSuccess(c, gin.H{
		"event_id":          eventID,
		"round_num":         roundNum,
		"snapshots_created": created,
	})
}
