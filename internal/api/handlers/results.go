package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/internal/services"
	"github.com/jstittsworth/matchup-tracker/internal/store"
	"github.com/jstittsworth/matchup-tracker/pkg/utils"
)

const resultsCacheTTL = 5 * time.Minute

type ResultsHandler struct {
	processor *services.MatchupResultProcessor
	results   *store.ResultStore
	cache     *services.CacheService
}

func NewResultsHandler(processor *services.MatchupResultProcessor, results *store.ResultStore, cache *services.CacheService) *ResultsHandler {
	return &ResultsHandler{
		processor: processor,
		results:   results,
		cache:     cache,
	}
}

// IngestResults determines and persists winners for one event round on demand.
// The operation is idempotent; re-ingesting replaces existing rows in place.
func (h *ResultsHandler) IngestResults(c *gin.Context) {
	eventID, roundNum, ok := roundParams(c)
	if !ok {
		return
	}

	summary, err := h.processor.IngestEventRoundResults(eventID, roundNum)
	if err != nil {
		utils.SendPipelineError(c, "Result ingestion failed", err.Error())
		return
	}

	_ = h.cache.Delete(c.Request.Context(), services.ResultsCacheKey(eventID, roundNum))
	utils.SendSuccess(c, summary)
}

// GetResults returns the stored results for one event round
func (h *ResultsHandler) GetResults(c *gin.Context) {
	eventID, roundNum, ok := roundParams(c)
	if !ok {
		return
	}

	cacheKey := services.ResultsCacheKey(eventID, roundNum)
	var cached []models.MatchupResult
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
		utils.SendSuccess(c, cached)
		return
	}

	results, err := h.results.ForRound(eventID, roundNum)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch results")
		return
	}
	if len(results) == 0 {
		utils.SendNotFound(c, "No results for this round")
		return
	}

	_ = h.cache.Set(c.Request.Context(), cacheKey, results, resultsCacheTTL)
	utils.SendSuccess(c, results)
}
