package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/matchup-tracker/internal/api/handlers"
	"github.com/jstittsworth/matchup-tracker/internal/services"
	"github.com/jstittsworth/matchup-tracker/internal/store"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
)

// Services bundles the shared service instances the routes depend on
type Services struct {
	Cache      *services.CacheService
	Detector   *services.RoundCompletionDetector
	Processor  *services.MatchupResultProcessor
	Analyzer   *services.FilterAnalyzer
	Calculator *services.ParlayConfidenceCalculator
	Pipeline   *services.AutomatedPerformancePipeline
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, db *database.DB, svc *Services) {
	snapshotStore := store.NewSnapshotStore(db)
	resultStore := store.NewResultStore(db)
	filterStore := store.NewFilterStore(db)

	roundsHandler := handlers.NewRoundsHandler(snapshotStore, svc.Detector)
	resultsHandler := handlers.NewResultsHandler(svc.Processor, resultStore, svc.Cache)
	parlayHandler := handlers.NewParlayHandler(svc.Calculator)
	filtersHandler := handlers.NewFiltersHandler(svc.Analyzer, filterStore, svc.Cache)
	pipelineHandler := handlers.NewPipelineHandler(svc.Pipeline)

	// Round endpoints
	group.GET("/rounds/active", roundsHandler.ListActiveRounds)
	group.GET("/events/:eventId/rounds/:roundNum/completion", roundsHandler.GetRoundCompletion)
	group.POST("/events/:eventId/rounds/:roundNum/snapshots", roundsHandler.IngestSnapshots)

	// Result endpoints
	group.GET("/events/:eventId/rounds/:roundNum/results", resultsHandler.GetResults)
	group.POST("/events/:eventId/rounds/:roundNum/ingest", resultsHandler.IngestResults)
	group.POST("/events/:eventId/rounds/:roundNum/analyze", filtersHandler.AnalyzeRound)

	// Parlay endpoints
	group.POST("/parlays/confidence", parlayHandler.CalculateConfidence)

	// Filter performance endpoints
	group.GET("/filters/presets", filtersHandler.GetPresets)
	group.GET("/filters/performance", filtersHandler.GetPerformance)

	// Pipeline control endpoints (should be protected behind the deployment's
	// ingress in production)
	group.POST("/pipeline/start", pipelineHandler.Start)
	group.POST("/pipeline/stop", pipelineHandler.Stop)
	group.POST("/pipeline/run", pipelineHandler.RunNow)
	group.GET("/pipeline/status", pipelineHandler.Status)
}
