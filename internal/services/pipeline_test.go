package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/internal/store"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
)

func newTestPipeline(db *database.DB, notifier RunNotifier) *AutomatedPerformancePipeline {
	snapshots := store.NewSnapshotStore(db)
	matchups := store.NewMatchupStore(db)
	results := store.NewResultStore(db)
	filters := store.NewFilterStore(db)

	completionCfg := DefaultCompletionConfig()
	completionCfg.MinPlayersRequired = 2

	detector := NewRoundCompletionDetector(snapshots, completionCfg, testLogger())
	processor := NewMatchupResultProcessor(snapshots, matchups, results, DefaultProcessorConfig(), testLogger())
	analyzer := NewFilterAnalyzer(matchups, results, filters, DefaultPresets(), testLogger())

	return NewAutomatedPerformancePipeline(
		detector, processor, analyzer, results, matchups, filters, notifier,
		DefaultPipelineConfig(), testLogger(),
	)
}

func seedTournament(t *testing.T, db *database.DB, externalID, name string) {
	t.Helper()
	tournament := models.Tournament{
		ID:         uuid.New(),
		ExternalID: externalID,
		Name:       name,
	}
	require.NoError(t, db.Create(&tournament).Error)
}

// seedCompletedRound writes a fully settled two player round with one matchup
// the model strongly leans on.
func seedCompletedRound(t *testing.T, db *database.DB, eventID string) {
	t.Helper()
	seedSnapshot(t, db, eventID, 1, "p1", 18, strPtr("2"), intPtr(-4), intPtr(-4))
	seedSnapshot(t, db, eventID, 1, "p2", 18, strPtr("T15"), intPtr(-1), intPtr(-1))
	seedMatchup(t, db, "m-"+eventID, eventID, 1, models.MatchupTwoPlayer,
		[]string{"p1", "p2"}, [][2]float64{{1.91, 1.55}, {1.91, 2.60}})
}

func TestPipelineRunOnce_EndToEnd(t *testing.T) {
	db := newTestDB(t)
	seedTournament(t, db, "evt", "Test Open")
	seedCompletedRound(t, db, "evt")
	notifier := NewMockNotifier(nil)

	pipeline := newTestPipeline(db, notifier)
	result := pipeline.RunOnce()

	require.True(t, result.Success, "run errors: %v / %s", result.Errors, result.Error)
	assert.False(t, result.AlreadyRunning)
	assert.Equal(t, 1, result.RoundsChecked)
	assert.Equal(t, 1, result.RoundsCompleted)
	assert.Equal(t, 1, result.RoundsProcessed)
	assert.Equal(t, 1, result.ResultsSaved)
	assert.Equal(t, len(DefaultPresets()), result.SnapshotsCreated)
	assert.Equal(t, len(DefaultPresets()), result.PresetsUpdated)

	// Round outcomes carry the tournament's display name
	require.Len(t, result.Rounds, 1)
	assert.Equal(t, "Test Open", result.Rounds[0].EventName)
	assert.Contains(t, summarizeRun(result), "Test Open round 1")

	// The winner landed in the database
	var stored models.MatchupResult
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "p1", stored.WinnerID)

	// The run summary was persisted and the notifier fired
	var runs []models.PipelineRun
	require.NoError(t, db.Find(&runs).Error)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Success)
	assert.Len(t, notifier.Received(), 1)
}

func TestPipelineRunOnce_SecondRunSkipsProcessedRounds(t *testing.T) {
	db := newTestDB(t)
	seedCompletedRound(t, db, "evt")

	pipeline := newTestPipeline(db, nil)

	first := pipeline.RunOnce()
	require.True(t, first.Success)
	require.Equal(t, 1, first.ResultsSaved)

	second := pipeline.RunOnce()
	require.True(t, second.Success)
	assert.Equal(t, 0, second.ResultsSaved)
	assert.Equal(t, 0, second.RoundsProcessed)
	require.Len(t, second.Rounds, 1)
	assert.True(t, second.Rounds[0].Skipped)
	// No tournament row seeded, so the name falls back to the raw event ID
	assert.Equal(t, "evt", second.Rounds[0].EventName)
}

func TestPipelineRunOnce_IncompleteRoundIgnored(t *testing.T) {
	db := newTestDB(t)
	// One of two players still mid-round
	seedSnapshot(t, db, "evt", 1, "p1", 18, strPtr("1"), intPtr(-3), intPtr(-3))
	seedSnapshot(t, db, "evt", 1, "p2", 10, strPtr("T4"), intPtr(0), intPtr(0))

	pipeline := newTestPipeline(db, nil)
	result := pipeline.RunOnce()

	require.True(t, result.Success)
	assert.Equal(t, 1, result.RoundsChecked)
	assert.Equal(t, 0, result.RoundsCompleted)
	assert.Equal(t, 0, result.ResultsSaved)
}

func TestPipelineRunOnce_ReentrancyGuard(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(db, nil)

	pipeline.mu.Lock()
	pipeline.runActive = true
	pipeline.mu.Unlock()

	result := pipeline.RunOnce()
	assert.True(t, result.AlreadyRunning)
	assert.Zero(t, result.RoundsChecked)

	pipeline.mu.Lock()
	pipeline.runActive = false
	pipeline.mu.Unlock()

	result = pipeline.RunOnce()
	assert.False(t, result.AlreadyRunning)
}

func TestPipelineStartStop(t *testing.T) {
	db := newTestDB(t)
	pipeline := newTestPipeline(db, nil)

	require.NoError(t, pipeline.Start())
	assert.Error(t, pipeline.Start(), "double start must fail")

	// Wait for the immediate kick-off run to finish
	require.Eventually(t, func() bool {
		return pipeline.Status().LastRunTime != nil
	}, 5*time.Second, 10*time.Millisecond)

	status := pipeline.Status()
	assert.True(t, status.IsEnabled)
	require.NotNil(t, status.NextRunTime)

	pipeline.Stop()
	status = pipeline.Status()
	assert.False(t, status.IsEnabled)
	assert.Nil(t, status.NextRunTime)
	assert.Empty(t, pipeline.cron.Entries(), "stop must clear the schedule entry")

	// Restarting must not stack a second schedule entry
	require.NoError(t, pipeline.Start())
	assert.Len(t, pipeline.cron.Entries(), 1)
	pipeline.Stop()
}

// failingAnalyzer saves results but creates no performance snapshots
type failingAnalyzer struct{}

func (failingAnalyzer) AnalyzeFilterPerformance(eventID string, roundNum int) (int, error) {
	return 0, fmt.Errorf("analysis unavailable")
}

func (failingAnalyzer) UpdateHistoricalPerformance(cfg HistoricalConfig) (int, error) {
	return len(DefaultPresets()), nil
}

// Historical aggregates derive from performance snapshots, so a run whose
// analysis produced none must leave them untouched even when results saved.
func TestPipelineRunOnce_NoSnapshotsSkipsHistoricalUpdate(t *testing.T) {
	db := newTestDB(t)
	seedCompletedRound(t, db, "evt")

	pipeline := newTestPipeline(db, nil)
	pipeline.analyzer = failingAnalyzer{}

	result := pipeline.RunOnce()

	assert.Equal(t, 1, result.ResultsSaved)
	assert.Equal(t, 0, result.SnapshotsCreated)
	assert.Equal(t, 0, result.PresetsUpdated, "historical update must not run without new snapshots")
	assert.NotEmpty(t, result.Errors)
}
