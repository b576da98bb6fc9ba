package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/internal/store"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
)

func newProcessor(db *database.DB, cfg ProcessorConfig) *MatchupResultProcessor {
	return NewMatchupResultProcessor(
		store.NewSnapshotStore(db),
		store.NewMatchupStore(db),
		store.NewResultStore(db),
		cfg,
		testLogger(),
	)
}

func TestProcessEventRoundResults_ScoreWinner(t *testing.T) {
	db := newTestDB(t)
	seedSnapshot(t, db, "evt", 1, "p1", 18, strPtr("3"), intPtr(-3), intPtr(-3))
	seedSnapshot(t, db, "evt", 1, "p2", 18, strPtr("T10"), intPtr(-1), intPtr(-1))
	seedMatchup(t, db, "m1", "evt", 1, models.MatchupTwoPlayer, []string{"p1", "p2"}, nil)

	processor := newProcessor(db, DefaultProcessorConfig())
	results, itemErrors, err := processor.ProcessEventRoundResults("evt", 1)
	require.NoError(t, err)
	assert.Empty(t, itemErrors)
	require.Len(t, results, 1)

	assert.Equal(t, "p1", results[0].WinnerID)
	assert.Equal(t, models.WinMethodScore, results[0].WinMethod)
	assert.Equal(t, models.ConfidenceHigh, results[0].Confidence)
}

func TestProcessEventRoundResults_TieBrokenByPosition(t *testing.T) {
	db := newTestDB(t)
	// Same round score; p2 holds the better leaderboard spot
	seedSnapshot(t, db, "evt", 1, "p1", 18, strPtr("T5"), intPtr(-2), intPtr(-4))
	seedSnapshot(t, db, "evt", 1, "p2", 18, strPtr("3"), intPtr(-2), intPtr(-6))
	seedMatchup(t, db, "m1", "evt", 1, models.MatchupTwoPlayer, []string{"p1", "p2"}, nil)

	processor := newProcessor(db, DefaultProcessorConfig())
	results, itemErrors, err := processor.ProcessEventRoundResults("evt", 1)
	require.NoError(t, err)
	assert.Empty(t, itemErrors)
	require.Len(t, results, 1)

	assert.Equal(t, "p2", results[0].WinnerID)
	assert.Equal(t, models.WinMethodPosition, results[0].WinMethod)
	assert.Equal(t, models.ConfidenceMedium, results[0].Confidence)
}

func TestProcessEventRoundResults_TieRestrictedToTiedPlayers(t *testing.T) {
	db := newTestDB(t)
	// p1 and p2 tie on score; p3 scored worse but sits highest on the
	// leaderboard and must not enter the tiebreak.
	seedSnapshot(t, db, "evt", 1, "p1", 18, strPtr("T8"), intPtr(-3), intPtr(-3))
	seedSnapshot(t, db, "evt", 1, "p2", 18, strPtr("4"), intPtr(-3), intPtr(-5))
	seedSnapshot(t, db, "evt", 1, "p3", 18, strPtr("1"), intPtr(-1), intPtr(-9))
	seedMatchup(t, db, "m1", "evt", 1, models.MatchupThreePlayer, []string{"p1", "p2", "p3"}, nil)

	processor := newProcessor(db, DefaultProcessorConfig())
	results, _, err := processor.ProcessEventRoundResults("evt", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "p2", results[0].WinnerID)
	assert.Equal(t, models.WinMethodPosition, results[0].WinMethod)
}

func TestProcessEventRoundResults_TerminalPositionSortsLast(t *testing.T) {
	db := newTestDB(t)
	// p2 was cut, so no round score exists for either tier comparison by
	// score; position should still settle it with p2 behind the field.
	seedSnapshot(t, db, "evt", 1, "p1", 18, strPtr("T40"), intPtr(2), intPtr(5))
	seedSnapshot(t, db, "evt", 1, "p2", 0, strPtr("CUT"), nil, nil)
	seedMatchup(t, db, "m1", "evt", 1, models.MatchupTwoPlayer, []string{"p1", "p2"}, nil)

	processor := newProcessor(db, DefaultProcessorConfig())
	results, _, err := processor.ProcessEventRoundResults("evt", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "p1", results[0].WinnerID)
	assert.Equal(t, models.WinMethodPosition, results[0].WinMethod)
}

func TestProcessEventRoundResults_LowConfidenceGate(t *testing.T) {
	db := newTestDB(t)
	// Scores tie and both share the same position, so the best available
	// signal is low confidence.
	seedSnapshot(t, db, "evt", 1, "p1", 18, strPtr("T5"), intPtr(-2), intPtr(-2))
	seedSnapshot(t, db, "evt", 1, "p2", 18, strPtr("T5"), intPtr(-2), intPtr(-2))
	seedMatchup(t, db, "m1", "evt", 1, models.MatchupTwoPlayer, []string{"p1", "p2"}, nil)

	processor := newProcessor(db, DefaultProcessorConfig())
	results, _, err := processor.ProcessEventRoundResults("evt", 1)
	require.NoError(t, err)
	assert.Empty(t, results, "low confidence results are rejected by default")

	permissive := DefaultProcessorConfig()
	permissive.AllowLowConfidence = true
	processor = newProcessor(db, permissive)
	results, _, err = processor.ProcessEventRoundResults("evt", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.ConfidenceLow, results[0].Confidence)
}

func TestProcessEventRoundResults_NoPositionFallback(t *testing.T) {
	db := newTestDB(t)
	seedSnapshot(t, db, "evt", 1, "p1", 18, strPtr("3"), intPtr(-2), intPtr(-2))
	seedSnapshot(t, db, "evt", 1, "p2", 18, strPtr("T5"), intPtr(-2), intPtr(-2))
	seedMatchup(t, db, "m1", "evt", 1, models.MatchupTwoPlayer, []string{"p1", "p2"}, nil)

	cfg := DefaultProcessorConfig()
	cfg.FallbackToPosition = false
	processor := newProcessor(db, cfg)
	results, _, err := processor.ProcessEventRoundResults("evt", 1)
	require.NoError(t, err)
	assert.Empty(t, results, "a score tie stays unresolved with position fallback disabled")
}

func TestIngestEventRoundResults_Idempotent(t *testing.T) {
	db := newTestDB(t)
	seedSnapshot(t, db, "evt", 1, "p1", 18, strPtr("1"), intPtr(-5), intPtr(-5))
	seedSnapshot(t, db, "evt", 1, "p2", 18, strPtr("9"), intPtr(1), intPtr(1))
	seedMatchup(t, db, "m1", "evt", 1, models.MatchupTwoPlayer, []string{"p1", "p2"}, nil)

	processor := newProcessor(db, DefaultProcessorConfig())

	first, err := processor.IngestEventRoundResults("evt", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Saved)

	second, err := processor.IngestEventRoundResults("evt", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Saved)

	var count int64
	require.NoError(t, db.Model(&models.MatchupResult{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "re-ingestion must replace, not duplicate")
}

func TestProcessEventRoundResults_MalformedMatchupIsolated(t *testing.T) {
	db := newTestDB(t)
	seedSnapshot(t, db, "evt", 1, "p1", 18, strPtr("1"), intPtr(-4), intPtr(-4))
	seedSnapshot(t, db, "evt", 1, "p2", 18, strPtr("2"), intPtr(-2), intPtr(-2))
	seedMatchup(t, db, "m-good", "evt", 1, models.MatchupTwoPlayer, []string{"p1", "p2"}, nil)
	seedMatchup(t, db, "m-bad", "evt", 1, models.MatchupTwoPlayer, []string{"p1"}, nil)

	processor := newProcessor(db, DefaultProcessorConfig())
	results, itemErrors, err := processor.ProcessEventRoundResults("evt", 1)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "m-good", results[0].MatchupID)
	require.Len(t, itemErrors, 1)
	assert.Contains(t, itemErrors[0], "m-bad")
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		input string
		rank  int
		ok    bool
	}{
		{"3", 3, true},
		{"T5", 5, true},
		{"t12", 12, true},
		{" 7 ", 7, true},
		{"CUT", 999, true},
		{"WD", 999, true},
		{"DQ", 999, true},
		{"DNS", 999, true},
		{"", 0, false},
		{"-", 0, false},
	}
	for _, tt := range tests {
		rank, ok := parsePosition(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if ok {
			assert.Equal(t, tt.rank, rank, "input %q", tt.input)
		}
	}
}
