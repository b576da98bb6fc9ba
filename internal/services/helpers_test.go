package services

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
)

// newTestDB opens an isolated in-memory sqlite database with the full schema
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	// A second connection would see an empty in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gormDB.AutoMigrate(
		&models.Tournament{},
		&models.PlayerRoundSnapshot{},
		&models.Matchup{},
		&models.MatchupPlayer{},
		&models.MatchupResult{},
		&models.FilterPerformanceSnapshot{},
		&models.FilterHistoricalPerformance{},
		&models.PipelineRun{},
	))

	return &database.DB{DB: gormDB}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// snapshotFor builds an unsaved snapshot for classifier tests
func snapshotFor(holesThru int, position *string) models.PlayerRoundSnapshot {
	return models.PlayerRoundSnapshot{
		ID:         uuid.New(),
		EventID:    "evt",
		RoundNum:   1,
		PlayerID:   "p",
		HolesThru:  holesThru,
		Position:   position,
		CapturedAt: time.Now().UTC(),
	}
}

// seedSnapshot inserts one player snapshot row
func seedSnapshot(t *testing.T, db *database.DB, eventID string, roundNum int, playerID string, holesThru int, position *string, today, total *int) {
	t.Helper()
	snap := models.PlayerRoundSnapshot{
		ID:         uuid.New(),
		EventID:    eventID,
		RoundNum:   roundNum,
		PlayerID:   playerID,
		PlayerName: playerID,
		HolesThru:  holesThru,
		Position:   position,
		TodayScore: today,
		TotalScore: total,
		CapturedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&snap).Error)
}

// seedMatchup inserts a matchup with its participants. Odds pairs run
// (bookmaker, model) per player ID in order.
func seedMatchup(t *testing.T, db *database.DB, externalID, eventID string, roundNum int, matchupType models.MatchupType, playerIDs []string, odds [][2]float64) {
	t.Helper()
	matchup := models.Matchup{
		ID:         uuid.New(),
		ExternalID: externalID,
		EventID:    eventID,
		RoundNum:   roundNum,
		Type:       matchupType,
	}
	require.NoError(t, db.Create(&matchup).Error)

	for i, playerID := range playerIDs {
		player := models.MatchupPlayer{
			ID:        uuid.New(),
			MatchupID: matchup.ID,
			PlayerID:  playerID,
			Name:      playerID,
		}
		if i < len(odds) {
			player.BookmakerOdds = odds[i][0]
			player.ModelOdds = odds[i][1]
		}
		require.NoError(t, db.Create(&player).Error)
	}
}
