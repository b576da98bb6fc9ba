package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/pkg/config"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	// Auto migrate all models
	if err := db.AutoMigrate(
		&models.Tournament{},
		&models.PlayerRoundSnapshot{},
		&models.Matchup{},
		&models.MatchupPlayer{},
		&models.MatchupResult{},
		&models.FilterPerformanceSnapshot{},
		&models.FilterHistoricalPerformance{},
		&models.PipelineRun{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Create indexes
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_snapshots_player_captured ON player_round_snapshots(player_id, captured_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_results_determined_at ON matchup_results(determined_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_filter_snapshots_event ON filter_performance_snapshots(event_id, round_num)",
		"CREATE INDEX IF NOT EXISTS idx_pipeline_runs_success ON pipeline_runs(success, started_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Drop tables in reverse order to handle foreign key constraints
	tables := []string{
		"pipeline_runs",
		"filter_historical_performance",
		"filter_performance_snapshots",
		"matchup_results",
		"matchup_players",
		"matchups",
		"player_round_snapshots",
		"tournaments",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

func seedData(db *database.DB) error {
	now := time.Now().UTC()

	tournament := &models.Tournament{
		ID:           uuid.New(),
		ExternalID:   "pga-classic-2026",
		Name:         "Sample PGA Classic",
		StartDate:    now.AddDate(0, 0, -1),
		EndDate:      now.AddDate(0, 0, 3),
		Status:       "in_progress",
		CurrentRound: 1,
		CourseName:   "Sample National",
		CoursePar:    72,
	}
	if err := db.Create(tournament).Error; err != nil {
		return fmt.Errorf("failed to seed tournament: %w", err)
	}

	// Two settled players and one mid-round, enough to exercise the
	// completion and result endpoints locally
	pos1, pos2, pos3 := "1", "T2", "T2"
	s1, s2, s3 := -4, -2, -1
	t1, t2, t3 := -4, -2, -1
	snapshots := []models.PlayerRoundSnapshot{
		{ID: uuid.New(), EventID: tournament.ExternalID, RoundNum: 1, PlayerID: "p1", PlayerName: "Player One", HolesThru: 18, Position: &pos1, TodayScore: &s1, TotalScore: &t1, CapturedAt: now},
		{ID: uuid.New(), EventID: tournament.ExternalID, RoundNum: 1, PlayerID: "p2", PlayerName: "Player Two", HolesThru: 18, Position: &pos2, TodayScore: &s2, TotalScore: &t2, CapturedAt: now},
		{ID: uuid.New(), EventID: tournament.ExternalID, RoundNum: 1, PlayerID: "p3", PlayerName: "Player Three", HolesThru: 14, Position: &pos3, TodayScore: &s3, TotalScore: &t3, CapturedAt: now},
	}
	if err := db.Create(&snapshots).Error; err != nil {
		return fmt.Errorf("failed to seed snapshots: %w", err)
	}

	matchup := &models.Matchup{
		ID:         uuid.New(),
		ExternalID: "m-seed-1",
		EventID:    tournament.ExternalID,
		RoundNum:   1,
		Type:       models.MatchupTwoPlayer,
	}
	if err := db.Create(matchup).Error; err != nil {
		return fmt.Errorf("failed to seed matchup: %w", err)
	}

	players := []models.MatchupPlayer{
		{ID: uuid.New(), MatchupID: matchup.ID, PlayerID: "p1", Name: "Player One", BookmakerOdds: 1.83, ModelOdds: 1.65},
		{ID: uuid.New(), MatchupID: matchup.ID, PlayerID: "p2", Name: "Player Two", BookmakerOdds: 1.98, ModelOdds: 2.25},
	}
	if err := db.Create(&players).Error; err != nil {
		return fmt.Errorf("failed to seed matchup players: %w", err)
	}

	return nil
}
