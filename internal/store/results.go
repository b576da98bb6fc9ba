package store

import (
	"fmt"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
	"gorm.io/gorm/clause"
)

// ResultStore owns matchup_results. All writes are upserts on the natural key
// (matchup_id, event_id, round_num), which is what makes repeated pipeline
// runs safe.
type ResultStore struct {
	db *database.DB
}

func NewResultStore(db *database.DB) *ResultStore {
	return &ResultStore{db: db}
}

// Upsert writes results, replacing any existing row with the same key.
// Returns the number of rows written.
func (s *ResultStore) Upsert(results []models.MatchupResult) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "matchup_id"},
			{Name: "event_id"},
			{Name: "round_num"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"winner_id", "winner_name", "win_method", "confidence", "determined_at",
		}),
	}).Create(&results).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert matchup results: %w", err)
	}
	return len(results), nil
}

// Exists reports whether any result row exists for the event round. This is
// the pipeline's idempotence check.
func (s *ResultStore) Exists(eventID string, roundNum int) (bool, error) {
	var count int64
	err := s.db.Model(&models.MatchupResult{}).
		Where("event_id = ? AND round_num = ?", eventID, roundNum).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check results for event %s round %d: %w", eventID, roundNum, err)
	}
	return count > 0, nil
}

// ForRound returns all stored results for an event round
func (s *ResultStore) ForRound(eventID string, roundNum int) ([]models.MatchupResult, error) {
	var results []models.MatchupResult
	err := s.db.Where("event_id = ? AND round_num = ?", eventID, roundNum).
		Order("matchup_id").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results for event %s round %d: %w", eventID, roundNum, err)
	}
	return results, nil
}
