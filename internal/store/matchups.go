package store

import (
	"errors"
	"fmt"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
	"gorm.io/gorm"
)

// MatchupStore reads matchups priced by the odds ingestion path
type MatchupStore struct {
	db *database.DB
}

func NewMatchupStore(db *database.DB) *MatchupStore {
	return &MatchupStore{db: db}
}

// ForRound returns all matchups for an event round with participants loaded
func (s *MatchupStore) ForRound(eventID string, roundNum int) ([]models.Matchup, error) {
	var matchups []models.Matchup
	err := s.db.Where("event_id = ? AND round_num = ?", eventID, roundNum).
		Preload("Players").
		Find(&matchups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matchups for event %s round %d: %w", eventID, roundNum, err)
	}
	return matchups, nil
}

// TournamentName resolves an event ID to its display name. Unknown events
// fall back to the raw ID so notification text stays usable.
func (s *MatchupStore) TournamentName(eventID string) (string, error) {
	var tournament models.Tournament
	err := s.db.Select("name").Where("external_id = ?", eventID).First(&tournament).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return eventID, nil
		}
		return "", fmt.Errorf("failed to look up tournament %s: %w", eventID, err)
	}
	return tournament.Name, nil
}
