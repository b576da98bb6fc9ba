package store

import (
	"fmt"
	"time"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
)

// EventRound identifies one tournament round
type EventRound struct {
	EventID  string `json:"event_id"`
	RoundNum int    `json:"round_num"`
}

// SnapshotStore reads player round snapshots. Snapshots are written by the
// upstream scores feed; this store only collapses and queries them.
type SnapshotStore struct {
	db *database.DB
}

func NewSnapshotStore(db *database.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// LatestForRound returns the most recent snapshot per player for a round.
// Rows come back ordered newest-first and are collapsed in memory; per-round
// snapshot counts are small enough that a window-function query isn't worth
// the portability cost.
func (s *SnapshotStore) LatestForRound(eventID string, roundNum int) ([]models.PlayerRoundSnapshot, error) {
	var rows []models.PlayerRoundSnapshot
	err := s.db.Where("event_id = ? AND round_num = ?", eventID, roundNum).
		Order("captured_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots for event %s round %d: %w", eventID, roundNum, err)
	}

	seen := make(map[string]bool, len(rows))
	latest := make([]models.PlayerRoundSnapshot, 0, len(rows))
	for _, row := range rows {
		if seen[row.PlayerID] {
			continue
		}
		seen[row.PlayerID] = true
		latest = append(latest, row)
	}
	return latest, nil
}

// ActiveRounds returns every event/round pair with at least one snapshot
// captured after the cutoff.
func (s *SnapshotStore) ActiveRounds(since time.Time) ([]EventRound, error) {
	var rounds []EventRound
	err := s.db.Model(&models.PlayerRoundSnapshot{}).
		Distinct("event_id", "round_num").
		Where("captured_at > ?", since).
		Order("event_id, round_num").
		Find(&rounds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan active rounds: %w", err)
	}
	return rounds, nil
}

// Insert appends snapshot rows. Used by the feed ingestion path and seeds;
// existing rows are never mutated.
func (s *SnapshotStore) Insert(snapshots []models.PlayerRoundSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	if err := s.db.Create(&snapshots).Error; err != nil {
		return fmt.Errorf("failed to insert snapshots: %w", err)
	}
	return nil
}
