package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlayerRoundSnapshot is one polled observation of a player's state within a
// tournament round. Snapshots are append-only; the most recent CapturedAt per
// player is the authoritative view of that player.
type PlayerRoundSnapshot struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EventID    string    `gorm:"not null;index:idx_snapshot_event_round,priority:1" json:"event_id"`
	RoundNum   int       `gorm:"not null;index:idx_snapshot_event_round,priority:2" json:"round_num"`
	PlayerID   string    `gorm:"not null;index" json:"player_id"`
	PlayerName string    `json:"player_name"`
	HolesThru  int       `gorm:"default:0" json:"holes_thru"`
	// Position is the leaderboard position string ("3", "T5") and may encode
	// a terminal state (CUT, WD, DQ, DNS). Nil when the feed has no position.
	Position   *string   `json:"position"`
	TodayScore *int      `json:"today_score"`
	TotalScore *int      `json:"total_score"`
	CapturedAt time.Time `gorm:"not null;index" json:"captured_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PlayerRoundSnapshot) TableName() string {
	return "player_round_snapshots"
}

func (s *PlayerRoundSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// RoundCompletionStatus is the derived completion view of one event round.
// It is recomputed on demand from the latest snapshot per player and is
// never persisted or cached.
type RoundCompletionStatus struct {
	EventID              string  `json:"event_id"`
	RoundNum             int     `json:"round_num"`
	TotalPlayers         int     `json:"total_players"`
	CompletedPlayers     int     `json:"completed_players"`
	InProgressPlayers    int     `json:"in_progress_players"`
	NotStartedPlayers    int     `json:"not_started_players"`
	CompletionPercentage float64 `json:"completion_percentage"`
	IsComplete           bool    `json:"is_complete"`
	// Estimate for incomplete rounds, based on in-progress players only.
	EstimatedMinutesRemaining int        `json:"estimated_minutes_remaining,omitempty"`
	EstimatedCompletionTime   *time.Time `json:"estimated_completion_time,omitempty"`
}
