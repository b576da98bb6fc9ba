package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatchupType represents the size of a wagering matchup group
type MatchupType string

const (
	MatchupTwoPlayer   MatchupType = "two_player"
	MatchupThreePlayer MatchupType = "three_player"
)

// Tournament represents a golf tournament whose rounds produce matchups
type Tournament struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ExternalID   string    `gorm:"uniqueIndex;not null" json:"external_id"`
	Name         string    `gorm:"not null" json:"name"`
	StartDate    time.Time `gorm:"index" json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Status       string    `gorm:"type:varchar(50);default:'scheduled'" json:"status"`
	CurrentRound int       `gorm:"default:0" json:"current_round"`
	CourseName   string    `json:"course_name"`
	CoursePar    int       `json:"course_par"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Tournament) TableName() string {
	return "tournaments"
}

func (t *Tournament) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Matchup is a 2- or 3-player wagering group within one tournament round.
// Matchups are written by the odds ingestion path and read-only here.
type Matchup struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	ExternalID string      `gorm:"uniqueIndex;not null" json:"external_id"`
	EventID    string      `gorm:"not null;index:idx_matchup_event_round,priority:1" json:"event_id"`
	RoundNum   int         `gorm:"not null;index:idx_matchup_event_round,priority:2" json:"round_num"`
	Type       MatchupType `gorm:"type:varchar(20);not null" json:"type"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	// Associations
	Players []MatchupPlayer `gorm:"foreignKey:MatchupID" json:"players,omitempty"`
}

// TableName specifies the table name for GORM
func (Matchup) TableName() string {
	return "matchups"
}

func (m *Matchup) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MatchupPlayer is one participant of a matchup with its priced odds.
// Odds are decimal (1.91 = -110 american).
type MatchupPlayer struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MatchupID     uuid.UUID `gorm:"not null;index" json:"matchup_id"`
	PlayerID      string    `gorm:"not null" json:"player_id"`
	Name          string    `json:"name"`
	BookmakerOdds float64   `json:"bookmaker_odds"`
	ModelOdds     float64   `json:"model_odds"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (MatchupPlayer) TableName() string {
	return "matchup_players"
}

func (p *MatchupPlayer) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// WinMethod identifies which signal tier determined a matchup winner
type WinMethod string

const (
	WinMethodScore    WinMethod = "score"
	WinMethodPosition WinMethod = "position"
	WinMethodTotal    WinMethod = "total"
	WinMethodManual   WinMethod = "manual"
)

// ResultConfidence grades how authoritative the winning signal was
type ResultConfidence string

const (
	ConfidenceHigh   ResultConfidence = "high"
	ConfidenceMedium ResultConfidence = "medium"
	ConfidenceLow    ResultConfidence = "low"
)

// MatchupResult records the determined winner of a matchup for one round.
// At most one row exists per (matchup_id, event_id, round_num); writes are
// upserts on that key and rows are never deleted.
type MatchupResult struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	MatchupID    string           `gorm:"not null;uniqueIndex:idx_result_key,priority:1" json:"matchup_id"`
	EventID      string           `gorm:"not null;uniqueIndex:idx_result_key,priority:2" json:"event_id"`
	RoundNum     int              `gorm:"not null;uniqueIndex:idx_result_key,priority:3" json:"round_num"`
	WinnerID     string           `gorm:"not null" json:"winner_id"`
	WinnerName   string           `json:"winner_name"`
	WinMethod    WinMethod        `gorm:"type:varchar(20);not null" json:"win_method"`
	Confidence   ResultConfidence `gorm:"type:varchar(10);not null" json:"confidence"`
	DeterminedAt time.Time        `gorm:"not null" json:"determined_at"`
	CreatedAt    time.Time        `json:"created_at"`
}

// TableName specifies the table name for GORM
func (MatchupResult) TableName() string {
	return "matchup_results"
}

func (r *MatchupResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
