package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// TrendDirection classifies the recent movement of a filter's edge
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// FilterPerformanceSnapshot captures one filter preset's hit rate for a single
// analysis run. Rows are append-only; the historical aggregator reads a
// trailing window of them.
type FilterPerformanceSnapshot struct {
	ID                uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	FilterPreset      string         `gorm:"not null;index:idx_filter_preset_time,priority:1" json:"filter_preset"`
	EventID           string         `gorm:"not null" json:"event_id"`
	RoundNum          int            `gorm:"not null" json:"round_num"`
	MatchupsAnalyzed  int            `gorm:"default:0" json:"matchups_analyzed"`
	MatchupsFlagged   int            `gorm:"default:0" json:"matchups_flagged"`
	FlaggedWins       int            `gorm:"default:0" json:"flagged_wins"`
	WinRate           float64        `json:"win_rate"`
	Edge              float64        `json:"edge"`
	ROI               float64        `json:"roi"`
	FlaggedMatchupIDs pq.StringArray `gorm:"type:text[]" json:"flagged_matchup_ids"`
	AnalyzedAt        time.Time      `gorm:"not null;index:idx_filter_preset_time,priority:2" json:"analyzed_at"`
	CreatedAt         time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (FilterPerformanceSnapshot) TableName() string {
	return "filter_performance_snapshots"
}

func (s *FilterPerformanceSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// FilterHistoricalPerformance holds the rolling aggregate for one preset over
// one analysis period. Upserted on (filter_preset, analysis_period); later
// pipeline runs supersede earlier rows.
type FilterHistoricalPerformance struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	FilterPreset     string         `gorm:"not null;uniqueIndex:idx_historical_key,priority:1" json:"filter_preset"`
	AnalysisPeriod   string         `gorm:"not null;uniqueIndex:idx_historical_key,priority:2" json:"analysis_period"`
	TotalSnapshots   int            `gorm:"default:0" json:"total_snapshots"`
	TotalFlagged     int            `gorm:"default:0" json:"total_flagged"`
	TotalWins        int            `gorm:"default:0" json:"total_wins"`
	OverallWinRate   float64        `json:"overall_win_rate"`
	OverallEdge      float64        `json:"overall_edge"`
	ConfidenceScore  float64        `json:"confidence_score"`
	ConsistencyScore float64        `json:"consistency_score"`
	TrendDirection   TrendDirection `gorm:"type:varchar(20);default:'stable'" json:"trend_direction"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (FilterHistoricalPerformance) TableName() string {
	return "filter_historical_performance"
}

func (h *FilterHistoricalPerformance) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
