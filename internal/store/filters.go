package store

import (
	"fmt"
	"time"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/pkg/database"
	"gorm.io/gorm/clause"
)

// FilterStore owns filter performance snapshots (append-only) and the rolling
// historical aggregates (upserted per preset/period).
type FilterStore struct {
	db *database.DB
}

func NewFilterStore(db *database.DB) *FilterStore {
	return &FilterStore{db: db}
}

// AppendSnapshots inserts one analysis run's snapshot rows
func (s *FilterStore) AppendSnapshots(snapshots []models.FilterPerformanceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	if err := s.db.Create(&snapshots).Error; err != nil {
		return fmt.Errorf("failed to append filter snapshots: %w", err)
	}
	return nil
}

// RecentSnapshots returns a preset's snapshots since the cutoff, oldest first.
// The ascending order is what the trend classifier relies on.
func (s *FilterStore) RecentSnapshots(preset string, since time.Time) ([]models.FilterPerformanceSnapshot, error) {
	var snapshots []models.FilterPerformanceSnapshot
	err := s.db.Where("filter_preset = ? AND analyzed_at > ?", preset, since).
		Order("analyzed_at ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots for preset %s: %w", preset, err)
	}
	return snapshots, nil
}

// UpsertHistorical writes the rolling aggregate, replacing the live row for
// the same (preset, period).
func (s *FilterStore) UpsertHistorical(record *models.FilterHistoricalPerformance) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "filter_preset"},
			{Name: "analysis_period"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_snapshots", "total_flagged", "total_wins",
			"overall_win_rate", "overall_edge",
			"confidence_score", "consistency_score", "trend_direction",
			"updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert historical performance for %s: %w", record.FilterPreset, err)
	}
	return nil
}

// HistoricalForPeriod returns every preset's live aggregate for a period
func (s *FilterStore) HistoricalForPeriod(period string) ([]models.FilterHistoricalPerformance, error) {
	var records []models.FilterHistoricalPerformance
	err := s.db.Where("analysis_period = ?", period).
		Order("filter_preset").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical performance: %w", err)
	}
	return records, nil
}

// SaveRun appends a pipeline run summary row
func (s *FilterStore) SaveRun(run *models.PipelineRun) error {
	if err := s.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to save pipeline run: %w", err)
	}
	return nil
}

// LastRun returns the most recent pipeline run summary, or nil when none exist
func (s *FilterStore) LastRun() (*models.PipelineRun, error) {
	var runs []models.PipelineRun
	err := s.db.Order("started_at DESC").Limit(1).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last pipeline run: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}
