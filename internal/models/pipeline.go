package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RoundOutcome is the per-round record of one pipeline run
type RoundOutcome struct {
	EventID   string   `json:"event_id"`
	EventName string   `json:"event_name"`
	RoundNum  int      `json:"round_num"`
	Skipped   bool     `json:"skipped"`
	Processed int      `json:"processed"`
	Saved     int      `json:"saved"`
	Errors    []string `json:"errors,omitempty"`
}

// PipelineRunResult is the structured summary of a single pipeline run.
// A failed run reports Success=false with the error; it never panics out.
type PipelineRunResult struct {
	RunID            uuid.UUID      `json:"run_id"`
	StartedAt        time.Time      `json:"started_at"`
	Duration         time.Duration  `json:"duration"`
	Success          bool           `json:"success"`
	AlreadyRunning   bool           `json:"already_running,omitempty"`
	RoundsChecked    int            `json:"rounds_checked"`
	RoundsCompleted  int            `json:"rounds_completed"`
	RoundsProcessed  int            `json:"rounds_processed"`
	ResultsSaved     int            `json:"results_saved"`
	SnapshotsCreated int            `json:"snapshots_created"`
	PresetsUpdated   int            `json:"presets_updated"`
	Rounds           []RoundOutcome `json:"rounds,omitempty"`
	Errors           []string       `json:"errors,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// PipelineRun is the persisted, append-only record of a run summary so the
// status surface survives restarts.
type PipelineRun struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	StartedAt        time.Time      `gorm:"not null;index" json:"started_at"`
	DurationMs       int64          `json:"duration_ms"`
	Success          bool           `json:"success"`
	RoundsChecked    int            `json:"rounds_checked"`
	RoundsProcessed  int            `json:"rounds_processed"`
	ResultsSaved     int            `json:"results_saved"`
	SnapshotsCreated int            `json:"snapshots_created"`
	PresetsUpdated   int            `json:"presets_updated"`
	Errors           datatypes.JSON `gorm:"type:jsonb" json:"errors"`
	Config           datatypes.JSON `gorm:"type:jsonb" json:"config"`
	CreatedAt        time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

func (r *PipelineRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PipelineStatus is the scheduler's externally visible state
type PipelineStatus struct {
	IsRunning   bool        `json:"is_running"`
	IsEnabled   bool        `json:"is_enabled"`
	LastRunTime *time.Time  `json:"last_run_time,omitempty"`
	NextRunTime *time.Time  `json:"next_run_time,omitempty"`
	Config      interface{} `json:"config"`
}
