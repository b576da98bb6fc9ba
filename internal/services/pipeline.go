package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PipelineConfig controls the automated run cadence and scope
type PipelineConfig struct {
	Enabled                bool             `json:"enabled"`
	CheckInterval          time.Duration    `json:"check_interval"`
	ProcessOnlyNewRounds   bool             `json:"process_only_new_rounds"`
	EnableHistoricalUpdate bool             `json:"enable_historical_update"`
	Historical             HistoricalConfig `json:"historical"`
}

// DefaultPipelineConfig returns the production defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Enabled:                true,
		CheckInterval:          60 * time.Minute,
		ProcessOnlyNewRounds:   true,
		EnableHistoricalUpdate: true,
		Historical:             DefaultHistoricalConfig(),
	}
}

type completionChecker interface {
	CheckAllActiveRounds() ([]models.RoundCompletionStatus, error)
}

type resultIngestor interface {
	IngestEventRoundResults(eventID string, roundNum int) (*IngestSummary, error)
}

type performanceAnalyzer interface {
	AnalyzeFilterPerformance(eventID string, roundNum int) (int, error)
	UpdateHistoricalPerformance(cfg HistoricalConfig) (int, error)
}

type runRecorder interface {
	SaveRun(run *models.PipelineRun) error
	LastRun() (*models.PipelineRun, error)
}

type tournamentNameResolver interface {
	TournamentName(eventID string) (string, error)
}

// AutomatedPerformancePipeline runs the full chain on a schedule: detect
// completed rounds, determine and persist matchup winners, grade the filter
// presets, refresh historical aggregates, notify. At most one run executes at
// a time; an overlapping trigger returns immediately with AlreadyRunning set.
type AutomatedPerformancePipeline struct {
	detector  completionChecker
	processor resultIngestor
	analyzer  performanceAnalyzer
	results   resultSink
	names     tournamentNameResolver
	runs      runRecorder
	notifier  RunNotifier
	cfg       PipelineConfig
	logger    *logrus.Logger

	cron        *cron.Cron
	mu          sync.Mutex
	isScheduled bool
	entryID     cron.EntryID
	runActive   bool
	lastResult  *models.PipelineRunResult
}

func NewAutomatedPerformancePipeline(
	detector completionChecker,
	processor resultIngestor,
	analyzer performanceAnalyzer,
	results resultSink,
	names tournamentNameResolver,
	runs runRecorder,
	notifier RunNotifier,
	cfg PipelineConfig,
	logger *logrus.Logger,
) *AutomatedPerformancePipeline {
	return &AutomatedPerformancePipeline{
		detector:  detector,
		processor: processor,
		analyzer:  analyzer,
		results:   results,
		names:     names,
		runs:      runs,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start schedules the recurring run and kicks off an immediate one
func (p *AutomatedPerformancePipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isScheduled {
		return fmt.Errorf("pipeline is already running")
	}

	schedule := fmt.Sprintf("@every %s", p.cfg.CheckInterval.String())
	entryID, err := p.cron.AddFunc(schedule, func() { p.RunOnce() })
	if err != nil {
		return fmt.Errorf("failed to schedule pipeline: %w", err)
	}
	p.entryID = entryID

	p.cron.Start()
	p.isScheduled = true

	// Run once immediately so a fresh deploy does not wait a full interval
	go p.RunOnce()

	p.logger.WithField("interval", p.cfg.CheckInterval).Info("Performance pipeline started")
	return nil
}

// Stop halts the schedule. An in-flight run finishes on its own.
func (p *AutomatedPerformancePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isScheduled {
		return
	}
	p.cron.Stop()
	// Remove the entry too; a later Start adds a fresh one and must not
	// leave duplicates firing each tick.
	p.cron.Remove(p.entryID)
	p.isScheduled = false
	p.logger.Info("Performance pipeline stopped")
}

// RunOnce executes one full pipeline pass. Per-round failures are collected
// into the result rather than aborting the run; a panic is converted into a
// failed result.
func (p *AutomatedPerformancePipeline) RunOnce() *models.PipelineRunResult {
	result := &models.PipelineRunResult{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}

	p.mu.Lock()
	if p.runActive {
		p.mu.Unlock()
		result.AlreadyRunning = true
		p.logger.Info("Pipeline run skipped, previous run still active")
		return result
	}
	p.runActive = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.runActive = false
		p.lastResult = result
		p.mu.Unlock()
	}()

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("pipeline panic: %v", r)
			result.Duration = time.Since(result.StartedAt)
			p.logger.WithField("panic", r).Error("Pipeline run panicked")
			p.persistRun(result)
		}
	}()

	p.logger.WithField("run_id", result.RunID).Info("Pipeline run started")
	p.execute(result)

	result.Duration = time.Since(result.StartedAt)
	result.Success = result.Error == ""

	p.logger.WithFields(logrus.Fields{
		"run_id":          result.RunID,
		"duration":        result.Duration,
		"success":         result.Success,
		"rounds_checked":  result.RoundsChecked,
		"results_saved":   result.ResultsSaved,
		"presets_updated": result.PresetsUpdated,
	}).Info("Pipeline run finished")

	p.notify(result)
	p.persistRun(result)
	return result
}

func (p *AutomatedPerformancePipeline) execute(result *models.PipelineRunResult) {
	statuses, err := p.detector.CheckAllActiveRounds()
	if err != nil {
		result.Error = fmt.Sprintf("active round scan failed: %v", err)
		return
	}
	result.RoundsChecked = len(statuses)

	for _, status := range statuses {
		if !status.IsComplete {
			continue
		}
		result.RoundsCompleted++
		outcome := p.processRound(status.EventID, status.RoundNum, result)
		result.Rounds = append(result.Rounds, outcome)
	}

	if p.cfg.EnableHistoricalUpdate && result.SnapshotsCreated > 0 {
		updated, err := p.analyzer.UpdateHistoricalPerformance(p.cfg.Historical)
		result.PresetsUpdated = updated
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("historical update: %v", err))
		}
	}
}

// processRound ingests one completed round. Errors are recorded on the round
// outcome and the run, never propagated.
func (p *AutomatedPerformancePipeline) processRound(eventID string, roundNum int, result *models.PipelineRunResult) models.RoundOutcome {
	outcome := models.RoundOutcome{EventID: eventID, EventName: p.tournamentName(eventID), RoundNum: roundNum}
	log := p.logger.WithFields(logrus.Fields{
		"event_id":   eventID,
		"event_name": outcome.EventName,
		"round_num":  roundNum,
	})

	if p.cfg.ProcessOnlyNewRounds {
		exists, err := p.results.Exists(eventID, roundNum)
		if err != nil {
			outcome.Errors = append(outcome.Errors, err.Error())
			result.Errors = append(result.Errors, fmt.Sprintf("round %s/%d: %v", eventID, roundNum, err))
			return outcome
		}
		if exists {
			outcome.Skipped = true
			log.Debug("Round already processed, skipping")
			return outcome
		}
	}

	summary, err := p.processor.IngestEventRoundResults(eventID, roundNum)
	if err != nil {
		outcome.Errors = append(outcome.Errors, err.Error())
		result.Errors = append(result.Errors, fmt.Sprintf("round %s/%d: %v", eventID, roundNum, err))
		log.WithError(err).Error("Round ingestion failed")
		return outcome
	}
	outcome.Processed = summary.Processed
	outcome.Saved = summary.Saved
	outcome.Errors = summary.Errors
	result.RoundsProcessed++
	result.ResultsSaved += summary.Saved

	if summary.Saved > 0 {
		created, err := p.analyzer.AnalyzeFilterPerformance(eventID, roundNum)
		if err != nil {
			outcome.Errors = append(outcome.Errors, err.Error())
			result.Errors = append(result.Errors, fmt.Sprintf("round %s/%d analysis: %v", eventID, roundNum, err))
			log.WithError(err).Error("Filter analysis failed")
		} else {
			result.SnapshotsCreated += created
		}
	}
	return outcome
}

// tournamentName resolves a human-readable name for run summaries and
// notifications, falling back to the raw event id.
func (p *AutomatedPerformancePipeline) tournamentName(eventID string) string {
	if p.names == nil {
		return eventID
	}
	name, err := p.names.TournamentName(eventID)
	if err != nil || name == "" {
		return eventID
	}
	return name
}

// notify is best effort; a notifier failure never fails the run
func (p *AutomatedPerformancePipeline) notify(result *models.PipelineRunResult) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyRunCompleted(result); err != nil {
		p.logger.WithError(err).Warn("Run notification failed")
	}
}

// persistRun is best effort as well
func (p *AutomatedPerformancePipeline) persistRun(result *models.PipelineRunResult) {
	if p.runs == nil {
		return
	}
	errorsJSON, _ := json.Marshal(result.Errors)
	configJSON, _ := json.Marshal(p.cfg)
	run := &models.PipelineRun{
		ID:               result.RunID,
		StartedAt:        result.StartedAt,
		DurationMs:       result.Duration.Milliseconds(),
		Success:          result.Success,
		RoundsChecked:    result.RoundsChecked,
		RoundsProcessed:  result.RoundsProcessed,
		ResultsSaved:     result.ResultsSaved,
		SnapshotsCreated: result.SnapshotsCreated,
		PresetsUpdated:   result.PresetsUpdated,
		Errors:           errorsJSON,
		Config:           configJSON,
	}
	if err := p.runs.SaveRun(run); err != nil {
		p.logger.WithError(err).Error("Failed to persist pipeline run")
	}
}

// Status reports the scheduler's current state
func (p *AutomatedPerformancePipeline) Status() models.PipelineStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := models.PipelineStatus{
		IsRunning: p.runActive,
		IsEnabled: p.isScheduled,
		Config:    p.cfg,
	}
	if p.lastResult != nil {
		t := p.lastResult.StartedAt
		status.LastRunTime = &t
	} else if p.runs != nil {
		if last, err := p.runs.LastRun(); err == nil && last != nil {
			t := last.StartedAt
			status.LastRunTime = &t
		}
	}
	if p.isScheduled {
		if entries := p.cron.Entries(); len(entries) > 0 {
			next := entries[0].Next
			status.NextRunTime = &next
		}
	}
	return status
}
