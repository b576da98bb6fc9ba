package services

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/sirupsen/logrus"
)

// FilterPreset is a declarative rule for flagging matchups where the model
// disagrees with the book. Odds are decimal; edge is model implied probability
// minus book implied probability for the model's pick.
type FilterPreset struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	MatchupType models.MatchupType `json:"matchup_type,omitempty"` // empty matches any
	MinEdge     float64            `json:"min_edge"`
	MinBookOdds float64            `json:"min_book_odds,omitempty"` // 0 = no floor
	MaxBookOdds float64            `json:"max_book_odds,omitempty"` // 0 = no cap
}

// DefaultPresets are the filters tracked by the automated pipeline
func DefaultPresets() []FilterPreset {
	return []FilterPreset{
		{
			Name:        "model-edge-3",
			Description: "Any matchup where the model pick carries at least a 3% probability edge",
			MinEdge:     0.03,
		},
		{
			Name:        "model-edge-5",
			Description: "Any matchup where the model pick carries at least a 5% probability edge",
			MinEdge:     0.05,
		},
		{
			Name:        "heavy-favorite",
			Description: "Model-backed picks the book already prices as strong favorites",
			MinEdge:     0.02,
			MaxBookOdds: 1.55,
		},
		{
			Name:        "coin-flip-value",
			Description: "Near even-money matchups where the model sees a meaningful lean",
			MinEdge:     0.04,
			MinBookOdds: 1.80,
			MaxBookOdds: 2.20,
		},
		{
			Name:        "three-ball-value",
			Description: "Three player groups where the model pick clears a 5% edge",
			MatchupType: models.MatchupThreePlayer,
			MinEdge:     0.05,
		},
	}
}

type analyzerResultSource interface {
	ForRound(eventID string, roundNum int) ([]models.MatchupResult, error)
}

type snapshotSink interface {
	AppendSnapshots(snapshots []models.FilterPerformanceSnapshot) error
	RecentSnapshots(preset string, since time.Time) ([]models.FilterPerformanceSnapshot, error)
	UpsertHistorical(record *models.FilterHistoricalPerformance) error
}

// FilterAnalyzer grades each preset against settled matchup results and keeps
// the rolling historical aggregates current.
type FilterAnalyzer struct {
	matchups matchupSource
	results  analyzerResultSource
	store    snapshotSink
	presets  []FilterPreset
	logger   *logrus.Logger
}

func NewFilterAnalyzer(
	matchups matchupSource,
	results analyzerResultSource,
	store snapshotSink,
	presets []FilterPreset,
	logger *logrus.Logger,
) *FilterAnalyzer {
	if len(presets) == 0 {
		presets = DefaultPresets()
	}
	return &FilterAnalyzer{
		matchups: matchups,
		results:  results,
		store:    store,
		presets:  presets,
		logger:   logger,
	}
}

// Presets returns the configured preset definitions
func (a *FilterAnalyzer) Presets() []FilterPreset {
	return a.presets
}

// pick is the model's side of one matchup plus its pricing
type pick struct {
	matchup  models.Matchup
	playerID string
	edge     float64
	bookOdds float64
}

// AnalyzeFilterPerformance grades every preset against one event round's
// settled results and appends a snapshot row per preset. Presets that flag
// nothing still get a zero row so the historical window stays honest about
// how often the filter fires. Returns the number of snapshot rows written.
func (a *FilterAnalyzer) AnalyzeFilterPerformance(eventID string, roundNum int) (int, error) {
	matchups, err := a.matchups.ForRound(eventID, roundNum)
	if err != nil {
		return 0, err
	}
	results, err := a.results.ForRound(eventID, roundNum)
	if err != nil {
		return 0, err
	}
	if len(matchups) == 0 || len(results) == 0 {
		a.logger.WithFields(logrus.Fields{
			"event_id":  eventID,
			"round_num": roundNum,
		}).Info("Nothing to analyze for round")
		return 0, nil
	}

	winners := make(map[string]string, len(results))
	for _, result := range results {
		winners[result.MatchupID] = result.WinnerID
	}

	picks := make([]pick, 0, len(matchups))
	for _, matchup := range matchups {
		if p, ok := modelPick(matchup); ok {
			picks = append(picks, p)
		}
	}

	now := time.Now().UTC()
	snapshots := make([]models.FilterPerformanceSnapshot, 0, len(a.presets))
	for _, preset := range a.presets {
		snapshot := a.gradePreset(preset, picks, winners)
		snapshot.ID = uuid.New()
		snapshot.EventID = eventID
		snapshot.RoundNum = roundNum
		snapshot.AnalyzedAt = now
		snapshots = append(snapshots, snapshot)
	}

	if err := a.store.AppendSnapshots(snapshots); err != nil {
		return 0, err
	}
	return len(snapshots), nil
}

// gradePreset scores one preset's flagged picks against the round's winners
func (a *FilterAnalyzer) gradePreset(preset FilterPreset, picks []pick, winners map[string]string) models.FilterPerformanceSnapshot {
	snapshot := models.FilterPerformanceSnapshot{FilterPreset: preset.Name}

	var edgeSum, unitReturn float64
	for _, p := range picks {
		winnerID, settled := winners[p.matchup.ExternalID]
		if !settled {
			continue
		}
		snapshot.MatchupsAnalyzed++
		if !preset.matches(p) {
			continue
		}
		snapshot.MatchupsFlagged++
		snapshot.FlaggedMatchupIDs = append(snapshot.FlaggedMatchupIDs, p.matchup.ExternalID)
		edgeSum += p.edge
		if winnerID == p.playerID {
			snapshot.FlaggedWins++
			unitReturn += p.bookOdds - 1
		} else {
			unitReturn -= 1
		}
	}

	if snapshot.MatchupsFlagged > 0 {
		flagged := float64(snapshot.MatchupsFlagged)
		snapshot.WinRate = float64(snapshot.FlaggedWins) / flagged
		snapshot.Edge = edgeSum / flagged
		snapshot.ROI = unitReturn / flagged
	}
	return snapshot
}

func (p FilterPreset) matches(candidate pick) bool {
	if p.MatchupType != "" && candidate.matchup.Type != p.MatchupType {
		return false
	}
	if candidate.edge < p.MinEdge {
		return false
	}
	if p.MinBookOdds > 0 && candidate.bookOdds < p.MinBookOdds {
		return false
	}
	if p.MaxBookOdds > 0 && candidate.bookOdds > p.MaxBookOdds {
		return false
	}
	return true
}

// modelPick finds the participant the model favors most relative to the book.
// Matchups with missing or non-positive odds are skipped.
func modelPick(matchup models.Matchup) (pick, bool) {
	best := pick{matchup: matchup}
	found := false
	for _, player := range matchup.Players {
		if player.BookmakerOdds <= 1 || player.ModelOdds <= 1 {
			continue
		}
		edge := 1/player.ModelOdds - 1/player.BookmakerOdds
		if !found || edge > best.edge {
			best.playerID = player.PlayerID
			best.edge = edge
			best.bookOdds = player.BookmakerOdds
			found = true
		}
	}
	return best, found
}

// HistoricalConfig tunes the rolling aggregate math
type HistoricalConfig struct {
	Window          time.Duration
	Period          string  // label for the aggregate row, e.g. "30d"
	SampleWeight    float64 // weight on sample size in the confidence blend
	FullSampleSize  int     // flagged count at which the sample term saturates
	TrendWindowSize int     // snapshots per side of the trend comparison
	TrendThreshold  float64 // minimum edge delta to call a trend
}

// DefaultHistoricalConfig returns the production aggregate settings
func DefaultHistoricalConfig() HistoricalConfig {
	return HistoricalConfig{
		Window:          30 * 24 * time.Hour,
		Period:          "30d",
		SampleWeight:    0.7,
		FullSampleSize:  100,
		TrendWindowSize: 10,
		TrendThreshold:  0.02,
	}
}

// UpdateHistoricalPerformance recomputes every preset's rolling aggregate from
// the snapshot window and upserts the live rows. Returns the number of presets
// updated.
func (a *FilterAnalyzer) UpdateHistoricalPerformance(cfg HistoricalConfig) (int, error) {
	since := time.Now().UTC().Add(-cfg.Window)
	updated := 0
	for _, preset := range a.presets {
		snapshots, err := a.store.RecentSnapshots(preset.Name, since)
		if err != nil {
			return updated, fmt.Errorf("historical update failed for preset %s: %w", preset.Name, err)
		}
		record := aggregate(preset.Name, snapshots, cfg)
		if err := a.store.UpsertHistorical(record); err != nil {
			return updated, fmt.Errorf("historical update failed for preset %s: %w", preset.Name, err)
		}
		updated++
	}
	a.logger.WithFields(logrus.Fields{
		"presets": updated,
		"period":  cfg.Period,
	}).Info("Historical filter performance updated")
	return updated, nil
}

// aggregate folds a preset's snapshot window into the live historical row.
// Snapshots must arrive oldest first; the trend compares the window's two ends.
func aggregate(preset string, snapshots []models.FilterPerformanceSnapshot, cfg HistoricalConfig) *models.FilterHistoricalPerformance {
	record := &models.FilterHistoricalPerformance{
		ID:             uuid.New(),
		FilterPreset:   preset,
		AnalysisPeriod: cfg.Period,
		TotalSnapshots: len(snapshots),
		TrendDirection: models.TrendStable,
	}

	var edgeSum float64
	var edges []float64
	for _, snap := range snapshots {
		record.TotalFlagged += snap.MatchupsFlagged
		record.TotalWins += snap.FlaggedWins
		if snap.MatchupsFlagged > 0 {
			edgeSum += snap.Edge * float64(snap.MatchupsFlagged)
			edges = append(edges, snap.Edge)
		}
	}

	if record.TotalFlagged > 0 {
		record.OverallWinRate = float64(record.TotalWins) / float64(record.TotalFlagged)
		record.OverallEdge = edgeSum / float64(record.TotalFlagged)
	}

	// Confidence blends sample size with edge consistency: a filter that rarely
	// fires or whose edge swings wildly scores low even with a good win rate.
	sampleScore := math.Min(1, float64(record.TotalFlagged)/float64(cfg.FullSampleSize))
	consistency := 1 - math.Min(1, stdev(edges))
	record.ConsistencyScore = consistency
	record.ConfidenceScore = cfg.SampleWeight*sampleScore + (1-cfg.SampleWeight)*consistency

	if len(edges) >= 2*cfg.TrendWindowSize {
		oldest := mean(edges[:cfg.TrendWindowSize])
		newest := mean(edges[len(edges)-cfg.TrendWindowSize:])
		switch {
		case newest-oldest > cfg.TrendThreshold:
			record.TrendDirection = models.TrendImproving
		case oldest-newest > cfg.TrendThreshold:
			record.TrendDirection = models.TrendDeclining
		}
	}
	return record
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
