package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/sirupsen/logrus"
)

// sentinelRank is the parsed rank for terminal positions (CUT/WD/DQ/DNS) so
// they sort behind every real leaderboard spot.
const sentinelRank = 999

// ProcessorConfig controls winner determination and the persistence gate
type ProcessorConfig struct {
	FallbackToPosition   bool
	AllowLowConfidence   bool
	RequireCompleteRound bool
}

// DefaultProcessorConfig returns the production defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		FallbackToPosition:   true,
		AllowLowConfidence:   false,
		RequireCompleteRound: false,
	}
}

type matchupSource interface {
	ForRound(eventID string, roundNum int) ([]models.Matchup, error)
}

type resultSink interface {
	Upsert(results []models.MatchupResult) (int, error)
	Exists(eventID string, roundNum int) (bool, error)
}

type processorSnapshotSource interface {
	LatestForRound(eventID string, roundNum int) ([]models.PlayerRoundSnapshot, error)
}

// IngestSummary reports one ingestion pass over an event round
type IngestSummary struct {
	EventID   string   `json:"event_id"`
	RoundNum  int      `json:"round_num"`
	Processed int      `json:"processed"`
	Saved     int      `json:"saved"`
	Errors    []string `json:"errors,omitempty"`
}

// MatchupResultProcessor determines matchup winners from round snapshots and
// persists them idempotently. A single matchup's failure never aborts the
// batch.
type MatchupResultProcessor struct {
	snapshots processorSnapshotSource
	matchups  matchupSource
	results   resultSink
	cfg       ProcessorConfig
	logger    *logrus.Logger
}

func NewMatchupResultProcessor(
	snapshots processorSnapshotSource,
	matchups matchupSource,
	results resultSink,
	cfg ProcessorConfig,
	logger *logrus.Logger,
) *MatchupResultProcessor {
	return &MatchupResultProcessor{
		snapshots: snapshots,
		matchups:  matchups,
		results:   results,
		cfg:       cfg,
		logger:    logger,
	}
}

// ProcessEventRoundResults determines a winner for every matchup in the round
// that yields one past the confidence gate. Per-matchup failures come back in
// the error list; only a data-access failure is returned as err.
func (p *MatchupResultProcessor) ProcessEventRoundResults(eventID string, roundNum int) ([]models.MatchupResult, []string, error) {
	snapshots, err := p.snapshots.LatestForRound(eventID, roundNum)
	if err != nil {
		return nil, nil, err
	}
	matchups, err := p.matchups.ForRound(eventID, roundNum)
	if err != nil {
		return nil, nil, err
	}

	byPlayer := make(map[string]models.PlayerRoundSnapshot, len(snapshots))
	for _, snap := range snapshots {
		byPlayer[snap.PlayerID] = snap
	}

	results := make([]models.MatchupResult, 0, len(matchups))
	var itemErrors []string
	for _, matchup := range matchups {
		result, err := p.determineWinner(matchup, byPlayer)
		if err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("matchup %s: %v", matchup.ExternalID, err))
			p.logger.WithError(err).WithField("matchup_id", matchup.ExternalID).
				Warn("Failed to determine matchup winner")
			continue
		}
		if result == nil {
			p.logger.WithField("matchup_id", matchup.ExternalID).
				Info("No determinable winner for matchup")
			continue
		}
		if !p.passesGate(matchup, *result, byPlayer) {
			p.logger.WithFields(logrus.Fields{
				"matchup_id": matchup.ExternalID,
				"confidence": result.Confidence,
				"method":     result.WinMethod,
			}).Info("Result rejected by confidence policy")
			continue
		}
		results = append(results, *result)
	}

	return results, itemErrors, nil
}

// SaveResults upserts results on (matchup_id, event_id, round_num)
func (p *MatchupResultProcessor) SaveResults(results []models.MatchupResult) (int, error) {
	return p.results.Upsert(results)
}

// IngestEventRoundResults processes and saves one round's results
func (p *MatchupResultProcessor) IngestEventRoundResults(eventID string, roundNum int) (*IngestSummary, error) {
	summary := &IngestSummary{EventID: eventID, RoundNum: roundNum}

	results, itemErrors, err := p.ProcessEventRoundResults(eventID, roundNum)
	if err != nil {
		return nil, fmt.Errorf("failed to process event %s round %d: %w", eventID, roundNum, err)
	}
	summary.Processed = len(results)
	summary.Errors = itemErrors

	saved, err := p.SaveResults(results)
	if err != nil {
		return nil, fmt.Errorf("failed to save results for event %s round %d: %w", eventID, roundNum, err)
	}
	summary.Saved = saved

	p.logger.WithFields(logrus.Fields{
		"event_id":  eventID,
		"round_num": roundNum,
		"processed": summary.Processed,
		"saved":     summary.Saved,
		"errors":    len(summary.Errors),
	}).Info("Matchup results ingested")

	return summary, nil
}

// candidate is the output of one classifier tier
type candidate struct {
	winner     models.MatchupPlayer
	method     models.WinMethod
	confidence models.ResultConfidence
}

// determineWinner applies the signal cascade: round score, then leaderboard
// position, then cumulative total score. Each tier is strictly more
// authoritative than the next; the first tier to produce a winner wins.
func (p *MatchupResultProcessor) determineWinner(matchup models.Matchup, snaps map[string]models.PlayerRoundSnapshot) (*models.MatchupResult, error) {
	if len(matchup.Players) < 2 {
		return nil, fmt.Errorf("malformed matchup: %d participants", len(matchup.Players))
	}
	for _, player := range matchup.Players {
		if player.PlayerID == "" {
			return nil, fmt.Errorf("malformed matchup: participant missing player id")
		}
	}

	cand := p.classifyByScore(matchup.Players, snaps)
	if cand == nil {
		cand = p.classifyByPosition(matchup.Players, snaps)
	}
	if cand == nil {
		cand = p.classifyByTotal(matchup.Players, snaps)
	}
	if cand == nil {
		return nil, nil
	}

	return &models.MatchupResult{
		ID:           uuid.New(),
		MatchupID:    matchup.ExternalID,
		EventID:      matchup.EventID,
		RoundNum:     matchup.RoundNum,
		WinnerID:     cand.winner.PlayerID,
		WinnerName:   cand.winner.Name,
		WinMethod:    cand.method,
		Confidence:   cand.confidence,
		DeterminedAt: time.Now().UTC(),
	}, nil
}

// classifyByScore wins on the round's score when every participant has one.
// Ties fall through to the position tier restricted to the tied players,
// unless position fallback is disabled.
func (p *MatchupResultProcessor) classifyByScore(players []models.MatchupPlayer, snaps map[string]models.PlayerRoundSnapshot) *candidate {
	best := 0
	var leaders []models.MatchupPlayer
	for i, player := range players {
		snap, ok := snaps[player.PlayerID]
		if !ok || snap.TodayScore == nil {
			return nil
		}
		score := *snap.TodayScore
		switch {
		case i == 0 || score < best:
			best = score
			leaders = []models.MatchupPlayer{player}
		case score == best:
			leaders = append(leaders, player)
		}
	}

	if len(leaders) == 1 {
		return &candidate{winner: leaders[0], method: models.WinMethodScore, confidence: models.ConfidenceHigh}
	}
	if !p.cfg.FallbackToPosition {
		return nil
	}
	// Break the tie on leaderboard position among the tied players only.
	return p.classifyByPosition(leaders, snaps)
}

// classifyByPosition wins on the lowest parsed leaderboard position among
// participants that have one; needs at least two to compare. Confidence is
// medium for a uniquely held position, low for a shared one.
func (p *MatchupResultProcessor) classifyByPosition(players []models.MatchupPlayer, snaps map[string]models.PlayerRoundSnapshot) *candidate {
	type ranked struct {
		player models.MatchupPlayer
		rank   int
	}
	var ranks []ranked
	for _, player := range players {
		snap, ok := snaps[player.PlayerID]
		if !ok || snap.Position == nil {
			continue
		}
		rank, ok := parsePosition(*snap.Position)
		if !ok {
			continue
		}
		ranks = append(ranks, ranked{player: player, rank: rank})
	}
	if len(ranks) < 2 {
		return nil
	}

	best := ranks[0]
	shared := false
	for _, r := range ranks[1:] {
		if r.rank < best.rank {
			best = r
			shared = false
		} else if r.rank == best.rank {
			shared = true
		}
	}

	confidence := models.ConfidenceMedium
	if shared {
		confidence = models.ConfidenceLow
	}
	return &candidate{winner: best.player, method: models.WinMethodPosition, confidence: confidence}
}

// classifyByTotal is the last resort: cumulative tournament score, only when
// every participant has one and the lowest is uniquely held.
func (p *MatchupResultProcessor) classifyByTotal(players []models.MatchupPlayer, snaps map[string]models.PlayerRoundSnapshot) *candidate {
	best := 0
	var leaders []models.MatchupPlayer
	for i, player := range players {
		snap, ok := snaps[player.PlayerID]
		if !ok || snap.TotalScore == nil {
			return nil
		}
		total := *snap.TotalScore
		switch {
		case i == 0 || total < best:
			best = total
			leaders = []models.MatchupPlayer{player}
		case total == best:
			leaders = append(leaders, player)
		}
	}
	if len(leaders) != 1 {
		return nil
	}
	return &candidate{winner: leaders[0], method: models.WinMethodTotal, confidence: models.ConfidenceLow}
}

// passesGate applies the persistence policy: high always passes, medium only
// via the position method, low only when explicitly allowed. When configured,
// every participant must also have a round score regardless of tier.
func (p *MatchupResultProcessor) passesGate(matchup models.Matchup, result models.MatchupResult, snaps map[string]models.PlayerRoundSnapshot) bool {
	if p.cfg.RequireCompleteRound {
		for _, player := range matchup.Players {
			snap, ok := snaps[player.PlayerID]
			if !ok || snap.TodayScore == nil {
				return false
			}
		}
	}

	switch result.Confidence {
	case models.ConfidenceHigh:
		return true
	case models.ConfidenceMedium:
		return result.WinMethod == models.WinMethodPosition
	default:
		return p.cfg.AllowLowConfidence
	}
}

// parsePosition converts a leaderboard position string to a comparable rank.
// Terminal states map to a sentinel behind the whole field; otherwise the
// first embedded integer is used ("T5" -> 5, "3rd" -> 3).
func parsePosition(position string) (int, bool) {
	cleaned := strings.ToUpper(strings.TrimSpace(position))
	if cleaned == "" {
		return 0, false
	}
	if withdrawnPattern.MatchString(cleaned) {
		return sentinelRank, true
	}
	digits := numericPosition.FindString(cleaned)
	if digits == "" {
		return 0, false
	}
	rank, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return rank, true
}
