package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/internal/store"
	"github.com/sirupsen/logrus"
)

// withdrawnPattern matches terminal leaderboard states: cut, withdrawn,
// disqualified, did not start.
var withdrawnPattern = regexp.MustCompile(`^(CUT|WD|DQ|DNS)`)

var numericPosition = regexp.MustCompile(`\d+`)

// CompletionConfig controls how a round is judged complete
type CompletionConfig struct {
	RequiredHoles             int
	MinPlayersRequired        int
	MinCompletionPercentage   float64 // 0-100
	ConsiderWithdrawnComplete bool
	MinutesPerHole            int
	ActiveWindow              time.Duration
}

// DefaultCompletionConfig returns the production defaults
func DefaultCompletionConfig() CompletionConfig {
	return CompletionConfig{
		RequiredHoles:             18,
		MinPlayersRequired:        50,
		MinCompletionPercentage:   80.0,
		ConsiderWithdrawnComplete: true,
		MinutesPerHole:            12,
		ActiveWindow:              72 * time.Hour,
	}
}

// snapshotSource is the slice of the snapshot store the detector needs
type snapshotSource interface {
	LatestForRound(eventID string, roundNum int) ([]models.PlayerRoundSnapshot, error)
	ActiveRounds(since time.Time) ([]store.EventRound, error)
}

// RoundCompletionDetector classifies whether a round has progressed far
// enough to trust its results. Status is always recomputed from the latest
// snapshot per player; nothing is cached between calls.
type RoundCompletionDetector struct {
	snapshots snapshotSource
	cfg       CompletionConfig
	logger    *logrus.Logger
}

func NewRoundCompletionDetector(snapshots snapshotSource, cfg CompletionConfig, logger *logrus.Logger) *RoundCompletionDetector {
	return &RoundCompletionDetector{
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger,
	}
}

// CheckRoundCompletion computes the completion status of one event round.
// A data-access error propagates to the caller.
func (d *RoundCompletionDetector) CheckRoundCompletion(eventID string, roundNum int) (*models.RoundCompletionStatus, error) {
	players, err := d.snapshots.LatestForRound(eventID, roundNum)
	if err != nil {
		return nil, fmt.Errorf("completion check failed for event %s round %d: %w", eventID, roundNum, err)
	}

	status := &models.RoundCompletionStatus{
		EventID:  eventID,
		RoundNum: roundNum,
	}

	remainingHoles := 0
	for _, player := range players {
		switch d.classifyPlayer(player) {
		case playerCompleted:
			status.CompletedPlayers++
		case playerInProgress:
			status.InProgressPlayers++
			remainingHoles += d.cfg.RequiredHoles - player.HolesThru
		default:
			status.NotStartedPlayers++
		}
	}

	status.TotalPlayers = len(players)
	if status.TotalPlayers > 0 {
		status.CompletionPercentage = float64(status.CompletedPlayers) / float64(status.TotalPlayers) * 100
	}
	status.IsComplete = status.TotalPlayers >= d.cfg.MinPlayersRequired &&
		status.CompletionPercentage >= d.cfg.MinCompletionPercentage

	// Estimate remaining time from in-progress players only; players with no
	// holes played yet give no pace signal.
	if !status.IsComplete && status.InProgressPlayers > 0 {
		avgRemaining := float64(remainingHoles) / float64(status.InProgressPlayers)
		minutes := int(math.Round(avgRemaining * float64(d.cfg.MinutesPerHole)))
		eta := time.Now().UTC().Add(time.Duration(minutes) * time.Minute)
		status.EstimatedMinutesRemaining = minutes
		status.EstimatedCompletionTime = &eta
	}

	d.logger.WithFields(logrus.Fields{
		"event_id":   eventID,
		"round_num":  roundNum,
		"total":      status.TotalPlayers,
		"completed":  status.CompletedPlayers,
		"percentage": status.CompletionPercentage,
		"complete":   status.IsComplete,
	}).Debug("Round completion computed")

	return status, nil
}

// CheckAllActiveRounds scans every event/round pair with snapshot activity in
// the trailing window. One round's failure does not abort the scan.
func (d *RoundCompletionDetector) CheckAllActiveRounds() ([]models.RoundCompletionStatus, error) {
	rounds, err := d.snapshots.ActiveRounds(time.Now().UTC().Add(-d.cfg.ActiveWindow))
	if err != nil {
		return nil, fmt.Errorf("active round scan failed: %w", err)
	}

	statuses := make([]models.RoundCompletionStatus, 0, len(rounds))
	for _, round := range rounds {
		status, err := d.CheckRoundCompletion(round.EventID, round.RoundNum)
		if err != nil {
			d.logger.WithError(err).WithFields(logrus.Fields{
				"event_id":  round.EventID,
				"round_num": round.RoundNum,
			}).Error("Skipping round in completion scan")
			continue
		}
		statuses = append(statuses, *status)
	}
	return statuses, nil
}

type playerState int

const (
	playerNotStarted playerState = iota
	playerInProgress
	playerCompleted
)

// classifyPlayer buckets one player's latest snapshot. Completed means the
// player holed out, hit a terminal state (when configured to count), or holds
// a settled non-tied final position with the thru counter already cleared.
func (d *RoundCompletionDetector) classifyPlayer(player models.PlayerRoundSnapshot) playerState {
	if player.HolesThru >= d.cfg.RequiredHoles {
		return playerCompleted
	}

	if player.Position != nil {
		position := strings.ToUpper(strings.TrimSpace(*player.Position))
		if withdrawnPattern.MatchString(position) {
			if d.cfg.ConsiderWithdrawnComplete {
				return playerCompleted
			}
		} else if player.HolesThru == 0 &&
			!strings.HasPrefix(position, "T") &&
			numericPosition.MatchString(position) {
			// Finished and cleared: the feed zeroes the thru counter once a
			// player's final, untied position is posted.
			return playerCompleted
		}
	}

	if player.HolesThru > 0 {
		return playerInProgress
	}
	return playerNotStarted
}
