package services

import (
	"fmt"
	"time"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/sirupsen/logrus"
)

// holeBuckets are the remaining-hole columns of the confidence table, most
// holes first. A pick maps to the largest bucket its remaining holes reach.
var holeBuckets = []int{18, 9, 3}

// confidenceTable maps (score differential, remaining-hole bucket) to a win
// probability percentage for the picked player. Differential is pick score
// minus best opponent score, so negative means leading. Rows run -4..+4;
// values outside clamp to the edge rows. The same lead is worth more the
// fewer holes remain.
var confidenceTable = map[int]map[int]float64{
	-4: {18: 80, 9: 90, 3: 97},
	-3: {18: 72, 9: 85, 3: 94},
	-2: {18: 65, 9: 80, 3: 90},
	-1: {18: 57, 9: 68, 3: 80},
	0:  {18: 50, 9: 50, 3: 50},
	1:  {18: 43, 9: 32, 3: 20},
	2:  {18: 35, 9: 20, 3: 10},
	3:  {18: 28, 9: 15, 3: 6},
	4:  {18: 20, 9: 10, 3: 3},
}

const (
	// Fallback probabilities when remaining holes are unknown (zero while the
	// matchup is clearly still live).
	fallbackLeading  = 60
	fallbackTrailing = 30
	fallbackTied     = 50

	// A pick whose every opponent withdrew is near certain but the book can
	// still void the market.
	allOpponentsWithdrawnConfidence = 95

	// Picks below this probability get called out as risk factors.
	riskThreshold = 30
)

// ParlayConfidenceCalculator computes live win probability for parlays built
// from round matchups. It is pure computation over caller-supplied state;
// nothing is persisted.
type ParlayConfidenceCalculator struct {
	requiredHoles int
	logger        *logrus.Logger
}

func NewParlayConfidenceCalculator(requiredHoles int, logger *logrus.Logger) *ParlayConfidenceCalculator {
	if requiredHoles <= 0 {
		requiredHoles = 18
	}
	return &ParlayConfidenceCalculator{requiredHoles: requiredHoles, logger: logger}
}

// CalculateParlayConfidence evaluates every pick and combines them. The
// overall probability is the product of the active picks; settled wins,
// pushes and voids contribute certainty rather than multiplying it down.
// A single lost pick zeroes the parlay.
func (c *ParlayConfidenceCalculator) CalculateParlayConfidence(parlay models.Parlay) (*models.ParlayConfidence, error) {
	if len(parlay.Picks) == 0 {
		return nil, fmt.Errorf("parlay %s has no picks", parlay.ID)
	}

	result := &models.ParlayConfidence{
		ParlayID:     parlay.ID,
		IsAlive:      true,
		CalculatedAt: time.Now().UTC(),
	}

	overall := 100.0
	for _, parlayPick := range parlay.Picks {
		pickConf, err := c.evaluatePick(parlayPick)
		if err != nil {
			return nil, fmt.Errorf("parlay %s pick %s: %w", parlay.ID, parlayPick.MatchupID, err)
		}
		result.Picks = append(result.Picks, *pickConf)

		switch pickConf.Status {
		case models.PickLost:
			result.IsAlive = false
		case models.PickWon, models.PickPush, models.PickVoid:
			// Settled in the bettor's favor or removed from the leg count;
			// contributes no further uncertainty.
		default:
			overall = overall * pickConf.Confidence / 100
			if pickConf.Confidence < riskThreshold {
				result.RiskFactors = append(result.RiskFactors,
					fmt.Sprintf("%s: %s at %.0f%% win probability", parlayPick.MatchupID, pickConf.Status, pickConf.Confidence))
			}
		}
	}

	if !result.IsAlive {
		result.OverallConfidence = 0
	} else {
		result.OverallConfidence = overall
	}

	c.logger.WithFields(logrus.Fields{
		"parlay_id":  parlay.ID,
		"picks":      len(result.Picks),
		"confidence": result.OverallConfidence,
		"alive":      result.IsAlive,
	}).Debug("Parlay confidence calculated")

	return result, nil
}

// evaluatePick scores one leg. Official settlement always wins over live
// state; otherwise the pick is graded on score differential against its best
// surviving opponent.
func (c *ParlayConfidenceCalculator) evaluatePick(parlayPick models.ParlayPick) (*models.PickConfidence, error) {
	conf := &models.PickConfidence{
		MatchupID: parlayPick.MatchupID,
		PlayerID:  parlayPick.PlayerID,
	}

	if parlayPick.Settlement != "" {
		switch parlayPick.Settlement {
		case models.SettlementWin:
			conf.Status = models.PickWon
			conf.Confidence = 100
			conf.Reasoning = "settled as a win"
		case models.SettlementLoss:
			conf.Status = models.PickLost
			conf.Confidence = 0
			conf.Reasoning = "settled as a loss"
		case models.SettlementPush:
			conf.Status = models.PickPush
			conf.Confidence = 50
			conf.Reasoning = "settled as a push"
		case models.SettlementVoid:
			conf.Status = models.PickVoid
			conf.Confidence = 0
			conf.Reasoning = "voided by the book"
		default:
			return nil, fmt.Errorf("unknown settlement %q", parlayPick.Settlement)
		}
		return conf, nil
	}

	var picked *models.PickPlayerState
	var opponents []models.PickPlayerState
	for i := range parlayPick.Players {
		player := parlayPick.Players[i]
		if player.PlayerID == parlayPick.PlayerID {
			picked = &parlayPick.Players[i]
		} else {
			opponents = append(opponents, player)
		}
	}
	if picked == nil {
		return nil, fmt.Errorf("picked player %s not among participants", parlayPick.PlayerID)
	}
	if len(opponents) == 0 {
		return nil, fmt.Errorf("no opponents for picked player %s", parlayPick.PlayerID)
	}

	active := make([]models.PickPlayerState, 0, len(opponents))
	for _, opp := range opponents {
		if !opp.Withdrawn {
			active = append(active, opp)
		}
	}
	if len(active) == 0 {
		conf.Status = models.PickLeading
		conf.Confidence = allOpponentsWithdrawnConfidence
		conf.Reasoning = "every opponent withdrew"
		return conf, nil
	}

	// Grade against the strongest remaining opponent: lowest score, and the
	// fewest holes played breaks the tie since they have more room to improve.
	best := active[0]
	for _, opp := range active[1:] {
		if opp.Score < best.Score || (opp.Score == best.Score && opp.HolesPlayed < best.HolesPlayed) {
			best = opp
		}
	}

	diff := picked.Score - best.Score
	conf.ScoreDifferential = diff
	conf.HolesRemaining = c.requiredHoles - picked.HolesPlayed
	if conf.HolesRemaining < 0 {
		conf.HolesRemaining = 0
	}

	switch {
	case diff < 0:
		conf.Status = models.PickLeading
	case diff > 0:
		conf.Status = models.PickTrailing
	default:
		conf.Status = models.PickTied
	}

	if conf.HolesRemaining == 0 {
		// Round over but the book has not settled yet
		switch conf.Status {
		case models.PickLeading:
			conf.Status = models.PickWon
			conf.Confidence = 100
			conf.Reasoning = "round complete, holding the lead"
		case models.PickTrailing:
			conf.Status = models.PickLost
			conf.Confidence = 0
			conf.Reasoning = "round complete, finished behind"
		default:
			conf.Status = models.PickPush
			conf.Confidence = 50
			conf.Reasoning = "round complete, scores level"
		}
		return conf, nil
	}

	if picked.HolesPlayed == 0 && diff == 0 {
		conf.Confidence = fallbackTied
		conf.Reasoning = "round not started"
		return conf, nil
	}

	conf.Confidence = lookupConfidence(diff, conf.HolesRemaining)
	conf.Reasoning = fmt.Sprintf("%+d vs best opponent with %d holes left", diff, conf.HolesRemaining)
	return conf, nil
}

// lookupConfidence reads the probability table, clamping the differential to
// the table's range. Unknown remaining holes fall back to flat priors.
func lookupConfidence(diff, holesRemaining int) float64 {
	if holesRemaining <= 0 {
		switch {
		case diff < 0:
			return fallbackLeading
		case diff > 0:
			return fallbackTrailing
		default:
			return fallbackTied
		}
	}

	if diff > 4 {
		diff = 4
	} else if diff < -4 {
		diff = -4
	}

	// Between bucket boundaries, round up to the wider bucket so mid-round
	// leads are not overstated.
	var bucket int
	switch {
	case holesRemaining >= 15:
		bucket = holeBuckets[0]
	case holesRemaining >= 6:
		bucket = holeBuckets[1]
	default:
		bucket = holeBuckets[2]
	}

	return confidenceTable[diff][bucket]
}
