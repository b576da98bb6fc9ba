package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/matchup-tracker/internal/models"
)

func newCalculator() *ParlayConfidenceCalculator {
	return NewParlayConfidenceCalculator(18, testLogger())
}

func pickWithState(matchupID, pickedID string, players ...models.PickPlayerState) models.ParlayPick {
	return models.ParlayPick{
		MatchupID: matchupID,
		EventID:   "evt",
		RoundNum:  1,
		PlayerID:  pickedID,
		Players:   players,
	}
}

func TestCalculateParlayConfidence_ProductOfActivePicks(t *testing.T) {
	calc := newCalculator()

	parlay := models.Parlay{
		ID: "parlay-1",
		Picks: []models.ParlayPick{
			// Two up with two holes left: 90%
			pickWithState("m1", "a",
				models.PickPlayerState{PlayerID: "a", Score: -3, HolesPlayed: 16},
				models.PickPlayerState{PlayerID: "b", Score: -1, HolesPlayed: 16},
			),
			// Level: 50%
			pickWithState("m2", "c",
				models.PickPlayerState{PlayerID: "c", Score: 0, HolesPlayed: 9},
				models.PickPlayerState{PlayerID: "d", Score: 0, HolesPlayed: 9},
			),
		},
	}

	result, err := calc.CalculateParlayConfidence(parlay)
	require.NoError(t, err)

	assert.True(t, result.IsAlive)
	require.Len(t, result.Picks, 2)
	assert.InDelta(t, 90, result.Picks[0].Confidence, 0.001)
	assert.InDelta(t, 50, result.Picks[1].Confidence, 0.001)
	assert.InDelta(t, 45, result.OverallConfidence, 0.001)
}

func TestCalculateParlayConfidence_LossKillsParlay(t *testing.T) {
	calc := newCalculator()

	parlay := models.Parlay{
		ID: "parlay-1",
		Picks: []models.ParlayPick{
			{MatchupID: "m1", PlayerID: "a", Settlement: models.SettlementLoss},
			pickWithState("m2", "c",
				models.PickPlayerState{PlayerID: "c", Score: -4, HolesPlayed: 17},
				models.PickPlayerState{PlayerID: "d", Score: 0, HolesPlayed: 17},
			),
		},
	}

	result, err := calc.CalculateParlayConfidence(parlay)
	require.NoError(t, err)

	assert.False(t, result.IsAlive)
	assert.Zero(t, result.OverallConfidence)
	assert.Equal(t, models.PickLost, result.Picks[0].Status)
}

func TestCalculateParlayConfidence_SettledPicksContributeCertainty(t *testing.T) {
	calc := newCalculator()

	parlay := models.Parlay{
		ID: "parlay-1",
		Picks: []models.ParlayPick{
			{MatchupID: "m1", PlayerID: "a", Settlement: models.SettlementWin},
			{MatchupID: "m2", PlayerID: "b", Settlement: models.SettlementPush},
			{MatchupID: "m3", PlayerID: "c", Settlement: models.SettlementVoid},
			// Sole live pick, two down with three holes left: 10%
			pickWithState("m4", "d",
				models.PickPlayerState{PlayerID: "d", Score: 1, HolesPlayed: 15},
				models.PickPlayerState{PlayerID: "e", Score: -1, HolesPlayed: 15},
			),
		},
	}

	result, err := calc.CalculateParlayConfidence(parlay)
	require.NoError(t, err)

	assert.True(t, result.IsAlive)
	assert.InDelta(t, 10, result.OverallConfidence, 0.001)
	assert.Equal(t, models.PickWon, result.Picks[0].Status)
	assert.Equal(t, models.PickPush, result.Picks[1].Status)
	assert.Equal(t, models.PickVoid, result.Picks[2].Status)
}

func TestCalculateParlayConfidence_LeadTightensAsHolesRunOut(t *testing.T) {
	calc := newCalculator()

	// The same two shot lead at 18, 9 and 3 holes remaining
	holesPlayed := []int{0, 9, 15}
	expected := []float64{65, 80, 90}

	for i, played := range holesPlayed {
		parlay := models.Parlay{
			ID: "parlay-1",
			Picks: []models.ParlayPick{
				pickWithState("m1", "a",
					models.PickPlayerState{PlayerID: "a", Score: -2, HolesPlayed: played},
					models.PickPlayerState{PlayerID: "b", Score: 0, HolesPlayed: played},
				),
			},
		}
		result, err := calc.CalculateParlayConfidence(parlay)
		require.NoError(t, err)
		assert.InDelta(t, expected[i], result.OverallConfidence, 0.001, "holes played %d", played)
	}
}

func TestCalculateParlayConfidence_DifferentialClamped(t *testing.T) {
	calc := newCalculator()

	parlay := models.Parlay{
		ID: "parlay-1",
		Picks: []models.ParlayPick{
			// Eight clear with nine to play reads as the table's -4 row
			pickWithState("m1", "a",
				models.PickPlayerState{PlayerID: "a", Score: -8, HolesPlayed: 9},
				models.PickPlayerState{PlayerID: "b", Score: 0, HolesPlayed: 9},
			),
		},
	}

	result, err := calc.CalculateParlayConfidence(parlay)
	require.NoError(t, err)
	assert.InDelta(t, 90, result.OverallConfidence, 0.001)
}

func TestCalculateParlayConfidence_AllOpponentsWithdrawn(t *testing.T) {
	calc := newCalculator()

	parlay := models.Parlay{
		ID: "parlay-1",
		Picks: []models.ParlayPick{
			pickWithState("m1", "a",
				models.PickPlayerState{PlayerID: "a", Score: 2, HolesPlayed: 6},
				models.PickPlayerState{PlayerID: "b", Withdrawn: true},
				models.PickPlayerState{PlayerID: "c", Withdrawn: true},
			),
		},
	}

	result, err := calc.CalculateParlayConfidence(parlay)
	require.NoError(t, err)
	assert.InDelta(t, 95, result.OverallConfidence, 0.001)
	assert.Equal(t, "every opponent withdrew", result.Picks[0].Reasoning)
}

func TestCalculateParlayConfidence_RoundCompleteUnsettled(t *testing.T) {
	calc := newCalculator()

	tests := []struct {
		name       string
		score      int
		expectConf float64
		expect     models.PickStatus
	}{
		{"finished ahead", -2, 100, models.PickWon},
		{"finished behind", 2, 0, models.PickLost},
		{"finished level", 0, 50, models.PickPush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parlay := models.Parlay{
				ID: "parlay-1",
				Picks: []models.ParlayPick{
					pickWithState("m1", "a",
						models.PickPlayerState{PlayerID: "a", Score: tt.score, HolesPlayed: 18},
						models.PickPlayerState{PlayerID: "b", Score: 0, HolesPlayed: 18},
					),
				},
			}
			result, err := calc.CalculateParlayConfidence(parlay)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, result.Picks[0].Status)
			if tt.expect == models.PickLost {
				assert.False(t, result.IsAlive)
				assert.Zero(t, result.OverallConfidence)
			} else {
				assert.InDelta(t, tt.expectConf, result.Picks[0].Confidence, 0.001)
			}
		})
	}
}

func TestCalculateParlayConfidence_RiskFactors(t *testing.T) {
	calc := newCalculator()

	parlay := models.Parlay{
		ID: "parlay-1",
		Picks: []models.ParlayPick{
			// Two down with nine left: 20%, below the risk threshold
			pickWithState("m1", "a",
				models.PickPlayerState{PlayerID: "a", Score: 2, HolesPlayed: 9},
				models.PickPlayerState{PlayerID: "b", Score: 0, HolesPlayed: 9},
			),
		},
	}

	result, err := calc.CalculateParlayConfidence(parlay)
	require.NoError(t, err)
	require.Len(t, result.RiskFactors, 1)
	assert.Contains(t, result.RiskFactors[0], "m1")
}

func TestCalculateParlayConfidence_Validation(t *testing.T) {
	calc := newCalculator()

	_, err := calc.CalculateParlayConfidence(models.Parlay{ID: "empty"})
	assert.Error(t, err)

	_, err = calc.CalculateParlayConfidence(models.Parlay{
		ID: "bad-pick",
		Picks: []models.ParlayPick{
			pickWithState("m1", "missing",
				models.PickPlayerState{PlayerID: "a"},
				models.PickPlayerState{PlayerID: "b"},
			),
		},
	})
	assert.Error(t, err)
}
