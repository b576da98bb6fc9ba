package models

import "time"

// PickSettlement is the sportsbook's official settlement of a pick, when one
// exists. Empty means the pick is still live.
type PickSettlement string

const (
	SettlementWin  PickSettlement = "win"
	SettlementLoss PickSettlement = "loss"
	SettlementPush PickSettlement = "push"
	SettlementVoid PickSettlement = "void"
)

// PickStatus is the live in-round state of a single parlay pick
type PickStatus string

const (
	PickWon      PickStatus = "won"
	PickLost     PickStatus = "lost"
	PickPush     PickStatus = "push"
	PickVoid     PickStatus = "void"
	PickLeading  PickStatus = "leading"
	PickTrailing PickStatus = "trailing"
	PickTied     PickStatus = "tied"
)

// PickPlayerState is the live scoring state of one matchup participant, as
// supplied by the caller from current snapshots.
type PickPlayerState struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	HolesPlayed int    `json:"holes_played"`
	Withdrawn   bool   `json:"withdrawn"`
}

// ParlayPick is one leg of a parlay: a chosen player within a matchup plus
// the live state of every participant.
type ParlayPick struct {
	MatchupID  string            `json:"matchup_id"`
	EventID    string            `json:"event_id"`
	RoundNum   int               `json:"round_num"`
	PlayerID   string            `json:"player_id"`
	Settlement PickSettlement    `json:"settlement,omitempty"`
	Players    []PickPlayerState `json:"players"`
}

// Parlay is a combined wager where every pick must win
type Parlay struct {
	ID    string       `json:"id"`
	Picks []ParlayPick `json:"picks"`
}

// PickConfidence is the computed live assessment of one pick
type PickConfidence struct {
	MatchupID         string     `json:"matchup_id"`
	PlayerID          string     `json:"player_id"`
	Status            PickStatus `json:"status"`
	Confidence        float64    `json:"confidence"`
	ScoreDifferential int        `json:"score_differential"`
	HolesRemaining    int        `json:"holes_remaining"`
	Reasoning         string     `json:"reasoning"`
}

// ParlayConfidence is the composite live win probability of a parlay.
// Never persisted; recomputed from current state on every request.
type ParlayConfidence struct {
	ParlayID          string           `json:"parlay_id"`
	OverallConfidence float64          `json:"overall_confidence"`
	IsAlive           bool             `json:"is_alive"`
	Picks             []PickConfidence `json:"picks"`
	RiskFactors       []string         `json:"risk_factors"`
	CalculatedAt      time.Time        `json:"calculated_at"`
}
