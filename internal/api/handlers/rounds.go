package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/internal/services"
	"github.com/jstittsworth/matchup-tracker/internal/store"
	"github.com/jstittsworth/matchup-tracker/pkg/utils"
)

type RoundsHandler struct {
	snapshots *store.SnapshotStore
	detector  *services.RoundCompletionDetector
}

func NewRoundsHandler(snapshots *store.SnapshotStore, detector *services.RoundCompletionDetector) *RoundsHandler {
	return &RoundsHandler{
		snapshots: snapshots,
		detector:  detector,
	}
}

// ListActiveRounds returns the completion status of every recently active round
func (h *RoundsHandler) ListActiveRounds(c *gin.Context) {
	statuses, err := h.detector.CheckAllActiveRounds()
	if err != nil {
		utils.SendInternalError(c, "Failed to scan active rounds")
		return
	}
	utils.SendSuccess(c, statuses)
}

// GetRoundCompletion returns the completion status of one event round.
// Always recomputed from the latest snapshots; snapshots arrive from the
// upstream feed outside this process, so a cached status would go stale.
func (h *RoundsHandler) GetRoundCompletion(c *gin.Context) {
	eventID, roundNum, ok := roundParams(c)
	if !ok {
		return
	}

	status, err := h.detector.CheckRoundCompletion(eventID, roundNum)
	if err != nil {
		utils.SendInternalError(c, "Failed to compute round completion")
		return
	}
	if status.TotalPlayers == 0 {
		utils.SendNotFound(c, "No snapshots for this round")
		return
	}

	utils.SendSuccess(c, status)
}

type snapshotIngestRequest struct {
	CapturedAt *time.Time            `json:"captured_at"`
	Players    []snapshotPlayerInput `json:"players" binding:"required,min=1"`
}

type snapshotPlayerInput struct {
	PlayerID   string  `json:"player_id" binding:"required"`
	PlayerName string  `json:"player_name"`
	HolesThru  int     `json:"holes_thru"`
	Position   *string `json:"position"`
	TodayScore *int    `json:"today_score"`
	TotalScore *int    `json:"total_score"`
}

// IngestSnapshots appends a batch of player snapshots for a round
func (h *RoundsHandler) IngestSnapshots(c *gin.Context) {
	eventID, roundNum, ok := roundParams(c)
	if !ok {
		return
	}

	var req snapshotIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid snapshot payload", err.Error())
		return
	}

	capturedAt := time.Now().UTC()
	if req.CapturedAt != nil {
		capturedAt = req.CapturedAt.UTC()
	}

	snapshots := make([]models.PlayerRoundSnapshot, 0, len(req.Players))
	for _, player := range req.Players {
		snapshots = append(snapshots, models.PlayerRoundSnapshot{
			ID:         uuid.New(),
			EventID:    eventID,
			RoundNum:   roundNum,
			PlayerID:   player.PlayerID,
			PlayerName: player.PlayerName,
			HolesThru:  player.HolesThru,
			Position:   player.Position,
			TodayScore: player.TodayScore,
			TotalScore: player.TotalScore,
			CapturedAt: capturedAt,
		})
	}

	if err := h.snapshots.Insert(snapshots); err != nil {
		utils.SendInternalError(c, "Failed to store snapshots")
		return
	}

	utils.SendSuccess(c, gin.H{
		"event_id":  eventID,
		"round_num": roundNum,
		"inserted":  len(snapshots),
	})
}

// roundParams parses the :eventId and :roundNum path parameters. On failure a
// validation error has already been written.
func roundParams(c *gin.Context) (string, int, bool) {
	eventID := c.Param("eventId")
	if eventID == "" {
		utils.SendValidationError(c, "Missing event id", "")
		return "", 0, false
	}
	roundNum, err := strconv.Atoi(c.Param("roundNum"))
	if err != nil || roundNum < 1 {
		utils.SendValidationError(c, "Invalid round number", c.Param("roundNum"))
		return "", 0, false
	}
	return eventID, roundNum, true
}
