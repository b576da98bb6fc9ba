package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/internal/services"
	"github.com/jstittsworth/matchup-tracker/pkg/utils"
)

type ParlayHandler struct {
	calculator *services.ParlayConfidenceCalculator
}

func NewParlayHandler(calculator *services.ParlayConfidenceCalculator) *ParlayHandler {
	return &ParlayHandler{calculator: calculator}
}

// CalculateConfidence computes the live win probability of a parlay from the
// state supplied in the request body. Nothing is stored.
func (h *ParlayHandler) CalculateConfidence(c *gin.Context) {
	var parlay models.Parlay
	if err := c.ShouldBindJSON(&parlay); err != nil {
		utils.SendValidationError(c, "Invalid parlay payload", err.Error())
		return
	}
	if len(parlay.Picks) == 0 {
		utils.SendValidationError(c, "Parlay has no picks", "")
		return
	}

	confidence, err := h.calculator.CalculateParlayConfidence(parlay)
	if err != nil {
		utils.SendValidationError(c, "Unable to evaluate parlay", err.Error())
		return
	}
	utils.SendSuccess(c, confidence)
}
