package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/matchup-tracker/internal/services"
	"github.com/jstittsworth/matchup-tracker/pkg/utils"
)

type PipelineHandler struct {
	pipeline *services.AutomatedPerformancePipeline
}

func NewPipelineHandler(pipeline *services.AutomatedPerformancePipeline) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline}
}

// Start enables the pipeline schedule
func (h *PipelineHandler) Start(c *gin.Context) {
	if err := h.pipeline.Start(); err != nil {
		utils.SendConflict(c, err.Error())
		return
	}
	utils.SendSuccess(c, h.pipeline.Status())
}

// Stop disables the pipeline schedule. An in-flight run finishes on its own.
func (h *PipelineHandler) Stop(c *gin.Context) {
	h.pipeline.Stop()
	utils.SendSuccess(c, h.pipeline.Status())
}

// RunNow triggers one synchronous pipeline run
func (h *PipelineHandler) RunNow(c *gin.Context) {
	result := h.pipeline.RunOnce()
	if result.AlreadyRunning {
		utils.SendConflict(c, "A pipeline run is already in progress")
		return
	}
	if !result.Success {
		utils.SendPipelineError(c, "Pipeline run failed", result.Error)
		return
	}
	utils.SendSuccess(c, result)
}

// Status reports the scheduler state and last run
func (h *PipelineHandler) Status(c *gin.Context) {
	utils.SendSuccess(c, h.pipeline.Status())
}
