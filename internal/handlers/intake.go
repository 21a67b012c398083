package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StartIntake starts the intake poller and workers
func (h *Handlers) StartIntake(c *gin.Context) {
	if err := h.intake.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

// StopIntake stops the intake poller and workers
func (h *Handlers) StopIntake(c *gin.Context) {
	if err := h.intake.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

// RunOnce triggers one poll cycle immediately
func (h *Handlers) RunOnce(c *gin.Context) {
	h.intake.RunOnce()
	c.Status(http.StatusOK)
}

// GetIntakeStatus returns intake service status
func (h *Handlers) GetIntakeStatus(c *gin.Context) {
	status := "stopped"
	if h.intake.IsRunning() {
		status = "running"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"next_run":    h.intake.GetNextRun(),
		"last_run":    h.intake.GetLastRun(),
		"queue_depth": h.intake.QueueSize(),
	})
}

// GetQueueDepth returns the current ingestion queue depth
func (h *Handlers) GetQueueDepth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"queue_depth": h.intake.QueueSize()})
}
