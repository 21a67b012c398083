package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Intake:    make(map[string]string),
	}

	if err := h.db.Raw("SELECT 1").Error; err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.intake.IsRunning() {
		response.Intake["poller"] = "running"
		response.Intake["next_run"] = h.intake.GetNextRun().Format(time.RFC3339)
		response.Intake["last_run"] = h.intake.GetLastRun().Format(time.RFC3339)
	} else {
		response.Intake["poller"] = "stopped"
	}
	response.Intake["queue_depth"] = strconv.Itoa(h.intake.QueueSize())

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
