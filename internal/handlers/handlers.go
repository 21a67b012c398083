package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"claim-intake-go/internal/directory"
	"claim-intake-go/internal/intake"
	"claim-intake-go/internal/metrics"
	"claim-intake-go/internal/repository"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	repo      *repository.Repository
	validator *directory.DBValidator
	intake    *intake.Service
	metrics   *metrics.Metrics
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, repo *repository.Repository, validator *directory.DBValidator, svc *intake.Service, m *metrics.Metrics) *Handlers {
	return &Handlers{
		db:        db,
		repo:      repo,
		validator: validator,
		intake:    svc,
		metrics:   m,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/fulfillments", h.GetFulfillments)
		api.GET("/fulfillments/:id", h.GetFulfillment)

		api.POST("/users", h.CreateUser)
		api.GET("/users/:email", h.GetUser)

		api.POST("/intake/start", h.StartIntake)
		api.POST("/intake/stop", h.StopIntake)
		api.POST("/intake/run-once", h.RunOnce)
		api.GET("/intake/status", h.GetIntakeStatus)
		api.GET("/intake/queue", h.GetQueueDepth)
	}
}
