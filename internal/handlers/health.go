package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/uniqdata/backend/internal/models"
	"github.com/uniqdata/backend/internal/services"
)

// HealthHandler reports the health of the backend's subsystems.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
// GET /api/health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	queueMode := "sync"
	if q := services.GetReconcileQueue(); q != nil && q.IsAsync() {
		queueMode = "async (Redis)"
	}

	var activeParticipants int64
	models.GetDB().Model(&models.Participant{}).
		Where("active = ?", true).
		Count(&activeParticipants)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "uniqdata-backend",
		"components": gin.H{
			"database":            dbStatus,
			"queue_mode":          queueMode,
			"active_participants": activeParticipants,
		},
	})
}
