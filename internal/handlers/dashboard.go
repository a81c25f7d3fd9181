package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/uniqdata/backend/internal/services"
	"github.com/uniqdata/backend/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetSummary returns aggregate project and escrow stats.
// GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary := h.dashboardService.GetSummary(c.Request.Context())
	response.Success(c, summary)
}
