package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youlead/youlead-backend/internal/api/middleware"
	"github.com/youlead/youlead-backend/internal/service"
)

// AnalyticsHandler serves derived team counters
type AnalyticsHandler struct {
	analyticsSvc service.AnalyticsService
}

func NewAnalyticsHandler(analyticsSvc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// TeamOverview returns task and project histograms with the completion rate
func (h *AnalyticsHandler) TeamOverview(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}

	overview, err := h.analyticsSvc.TeamOverview(c.Request.Context(), actorID, teamID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "team overview", overview)
}
