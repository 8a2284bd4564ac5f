package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youlead/youlead-backend/internal/api/middleware"
	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/service"
	"github.com/youlead/youlead-backend/internal/types"
)

// ActivityHandler serves the append-only activity feeds
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// TeamFeed lists a team's activities, newest first. ?context= filters by kind.
func (h *ActivityHandler) TeamFeed(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var filter *types.ActivityContext
	if v := c.Query("context"); v != "" {
		ctx := types.ActivityContext(v)
		if !ctx.IsValid() {
			abort(c, http.StatusBadRequest, "invalid request", []models.FieldError{{Field: "context", Message: "context is invalid"}})
			return
		}
		filter = &ctx
	}

	activities, err := h.activitySvc.TeamFeed(c.Request.Context(), actorID, teamID, filter, queryInt(c, "limit", 50))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "activities", activities)
}

// MyFeed lists the caller's own activities
func (h *ActivityHandler) MyFeed(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	activities, err := h.activitySvc.MyFeed(c.Request.Context(), actorID, queryInt(c, "limit", 50))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "activities", activities)
}
