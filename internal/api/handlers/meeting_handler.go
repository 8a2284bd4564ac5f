package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youlead/youlead-backend/internal/api/middleware"
	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/service"
)

// ============================================
// Meeting Handler
// ============================================

type MeetingHandler struct {
	meetingSvc service.MeetingService
}

func NewMeetingHandler(meetingSvc service.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingSvc: meetingSvc}
}

// Schedule creates a meeting for the team
func (h *MeetingHandler) Schedule(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.ScheduleMeetingRequest
	if !bindJSON(c, &req) {
		return
	}

	meeting, err := h.meetingSvc.Schedule(c.Request.Context(), actorID, teamID, &service.ScheduleMeetingInput{
		Title:           req.Title,
		Agenda:          req.Agenda,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Attendees:       req.Attendees,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusCreated, "meeting scheduled", toMeetingResponse(meeting))
}

// List returns upcoming meetings. ?from=<RFC3339> overrides "now".
func (h *MeetingHandler) List(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var from time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			abort(c, http.StatusBadRequest, "invalid request", []models.FieldError{{Field: "from", Message: "from must be an RFC3339 timestamp"}})
			return
		}
		from = t
	}

	meetings, err := h.meetingSvc.List(c.Request.Context(), actorID, teamID, from)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.MeetingResponse, len(meetings))
	for i, m := range meetings {
		response[i] = toMeetingResponse(m)
	}
	respond(c, http.StatusOK, "meetings", response)
}

func (h *MeetingHandler) Cancel(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	meetingID, ok := idParam(c, "id")
	if !ok {
		return
	}

	meeting, err := h.meetingSvc.Cancel(c.Request.Context(), actorID, meetingID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "meeting canceled", toMeetingResponse(meeting))
}
