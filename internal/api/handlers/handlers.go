package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/youlead/youlead-backend/internal/api/validation"
	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Team       *TeamHandler
	Invitation *InvitationHandler
	Task       *WorkItemHandler
	Project    *WorkItemHandler
	Chat       *ChatHandler
	Meeting    *MeetingHandler
	Activity   *ActivityHandler
	Analytics  *AnalyticsHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	validation.Register()
	return &Handlers{
		Auth:       &AuthHandler{authService: services.Auth, userService: services.User},
		User:       &UserHandler{userService: services.User},
		Team:       NewTeamHandler(services.Team),
		Invitation: NewInvitationHandler(services.Invitation),
		Task:       NewWorkItemHandler(services.Task),
		Project:    NewWorkItemHandler(services.Project),
		Chat:       NewChatHandler(services.Chat),
		Meeting:    NewMeetingHandler(services.Meeting),
		Activity:   NewActivityHandler(services.Activity),
		Analytics:  NewAnalyticsHandler(services.Analytics),
	}
}

// ============================================
// Envelope
// ============================================

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.Envelope{
		Success:    status < http.StatusBadRequest,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

func abort(c *gin.Context, status int, message string, fieldErrors []models.FieldError) {
	c.AbortWithStatusJSON(status, models.Envelope{
		StatusCode: status,
		Message:    message,
		Errors:     fieldErrors,
	})
}

// bindJSON binds the body and renders field errors on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request", validation.FieldErrors(err))
		return false
	}
	return true
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindInvalidInput:
		return http.StatusBadRequest
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps service errors to HTTP responses. 5xx errors are
// attached to the context for the logging and sentry middleware.
func handleServiceError(c *gin.Context, err error) {
	status := statusFor(service.KindOf(err))
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if status == http.StatusInternalServerError {
			abort(c, status, "internal server error", nil)
			return
		}
	}
	abort(c, status, err.Error(), nil)
}

// idParam reads a path id. Anything that is not a uuid cannot exist.
func idParam(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		abort(c, http.StatusNotFound, service.ErrNotFound.Message, nil)
		return "", false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil {
		return v
	}
	return def
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User, counters *service.MemberCounters) models.UserResponse {
	resp := models.UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Picture:       u.Picture,
		Role:          string(u.Role),
		AccountStatus: string(u.AccountStatus),
		TeamID:        u.TeamID,
		CreatedAt:     u.CreatedAt,
	}
	if counters != nil {
		resp.TaskStatus = &counters.Tasks
		resp.ProjectStatus = &counters.Projects
	}
	return resp
}

func toTeamResponse(t *repository.Team) models.TeamResponse {
	return models.TeamResponse{
		ID:           t.ID,
		Name:         t.Name,
		Organization: t.Organization,
		TeamLeaderID: t.TeamLeaderID,
		CreatedAt:    t.CreatedAt,
	}
}

func toTeamSummaryResponse(s *repository.TeamSummary) models.TeamResponse {
	resp := toTeamResponse(&s.Team)
	resp.LeaderName = s.LeaderName
	resp.MemberCount = s.MemberCount
	return resp
}

func toInvitationResponse(inv *repository.Invitation) models.InvitationResponse {
	return models.InvitationResponse{
		ID:               inv.ID,
		InviteeEmail:     inv.InviteeEmail,
		TeamID:           inv.TeamID,
		InvitedBy:        inv.InvitedBy,
		InvitationStatus: string(inv.State.InvitationStatus()),
		Status:           string(inv.State.RecordStatus()),
		InviteeLeft:      inv.InviteeLeft,
		CreatedAt:        inv.CreatedAt,
		RespondedAt:      inv.RespondedAt,
	}
}

func toWorkItemResponse(w *repository.WorkItem) models.WorkItemResponse {
	resp := models.WorkItemResponse{
		ID:          w.ID,
		Kind:        string(w.Kind),
		CreatedBy:   w.CreatedBy,
		TeamID:      w.TeamID,
		ProjectID:   w.ProjectID,
		Name:        w.Name,
		Description: w.Description,
		Members:     safeStringSlice(w.Members),
		Deadline:    []time.Time(w.Deadlines),
		Status:      string(w.Status),
		CompletedAt: w.CompletedAt,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
	if resp.Deadline == nil {
		resp.Deadline = []time.Time{}
	}
	if w.Priority != nil {
		p := string(*w.Priority)
		resp.Priority = &p
	}
	return resp
}

func toMeetingResponse(m *repository.Meeting) models.MeetingResponse {
	return models.MeetingResponse{
		ID:              m.ID,
		TeamID:          m.TeamID,
		Title:           m.Title,
		Agenda:          m.Agenda,
		StartsAt:        m.StartsAt,
		DurationMinutes: m.DurationMinutes,
		Attendees:       safeStringSlice(m.Attendees),
		CreatedBy:       m.CreatedBy,
		Canceled:        m.Canceled,
		CreatedAt:       m.CreatedAt,
	}
}

// Helper to ensure nil slices become empty slices
func safeStringSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
