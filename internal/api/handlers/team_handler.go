package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youlead/youlead-backend/internal/api/middleware"
	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/service"
	"github.com/youlead/youlead-backend/internal/types"
)

// TeamHandler handles team-related HTTP requests
type TeamHandler struct {
	teamSvc service.TeamService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamSvc service.TeamService) *TeamHandler {
	return &TeamHandler{teamSvc: teamSvc}
}

// Create creates a team led by the caller
func (h *TeamHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teamSvc.Create(c.Request.Context(), userID, req.Name, req.Organization)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusCreated, "team created", toTeamResponse(team))
}

// Get retrieves a team by ID
func (h *TeamHandler) Get(c *gin.Context) {
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.teamSvc.Get(c.Request.Context(), teamID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "team", toTeamSummaryResponse(summary))
}

// ListMembers lists the members of a team
func (h *TeamHandler) ListMembers(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}

	members, err := h.teamSvc.ListMembers(c.Request.Context(), userID, teamID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.UserResponse, len(members))
	for i, m := range members {
		response[i] = toUserResponse(m, nil)
	}
	respond(c, http.StatusOK, "team members", response)
}

func (h *TeamHandler) Join(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}

	team, err := h.teamSvc.Join(c.Request.Context(), userID, teamID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "joined team", toTeamResponse(team))
}

func (h *TeamHandler) Leave(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.teamSvc.Leave(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "left team", nil)
}

// RemoveMember removes a member from a team
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}
	memberID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	if err := h.teamSvc.RemoveMember(c.Request.Context(), actorID, teamID, memberID); err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "member removed", nil)
}

// UpdateMemberRole promotes or demotes a member
func (h *TeamHandler) UpdateMemberRole(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}
	memberID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	var req models.PromoteRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.teamSvc.Promote(c.Request.Context(), actorID, teamID, memberID, types.Role(req.Role)); err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "role updated", gin.H{"userId": memberID, "role": req.Role})
}
