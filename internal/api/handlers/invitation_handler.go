package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youlead/youlead-backend/internal/api/middleware"
	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/service"
)

// ============================================
// Invitation Handler
// ============================================

type InvitationHandler struct {
	invitationSvc service.InvitationService
}

func NewInvitationHandler(invitationSvc service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationSvc: invitationSvc}
}

func toInvitationWithTeamResponse(inv *repository.InvitationWithTeam) models.InvitationResponse {
	resp := toInvitationResponse(inv.Invitation)
	if inv.Team != nil {
		team := toTeamSummaryResponse(inv.Team)
		resp.Team = &team
	}
	return resp
}

// Create invites an email address to the team
func (h *InvitationHandler) Create(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.CreateInvitationRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.invitationSvc.Create(c.Request.Context(), actorID, teamID, req.Email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusCreated, "invitation sent", toInvitationResponse(inv))
}

// ListForTeam lists every invitation a team has sent
func (h *InvitationHandler) ListForTeam(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	teamID, ok := idParam(c, "id")
	if !ok {
		return
	}

	invitations, err := h.invitationSvc.ListForTeam(c.Request.Context(), actorID, teamID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		response[i] = toInvitationResponse(inv)
	}
	respond(c, http.StatusOK, "team invitations", response)
}

// ListMine lists the caller's active invitations, newest first
func (h *InvitationHandler) ListMine(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	invitations, err := h.invitationSvc.ListForInvitee(c.Request.Context(), actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		response[i] = toInvitationWithTeamResponse(inv)
	}
	respond(c, http.StatusOK, "invitations", response)
}

// Respond accepts or rejects an invitation
func (h *InvitationHandler) Respond(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	invitationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.RespondInvitationRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.invitationSvc.Respond(c.Request.Context(), actorID, invitationID, models.Decision(req.Decision))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "invitation "+req.Decision, toInvitationResponse(inv))
}

// Cancel withdraws a pending invitation
func (h *InvitationHandler) Cancel(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	invitationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.invitationSvc.Cancel(c.Request.Context(), actorID, invitationID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "invitation withdrawn", toInvitationResponse(inv))
}
