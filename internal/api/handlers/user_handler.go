package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youlead/youlead-backend/internal/api/middleware"
	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/service"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// User Handler
// ============================================

type UserHandler struct {
	userService service.UserService
}

// GetCurrentUser returns the caller with derived task and project counters
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	user, counters, err := h.userService.Me(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "user", toUserResponse(user, counters))
}

func (h *UserHandler) UpdateCurrentUser(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req.Name, req.Phone, req.Picture)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "profile updated", toUserResponse(user, nil))
}

// SetAccountStatus activates or deactivates an account. Admin only.
func (h *UserHandler) SetAccountStatus(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	targetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateAccountStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetAccountStatus(c.Request.Context(), actorID, targetID, types.AccountStatus(req.AccountStatus))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "account status updated", toUserResponse(user, nil))
}
