package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youlead/youlead-backend/internal/api/middleware"
	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/service"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// Work Item Handler (tasks and projects)
// ============================================

// WorkItemHandler serves one kind of work item. Tasks and projects share
// the same routes under different prefixes.
type WorkItemHandler struct {
	itemSvc service.WorkItemService
}

func NewWorkItemHandler(itemSvc service.WorkItemService) *WorkItemHandler {
	return &WorkItemHandler{itemSvc: itemSvc}
}

func (h *WorkItemHandler) noun() string {
	return string(h.itemSvc.Kind())
}

func toWorkItemResponses(items []*repository.WorkItem) []models.WorkItemResponse {
	response := make([]models.WorkItemResponse, len(items))
	for i, item := range items {
		response[i] = toWorkItemResponse(item)
	}
	return response
}

func (h *WorkItemHandler) Create(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateWorkItemRequest
	if !bindJSON(c, &req) {
		return
	}

	input := &service.CreateWorkItemInput{
		Name:        req.Name,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		Deadline:    req.Deadline,
		Members:     req.Members,
	}
	if req.Priority != nil {
		p := types.Priority(*req.Priority)
		input.Priority = &p
	}

	item, err := h.itemSvc.Create(c.Request.Context(), actorID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusCreated, h.noun()+" created", toWorkItemResponse(item))
}

// List lists the team's items. Filters: teamId, projectId, memberId, status.
func (h *WorkItemHandler) List(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	input := &service.ListWorkItemsInput{
		TeamID: c.Query("teamId"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if v := c.Query("projectId"); v != "" {
		input.ProjectID = &v
	}
	if v := c.Query("memberId"); v != "" {
		input.MemberID = &v
	}
	if v := c.Query("status"); v != "" {
		status := types.EntityStatus(v)
		input.Status = &status
	}

	items, err := h.itemSvc.List(c.Request.Context(), actorID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, h.noun()+"s", toWorkItemResponses(items))
}

// Get returns one item with its status derived at read time
func (h *WorkItemHandler) Get(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	item, err := h.itemSvc.Get(c.Request.Context(), actorID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, h.noun(), toWorkItemResponse(item))
}

func (h *WorkItemHandler) Complete(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	item, err := h.itemSvc.MarkComplete(c.Request.Context(), actorID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, h.noun()+" completed", toWorkItemResponse(item))
}

// ChangeDeadline prepends a new deadline
func (h *WorkItemHandler) ChangeDeadline(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.DeadlineRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.itemSvc.ChangeDeadline(c.Request.Context(), actorID, id, req.Deadline)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "deadline updated", toWorkItemResponse(item))
}

func (h *WorkItemHandler) AssignMembers(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.MembersRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.itemSvc.AssignMembers(c.Request.Context(), actorID, id, req.Members)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "members assigned", toWorkItemResponse(item))
}

func (h *WorkItemHandler) UnassignMembers(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.MembersRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.itemSvc.UnassignMembers(c.Request.Context(), actorID, id, req.Members)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "members unassigned", toWorkItemResponse(item))
}
