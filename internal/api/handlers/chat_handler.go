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

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatSvc service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

func toMessageResponses(messages []*repository.Message) []*models.MessageResponse {
	response := make([]*models.MessageResponse, len(messages))
	for i, msg := range messages {
		response[i] = service.MessageResponse(msg)
	}
	return response
}

// SendMessage posts to a direct, project or task conversation
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chatSvc.Send(c.Request.Context(), userID, &service.SendMessageInput{
		SentIn:     types.ChatType(req.SentIn),
		ReceivedBy: req.ReceivedBy,
		MsgContent: req.MsgContent,
		FileID:     req.FileID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusCreated, "message sent", service.MessageResponse(msg))
}

// ListMessages pages a conversation backwards. ?before=<seq>&limit=<n>
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	target, ok := idParam(c, "target")
	if !ok {
		return
	}

	messages, err := h.chatSvc.Conversation(
		c.Request.Context(),
		userID,
		types.ChatType(c.Param("sentIn")),
		target,
		int64(queryInt(c, "before", 0)),
		queryInt(c, "limit", 50),
	)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "messages", toMessageResponses(messages))
}

// MarkRead adds the caller to a message's read set
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	messageID, ok := idParam(c, "id")
	if !ok {
		return
	}

	msg, err := h.chatSvc.MarkRead(c.Request.Context(), userID, messageID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "message read", service.MessageResponse(msg))
}

// EditMessage replaces the body of the caller's own message
func (h *ChatHandler) EditMessage(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	messageID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.EditMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chatSvc.Edit(c.Request.Context(), userID, messageID, req.MsgContent)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "message edited", service.MessageResponse(msg))
}
