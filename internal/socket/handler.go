// internal/socket/handler.go
package socket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for the REST surface is enforced by gin-contrib/cors
		return true
	},
}

// Authenticator resolves a bearer token to a user id.
type Authenticator func(token string) (string, error)

// Handler handles WebSocket connections
type Handler struct {
	Hub          *Hub
	authenticate Authenticator
	log          *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authenticate Authenticator, log *zap.Logger) *Handler {
	return &Handler{
		Hub:          hub,
		authenticate: authenticate,
		log:          log,
	}
}

// HandleWebSocket handles WebSocket upgrade requests.
// Browsers cannot set headers on a WebSocket handshake, so the JWT may arrive as ?token=.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if tokenString == "" {
		h.reject(c, "No token provided")
		return
	}
	userID, err := h.authenticate(tokenString)
	if err != nil || userID == "" {
		h.log.Debug("[WebSocket] Invalid token", zap.Error(err))
		h.reject(c, "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("[WebSocket] Upgrade error", zap.Error(err))
		return
	}

	client := NewClient(h.Hub, userID, conn)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) reject(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.Envelope{
		StatusCode: http.StatusUnauthorized,
		Message:    reason,
	})
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, 256),
		Rooms:    make(map[string]bool),
		lastPing: time.Now(),
	}
}
