// internal/socket/hub.go
package socket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Chat messages
	MessageChatNew    MessageType = "message_new"
	MessageChatEdited MessageType = "message_edited"
	MessageChatRead   MessageType = "message_read"

	// Task / project messages
	MessageWorkItemAssigned      MessageType = "work_item_assigned"
	MessageWorkItemUnassigned    MessageType = "work_item_unassigned"
	MessageWorkItemStatusChanged MessageType = "work_item_status_changed"

	// Team messages
	MessageTeamMemberAdded       MessageType = "team_member_added"
	MessageTeamMemberRemoved     MessageType = "team_member_removed"
	MessageTeamMemberRoleUpdated MessageType = "team_member_role_updated"

	// Invitation messages
	MessageInvitationReceived MessageType = "invitation_received"
	MessageInvitationResolved MessageType = "invitation_resolved"

	// Meeting messages
	MessageMeetingScheduled MessageType = "meeting_scheduled"
	MessageMeetingCanceled  MessageType = "meeting_canceled"

	// User presence
	MessageUserOnline  MessageType = "user_online"
	MessageUserOffline MessageType = "user_offline"
	MessageUserTyping  MessageType = "user_typing"

	// System messages
	MessagePing  MessageType = "ping"
	MessagePong  MessageType = "pong"
	MessageAck   MessageType = "ack"
	MessageError MessageType = "error"
)

// Room names
func TeamRoom(teamID string) string       { return "team:" + teamID }
func ProjectRoom(projectID string) string { return "project:" + projectID }
func TaskRoom(taskID string) string       { return "task:" + taskID }

// SplitRoom returns the kind and id of a room name such as "project:42".
func SplitRoom(room string) (kind, id string, ok bool) {
	kind, id, ok = strings.Cut(room, ":")
	if !ok || kind == "" || id == "" {
		return "", "", false
	}
	return kind, id, true
}

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// RoomGuard decides whether a user may subscribe to a room.
type RoomGuard func(ctx context.Context, userID, room string) bool

// delivery is one outbound frame. With neither room nor userID set it goes to everyone.
type delivery struct {
	room    string
	userID  string
	exclude string
	data    []byte
}

// Hub maintains the set of active clients. All frames pass through one
// channel and one goroutine, so every client receives frames in the order
// they were submitted.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	roomClients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	deliveries chan *delivery
	done       chan struct{}

	guard     RoomGuard
	onConnect func(userID string)

	log *zap.Logger
	mu  sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[string]map[*Client]bool),
		roomClients: make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		deliveries:  make(chan *delivery, 512),
		done:        make(chan struct{}),
		log:         log,
	}
}

// SetRoomGuard installs the room authorization check. Without one, joins are refused.
func (h *Hub) SetRoomGuard(guard RoomGuard) { h.guard = guard }

// SetOnConnect registers a callback run after a user's connection is registered.
func (h *Hub) SetOnConnect(fn func(userID string)) { h.onConnect = fn }

// Run starts the hub's main loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("[Hub] WebSocket hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.log.Info("[Hub] WebSocket hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.deliveries:
			h.deliver(d)

		case <-pingTicker.C:
			h.deliver(&delivery{data: encode(h.log, MessagePing, nil)})
		}
	}
}

// Register adds a client. When it returns the hub has indexed the client,
// so frames submitted afterwards reach it. After Run has returned the
// client's queue is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
		return
	}
	if h.onConnect != nil {
		go h.onConnect(client.UserID)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	first := h.userClients[client.UserID] == nil
	if first {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true

	h.log.Info("[Hub] ✅ Client registered",
		zap.String("user", client.UserID),
		zap.String("client", client.ID),
		zap.Int("total_clients", len(h.clients)),
	)

	if first {
		go h.BroadcastUserStatus(client.UserID, true)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	if clients, ok := h.userClients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userClients, client.UserID)
			go h.BroadcastUserStatus(client.UserID, false)
		}
	}

	client.mu.Lock()
	for room := range client.Rooms {
		if clients, ok := h.roomClients[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.roomClients, room)
			}
		}
	}
	client.mu.Unlock()

	client.closeSend()
	h.log.Info("[Hub] ❌ Client disconnected",
		zap.String("user", client.UserID),
		zap.String("client", client.ID),
		zap.Int("total_clients", len(h.clients)),
	)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		client.closeSend()
	}
	h.userClients = make(map[string]map[*Client]bool)
	h.roomClients = make(map[string]map[*Client]bool)
}

func (h *Hub) deliver(d *delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var targets map[*Client]bool
	switch {
	case d.room != "":
		targets = h.roomClients[d.room]
	case d.userID != "":
		targets = h.userClients[d.userID]
	default:
		targets = h.clients
	}

	for client := range targets {
		if d.exclude != "" && client.UserID == d.exclude {
			continue
		}
		select {
		case client.Send <- d.data:
		default:
			// slow consumer: drop the connection, the client resyncs on reconnect
			go h.leave(client)
		}
	}
}

func encode(log *zap.Logger, msgType MessageType, payload interface{}) []byte {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		log.Error("[Hub] Error marshaling message", zap.String("type", string(msgType)), zap.Error(err))
		return nil
	}
	return data
}

func (h *Hub) submit(d *delivery) {
	if d.data == nil {
		return
	}
	select {
	case h.deliveries <- d:
	case <-h.done:
		h.log.Debug("[Hub] Hub stopped, frame dropped")
	}
}

// leave hands a client to the hub loop for removal.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ============================================
// Public Methods for Room Management
// ============================================

// JoinRoom subscribes a client to a room if the guard allows it.
func (h *Hub) JoinRoom(ctx context.Context, client *Client, room string) bool {
	if h.guard == nil || !h.guard(ctx, client.UserID, room) {
		h.log.Warn("[Hub] Room join refused", zap.String("user", client.UserID), zap.String("room", room))
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true

	h.log.Debug("[Hub] 👥 Client joined room", zap.String("user", client.UserID), zap.String("room", room))
	return true
}

// LeaveRoom removes a client from a room
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}
}

// ============================================
// Public Methods for Sending Messages
// ============================================

// SendToUser sends a message to every connection of a user.
func (h *Hub) SendToUser(userID string, msgType MessageType, payload interface{}) {
	h.submit(&delivery{userID: userID, data: encode(h.log, msgType, payload)})
}

// SendToRoom broadcasts a message to all clients in a room
func (h *Hub) SendToRoom(room string, msgType MessageType, payload interface{}, excludeUserID string) {
	h.submit(&delivery{room: room, exclude: excludeUserID, data: encode(h.log, msgType, payload)})
}

// BroadcastUserStatus broadcasts user online/offline status
func (h *Hub) BroadcastUserStatus(userID string, online bool) {
	msgType := MessageUserOffline
	if online {
		msgType = MessageUserOnline
	}
	h.submit(&delivery{data: encode(h.log, msgType, map[string]interface{}{
		"userId": userID,
		"online": online,
	})})
}

// ============================================
// Query Methods
// ============================================

// IsUserOnline checks if a user is currently connected
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.userClients[userID]
	return ok
}

// GetOnlineUsers returns a list of online user IDs
func (h *Hub) GetOnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

// GetConnectedClientsCount returns total connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
