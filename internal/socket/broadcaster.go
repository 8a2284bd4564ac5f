package socket

import "go.uber.org/zap"

// Broadcaster provides high-level methods for broadcasting events
type Broadcaster struct {
	hub *Hub
	log *zap.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, log *zap.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, log: log}
}

// IsUserOnline reports whether the user has at least one open connection.
func (b *Broadcaster) IsUserOnline(userID string) bool {
	return b.hub.IsUserOnline(userID)
}

// ============================================
// Chat Broadcasting
// ============================================

// BroadcastChat delivers a chat event. Room conversations go to the room's
// subscribers, direct conversations go to each listed user.
func (b *Broadcaster) BroadcastChat(room string, recipients []string, msgType MessageType, payload interface{}) {
	if room != "" {
		b.log.Debug("📡 BroadcastChat", zap.String("room", room), zap.String("type", string(msgType)))
		b.hub.SendToRoom(room, msgType, payload, "")
		return
	}
	b.NotifyUsers(recipients, msgType, payload)
}

// ============================================
// Team Broadcasting
// ============================================

// BroadcastTeamEvent broadcasts to everyone subscribed to the team room.
func (b *Broadcaster) BroadcastTeamEvent(teamID string, msgType MessageType, payload interface{}) {
	b.log.Debug("📡 BroadcastTeamEvent", zap.String("team", teamID), zap.String("type", string(msgType)))
	b.hub.SendToRoom(TeamRoom(teamID), msgType, payload, "")
}

// ============================================
// Direct User Messaging
// ============================================

// NotifyUsers sends a message to multiple specific users
func (b *Broadcaster) NotifyUsers(userIDs []string, msgType MessageType, payload interface{}) {
	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		b.hub.SendToUser(userID, msgType, payload)
	}
}
