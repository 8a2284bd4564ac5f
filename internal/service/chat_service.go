package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/socket"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// Chat Service
// ============================================

type SendMessageInput struct {
	SentIn     types.ChatType
	ReceivedBy string
	MsgContent string
	FileID     *string
}

// ChatService persists messages and fans them out over the socket hub.
type ChatService interface {
	Send(ctx context.Context, senderID string, input *SendMessageInput) (*repository.Message, error)
	// Conversation pages backwards from beforeSeq, returning messages oldest first.
	Conversation(ctx context.Context, actorID string, sentIn types.ChatType, target string, beforeSeq int64, limit int) ([]*repository.Message, error)
	MarkRead(ctx context.Context, readerID, messageID string) (*repository.Message, error)
	Edit(ctx context.Context, actorID, messageID, content string) (*repository.Message, error)

	// CanJoinRoom authorizes socket room subscriptions.
	CanJoinRoom(ctx context.Context, userID, room string) bool
	// DeliverPending replays direct messages queued while userID was offline.
	DeliverPending(ctx context.Context, userID string)
}

const conversationStripes = 64

type chatService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	taskRepo    repository.WorkItemRepository
	projectRepo repository.WorkItemRepository
	publisher   Publisher
	pending     PendingQueue
	log         *zap.Logger

	// persist and fan-out of one conversation run under the same stripe
	stripes [conversationStripes]sync.Mutex
	// live dm delivery and offline replay for one recipient; taken after a conversation stripe
	inboxes [conversationStripes]sync.Mutex
}

// NewChatService creates a new chat service
func NewChatService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	taskRepo repository.WorkItemRepository,
	projectRepo repository.WorkItemRepository,
	publisher Publisher,
	pending PendingQueue,
	log *zap.Logger,
) ChatService {
	return &chatService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		publisher:   publisher,
		pending:     pending,
		log:         log,
	}
}

func (s *chatService) stripe(key string) *sync.Mutex {
	return &s.stripes[xxhash.Sum64String(key)%conversationStripes]
}

func (s *chatService) inbox(userID string) *sync.Mutex {
	return &s.inboxes[xxhash.Sum64String(userID)%conversationStripes]
}

// MessageResponse maps a stored message to its wire shape.
func MessageResponse(msg *repository.Message) *models.MessageResponse {
	readBy := []models.ReaderProfile(msg.ReadBy)
	if readBy == nil {
		readBy = []models.ReaderProfile{}
	}
	return &models.MessageResponse{
		ID:         msg.ID,
		Seq:        msg.Seq,
		SentBy:     msg.SentBy,
		SentIn:     string(msg.SentIn),
		ReceivedBy: msg.ReceivedBy,
		ReadBy:     readBy,
		FileID:     msg.FileID,
		Editted:    msg.Editted,
		MsgContent: msg.MsgContent,
		CreatedAt:  msg.CreatedAt,
		UpdatedAt:  msg.UpdatedAt,
	}
}

// authorize checks that user may post to and read addr.
func (s *chatService) authorize(ctx context.Context, user *repository.User, addr models.Address) error {
	switch addr.SentIn {
	case types.ChatDM:
		peer, err := s.userRepo.FindByID(ctx, addr.ReceivedBy)
		if err != nil {
			return storeError("load recipient", err)
		}
		if peer == nil {
			return ErrUserNotFound
		}
		return nil
	case types.ChatProject:
		return s.authorizeWorkItem(ctx, s.projectRepo, user, addr.ReceivedBy, ErrProjectNotFound)
	case types.ChatTask:
		return s.authorizeWorkItem(ctx, s.taskRepo, user, addr.ReceivedBy, ErrTaskNotFound)
	}
	return ErrInvalidAddress
}

func (s *chatService) authorizeWorkItem(ctx context.Context, repo repository.WorkItemRepository, user *repository.User, id string, notFound error) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound
	}
	item, err := repo.FindByID(ctx, id)
	if err != nil {
		return storeError("load "+string(repo.Kind()), err)
	}
	if item == nil {
		return notFound
	}
	if !user.OnTeam(item.TeamID) {
		return ErrForbidden
	}
	return nil
}

// participant reports whether user belongs to a direct conversation.
func participant(msg *repository.Message, userID string) bool {
	return msg.SentBy == userID || msg.ReceivedBy == userID
}

func (s *chatService) loadMessage(ctx context.Context, id string) (*repository.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrMessageNotFound
	}
	msg, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("load message", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

// loadVisible returns the message if user may see its conversation.
func (s *chatService) loadVisible(ctx context.Context, user *repository.User, id string) (*repository.Message, error) {
	msg, err := s.loadMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.SentIn == types.ChatDM {
		if !participant(msg, user.ID) {
			return nil, ErrForbidden
		}
		return msg, nil
	}
	if err := s.authorize(ctx, user, msg.Address()); err != nil {
		return nil, err
	}
	return msg, nil
}

// publish fans a message event out to its room, or to both ends of a
// direct conversation.
func (s *chatService) publish(msg *repository.Message, msgType socket.MessageType, payload interface{}) {
	addr := msg.Address()
	s.publisher.BroadcastChat(addr.Room(), []string{msg.SentBy, msg.ReceivedBy}, msgType, payload)
}

func (s *chatService) Send(ctx context.Context, senderID string, input *SendMessageInput) (*repository.Message, error) {
	addr := models.Address{SentIn: input.SentIn, ReceivedBy: strings.TrimSpace(input.ReceivedBy)}
	if err := addr.Validate(senderID); err != nil {
		return nil, invalid(ErrInvalidAddress, err.Error())
	}
	content := strings.TrimSpace(input.MsgContent)
	if content == "" && input.FileID == nil {
		return nil, invalid(ErrInvalidInput, "message is empty")
	}

	sender, err := loadUser(ctx, s.userRepo, senderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, sender, addr); err != nil {
		return nil, err
	}

	msg := &repository.Message{
		SentBy:     sender.ID,
		SentIn:     addr.SentIn,
		ReceivedBy: addr.ReceivedBy,
		FileID:     input.FileID,
		MsgContent: content,
	}

	lock := s.stripe(models.ConversationKey(sender.ID, addr))
	lock.Lock()
	defer lock.Unlock()

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, storeError("create message", err)
	}
	if addr.SentIn != types.ChatDM {
		s.publish(msg, socket.MessageChatNew, MessageResponse(msg))
		return msg, nil
	}

	inbox := s.inbox(addr.ReceivedBy)
	inbox.Lock()
	defer inbox.Unlock()

	if !s.publisher.IsUserOnline(addr.ReceivedBy) {
		// the recipient gets it from the replay when their socket connects
		s.publisher.BroadcastChat("", []string{msg.SentBy}, socket.MessageChatNew, MessageResponse(msg))
		if err := s.pending.PushPending(ctx, addr.ReceivedBy, msg.ID); err != nil {
			s.log.Warn("pending delivery not queued", zap.String("recipient", addr.ReceivedBy), zap.String("message", msg.ID), zap.Error(err))
		}
		return msg, nil
	}

	// older queued messages go out before this one
	s.flushPending(ctx, addr.ReceivedBy)
	s.publish(msg, socket.MessageChatNew, MessageResponse(msg))
	return msg, nil
}

func (s *chatService) Conversation(ctx context.Context, actorID string, sentIn types.ChatType, target string, beforeSeq int64, limit int) ([]*repository.Message, error) {
	addr := models.Address{SentIn: sentIn, ReceivedBy: strings.TrimSpace(target)}
	if err := addr.Validate(actorID); err != nil {
		return nil, invalid(ErrInvalidAddress, err.Error())
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, addr); err != nil {
		return nil, err
	}

	q := repository.ConversationQuery{
		SentIn:     addr.SentIn,
		ReceivedBy: addr.ReceivedBy,
		BeforeSeq:  beforeSeq,
		Limit:      limit,
	}
	if addr.SentIn == types.ChatDM {
		q.Peer = actor.ID
	}
	messages, err := s.messageRepo.ListConversation(ctx, q)
	if err != nil {
		return nil, storeError("list messages", err)
	}
	if messages == nil {
		messages = []*repository.Message{}
	}
	return messages, nil
}

func (s *chatService) MarkRead(ctx context.Context, readerID, messageID string) (*repository.Message, error) {
	reader, err := loadUser(ctx, s.userRepo, readerID)
	if err != nil {
		return nil, err
	}
	msg, err := s.loadVisible(ctx, reader, messageID)
	if err != nil {
		return nil, err
	}

	added, err := s.messageRepo.AddReader(ctx, msg.ID, reader.ID)
	if err != nil {
		return nil, storeError("mark read", err)
	}
	if !added {
		return msg, nil
	}

	msg.ReadBy, _ = msg.ReadBy.Add(models.ReaderProfile{UID: reader.ID, Name: reader.Name, Picture: reader.Picture})
	s.publish(msg, socket.MessageChatRead, map[string]interface{}{
		"messageId": msg.ID,
		"reader":    models.ReaderProfile{UID: reader.ID, Name: reader.Name, Picture: reader.Picture},
	})
	return msg, nil
}

func (s *chatService) Edit(ctx context.Context, actorID, messageID, content string) (*repository.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid(ErrInvalidInput, "message is empty")
	}
	msg, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SentBy != actorID {
		return nil, ErrForbidden
	}

	if err := s.messageRepo.UpdateContent(ctx, msg.ID, content); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, ErrMessageNotFound
		}
		return nil, storeError("edit message", err)
	}
	msg.MsgContent = content
	msg.Editted = true

	s.publish(msg, socket.MessageChatEdited, MessageResponse(msg))
	return msg, nil
}

func (s *chatService) CanJoinRoom(ctx context.Context, userID, room string) bool {
	kind, id, ok := socket.SplitRoom(room)
	if !ok {
		return false
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return false
	}

	switch kind {
	case "team":
		return user.OnTeam(id)
	case "project":
		return s.authorizeWorkItem(ctx, s.projectRepo, user, id, ErrProjectNotFound) == nil
	case "task":
		return s.authorizeWorkItem(ctx, s.taskRepo, user, id, ErrTaskNotFound) == nil
	}
	return false
}

func (s *chatService) DeliverPending(ctx context.Context, userID string) {
	inbox := s.inbox(userID)
	inbox.Lock()
	defer inbox.Unlock()

	s.flushPending(ctx, userID)
}

// flushPending replays userID's queued direct messages in queue order.
// Callers hold the recipient's inbox lock.
func (s *chatService) flushPending(ctx context.Context, userID string) {
	ids, err := s.pending.DrainPending(ctx, userID)
	if err != nil {
		s.log.Warn("pending messages not drained", zap.String("user", userID), zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}

	messages, err := s.messageRepo.FindByIDs(ctx, ids)
	if err != nil {
		s.log.Error("pending messages not loaded", zap.String("user", userID), zap.Int("count", len(ids)), zap.Error(err))
		return
	}
	for _, msg := range messages {
		s.publisher.BroadcastChat("", []string{userID}, socket.MessageChatNew, MessageResponse(msg))
	}
	s.log.Debug("pending messages delivered", zap.String("user", userID), zap.Int("count", len(messages)))
}
