package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/socket"
	"github.com/youlead/youlead-backend/internal/types"
)

type chatFixture struct {
	store   *memStore
	svc     ChatService
	pub     *recordingPublisher
	pending *memPending
	team    *repository.Team
	leader  *repository.User
	member  *repository.User
	project *repository.WorkItem
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	store := newMemStore()
	repos := store.repos()
	pub := &recordingPublisher{online: map[string]bool{}}
	pending := &memPending{}
	team, leader := store.addTeam("Alpha")
	member := store.addUser("Member", types.RoleTeamMember, team.ID)

	projects := NewProjectService(repos.ProjectRepo, repos.UserRepo, nopNotifier{}, zap.NewNop())
	project, err := projects.Create(context.Background(), leader.ID, &CreateWorkItemInput{Name: "Launch"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	return &chatFixture{
		store:   store,
		svc:     NewChatService(repos.MessageRepo, repos.UserRepo, repos.TaskRepo, repos.ProjectRepo, pub, pending, zap.NewNop()),
		pub:     pub,
		pending: pending,
		team:    team,
		leader:  leader,
		member:  member,
		project: project,
	}
}

func TestChatSendAddressing(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	outsider := f.store.addUser("Outsider", types.RoleUnassigned, "")

	tests := []struct {
		name    string
		sender  string
		input   SendMessageInput
		wantErr error
	}{
		{"dm", f.member.ID, SendMessageInput{SentIn: types.ChatDM, ReceivedBy: f.leader.ID, MsgContent: "hi"}, nil},
		{"project", f.member.ID, SendMessageInput{SentIn: types.ChatProject, ReceivedBy: f.project.ID, MsgContent: "status?"}, nil},
		{"unknown context", f.member.ID, SendMessageInput{SentIn: "group", ReceivedBy: f.leader.ID, MsgContent: "hi"}, ErrInvalidAddress},
		{"missing target", f.member.ID, SendMessageInput{SentIn: types.ChatDM, MsgContent: "hi"}, ErrInvalidAddress},
		{"dm to self", f.member.ID, SendMessageInput{SentIn: types.ChatDM, ReceivedBy: f.member.ID, MsgContent: "hi"}, ErrInvalidAddress},
		{"dm to nobody", f.member.ID, SendMessageInput{SentIn: types.ChatDM, ReceivedBy: "3f1d2a6c-0000-4000-8000-000000000000", MsgContent: "hi"}, ErrUserNotFound},
		{"unknown task", f.member.ID, SendMessageInput{SentIn: types.ChatTask, ReceivedBy: "3f1d2a6c-0000-4000-8000-000000000000", MsgContent: "hi"}, ErrTaskNotFound},
		{"project of another team", outsider.ID, SendMessageInput{SentIn: types.ChatProject, ReceivedBy: f.project.ID, MsgContent: "hi"}, ErrForbidden},
		{"empty body", f.member.ID, SendMessageInput{SentIn: types.ChatDM, ReceivedBy: f.leader.ID, MsgContent: "  "}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			msg, err := f.svc.Send(ctx, tt.sender, &input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if err == nil && (msg.Seq == 0 || msg.ID == "" || len(msg.ReadBy) != 0 || msg.Editted) {
				t.Errorf("new message: %+v", msg)
			}
		})
	}
}

func TestChatProjectMessagesGoToRoom(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	_, err := f.svc.Send(ctx, f.member.ID, &SendMessageInput{SentIn: types.ChatProject, ReceivedBy: f.project.ID, MsgContent: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	events := f.pub.ofType(socket.MessageChatNew)
	if len(events) != 1 || events[0].Room != socket.ProjectRoom(f.project.ID) {
		t.Fatalf("events: %+v", events)
	}
}

func TestChatOfflineDirectMessagesAreReplayedInOrder(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	var sent []string
	for i := 0; i < 3; i++ {
		msg, err := f.svc.Send(ctx, f.member.ID, &SendMessageInput{SentIn: types.ChatDM, ReceivedBy: f.leader.ID, MsgContent: fmt.Sprint(i)})
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		sent = append(sent, msg.ID)
	}

	f.pub.mu.Lock()
	f.pub.events = nil
	f.pub.online[f.leader.ID] = true
	f.pub.mu.Unlock()

	f.svc.DeliverPending(ctx, f.leader.ID)
	events := f.pub.ofType(socket.MessageChatNew)
	if len(events) != len(sent) {
		t.Fatalf("replayed %d messages, want %d", len(events), len(sent))
	}
	for i, e := range events {
		resp := e.Payload.(*models.MessageResponse)
		if resp.ID != sent[i] {
			t.Errorf("replay %d: got %s, want %s", i, resp.ID, sent[i])
		}
		if len(e.Recipients) != 1 || e.Recipients[0] != f.leader.ID {
			t.Errorf("replay %d recipients: %v", i, e.Recipients)
		}
	}

	f.svc.DeliverPending(ctx, f.leader.ID)
	if n := len(f.pub.ofType(socket.MessageChatNew)); n != len(sent) {
		t.Errorf("queue not drained: %d events after second replay", n)
	}
}

func TestChatMarkReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	outsider := f.store.addUser("Outsider", types.RoleUnassigned, "")
	msg, _ := f.svc.Send(ctx, f.member.ID, &SendMessageInput{SentIn: types.ChatDM, ReceivedBy: f.leader.ID, MsgContent: "hi"})

	for i := 0; i < 3; i++ {
		got, err := f.svc.MarkRead(ctx, f.leader.ID, msg.ID)
		if err != nil {
			t.Fatalf("mark read %d: %v", i, err)
		}
		if len(got.ReadBy) != 1 || !got.ReadBy.Has(f.leader.ID) {
			t.Errorf("read set after %d reads: %+v", i+1, got.ReadBy)
		}
	}
	if n := len(f.pub.ofType(socket.MessageChatRead)); n != 1 {
		t.Errorf("read receipts published: got %d, want 1", n)
	}

	if _, err := f.svc.MarkRead(ctx, outsider.ID, msg.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider read: got %v, want ErrForbidden", err)
	}
	if _, err := f.svc.MarkRead(ctx, f.leader.ID, "not-a-uuid"); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("malformed id: got %v, want ErrMessageNotFound", err)
	}
}

func TestChatEdit(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	msg, _ := f.svc.Send(ctx, f.member.ID, &SendMessageInput{SentIn: types.ChatDM, ReceivedBy: f.leader.ID, MsgContent: "helo"})

	if _, err := f.svc.Edit(ctx, f.leader.ID, msg.ID, "hijack"); !errors.Is(err, ErrForbidden) {
		t.Errorf("edit by recipient: got %v, want ErrForbidden", err)
	}
	got, err := f.svc.Edit(ctx, f.member.ID, msg.ID, "hello")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !got.Editted || got.MsgContent != "hello" {
		t.Errorf("after edit: %+v", got)
	}

	history, _ := f.svc.Conversation(ctx, f.leader.ID, types.ChatDM, f.member.ID, 0, 10)
	if len(history) != 1 || !history[0].Editted {
		t.Errorf("stored message not marked editted: %+v", history)
	}
}

func TestChatConversationOrderUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	const perSender = 20
	var wg sync.WaitGroup
	for _, sender := range []string{f.member.ID, f.leader.ID} {
		peer := f.leader.ID
		if sender == f.leader.ID {
			peer = f.member.ID
		}
		wg.Add(1)
		go func(sender, peer string) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				if _, err := f.svc.Send(ctx, sender, &SendMessageInput{SentIn: types.ChatDM, ReceivedBy: peer, MsgContent: fmt.Sprint(i)}); err != nil {
					t.Errorf("send: %v", err)
				}
			}
		}(sender, peer)
	}
	wg.Wait()

	// publish order must match persistence order
	var last int64
	for _, e := range f.pub.ofType(socket.MessageChatNew) {
		seq := e.Payload.(*models.MessageResponse).Seq
		if seq <= last {
			t.Fatalf("published seq %d after %d", seq, last)
		}
		last = seq
	}

	history, err := f.svc.Conversation(ctx, f.member.ID, types.ChatDM, f.leader.ID, 0, 100)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(history) != 2*perSender {
		t.Fatalf("history: got %d, want %d", len(history), 2*perSender)
	}
	for i := 1; i < len(history); i++ {
		if history[i].Seq <= history[i-1].Seq {
			t.Fatalf("history out of order at %d", i)
		}
	}

	page, _ := f.svc.Conversation(ctx, f.member.ID, types.ChatDM, f.leader.ID, history[10].Seq, 5)
	if len(page) != 5 || page[4].Seq != history[9].Seq {
		t.Errorf("page before seq %d: %d messages", history[10].Seq, len(page))
	}
}

func TestChatCanJoinRoom(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	other, otherLeader := f.store.addTeam("Beta")

	tests := []struct {
		name   string
		userID string
		room   string
		want   bool
	}{
		{"own team", f.member.ID, socket.TeamRoom(f.team.ID), true},
		{"other team", f.member.ID, socket.TeamRoom(other.ID), false},
		{"own project", f.member.ID, socket.ProjectRoom(f.project.ID), true},
		{"foreign project", otherLeader.ID, socket.ProjectRoom(f.project.ID), false},
		{"missing task", f.member.ID, socket.TaskRoom("3f1d2a6c-0000-4000-8000-000000000000"), false},
		{"unknown kind", f.member.ID, "lobby:1", false},
		{"no separator", f.member.ID, "lobby", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.svc.CanJoinRoom(ctx, tt.userID, tt.room); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// framesFor returns the ids of chat.new frames userID receives, in publish order.
func (p *recordingPublisher) framesFor(userID string) []string {
	var ids []string
	for _, e := range p.ofType(socket.MessageChatNew) {
		for _, r := range e.Recipients {
			if r == userID {
				ids = append(ids, e.Payload.(*models.MessageResponse).ID)
				break
			}
		}
	}
	return ids
}

func TestChatLiveSendAfterReconnectKeepsQueueOrder(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	send := func(content string) *repository.Message {
		t.Helper()
		msg, err := f.svc.Send(ctx, f.member.ID, &SendMessageInput{SentIn: types.ChatDM, ReceivedBy: f.leader.ID, MsgContent: content})
		if err != nil {
			t.Fatalf("send %q: %v", content, err)
		}
		return msg
	}

	queued := send("while away")
	if got := f.pub.framesFor(f.leader.ID); len(got) != 0 {
		t.Fatalf("offline recipient got live frames %v", got)
	}
	if got := f.pub.framesFor(f.member.ID); len(got) != 1 || got[0] != queued.ID {
		t.Fatalf("sender frames: %v", got)
	}

	// the socket is registered but its replay has not run yet
	f.pub.mu.Lock()
	f.pub.online[f.leader.ID] = true
	f.pub.mu.Unlock()

	live := send("back again")
	f.svc.DeliverPending(ctx, f.leader.ID)

	got := f.pub.framesFor(f.leader.ID)
	want := []string{queued.ID, live.ID}
	if len(got) != len(want) {
		t.Fatalf("recipient frames: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: got %s, want %s", i, got[i], want[i])
		}
	}
}
