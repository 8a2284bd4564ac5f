package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/youlead/youlead-backend/internal/types"
)

// ActivityPayload is implemented by exactly one struct per activity context.
type ActivityPayload interface {
	Context() types.ActivityContext
	ActivityType() string
}

// Activity is an immutable audit entry.
type Activity struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actorId"`
	TeamID    *string         `json:"teamId,omitempty"`
	Payload   ActivityPayload `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewActivity builds an entry for payload; ID and CreatedAt are set on insert.
func NewActivity(actorID string, teamID *string, payload ActivityPayload) *Activity {
	return &Activity{ActorID: actorID, TeamID: teamID, Payload: payload}
}

func (a *Activity) Context() types.ActivityContext { return a.Payload.Context() }

func (a *Activity) Type() string { return a.Payload.ActivityType() }

func (a *Activity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string                `json:"id"`
		ActorID   string                `json:"actorId"`
		TeamID    *string               `json:"teamId,omitempty"`
		Context   types.ActivityContext `json:"context"`
		Type      string                `json:"type"`
		Payload   ActivityPayload       `json:"payload"`
		CreatedAt time.Time             `json:"createdAt"`
	}{a.ID, a.ActorID, a.TeamID, a.Context(), a.Type(), a.Payload, a.CreatedAt})
}

// ============================================
// Work item activities (task and project)
// ============================================

type WorkItemActivityType string

const (
	WorkItemCreated    WorkItemActivityType = "create"
	WorkItemCompleted  WorkItemActivityType = "complete"
	WorkItemDeadline   WorkItemActivityType = "deadline"
	WorkItemAssigned   WorkItemActivityType = "assign"
	WorkItemUnassigned WorkItemActivityType = "unassign"
)

// WorkItemActivity is the payload for both the task and the project context.
type WorkItemActivity struct {
	Kind      types.EntityKind     `json:"-"`
	Type      WorkItemActivityType `json:"type"`
	ItemID    string               `json:"itemId"`
	ItemName  string               `json:"itemName"`
	ProjectID *string              `json:"projectId,omitempty"`
	Members   []string             `json:"members,omitempty"`
	Deadline  *time.Time           `json:"deadline,omitempty"`
}

func (p WorkItemActivity) Context() types.ActivityContext { return p.Kind.ActivityContext() }
func (p WorkItemActivity) ActivityType() string           { return string(p.Type) }

// ============================================
// Meeting activities
// ============================================

type MeetingActivityType string

const (
	MeetingScheduled MeetingActivityType = "schedule"
	MeetingCanceled  MeetingActivityType = "cancel"
)

type MeetingActivity struct {
	Type      MeetingActivityType `json:"type"`
	MeetingID string              `json:"meetingId"`
	Title     string              `json:"title"`
	StartsAt  time.Time           `json:"startsAt"`
}

func (MeetingActivity) Context() types.ActivityContext { return types.ContextMeeting }
func (p MeetingActivity) ActivityType() string         { return string(p.Type) }

// ============================================
// Auth activities
// ============================================

type AuthActivityType string

const (
	AuthRegistered AuthActivityType = "register"
	AuthLoggedIn   AuthActivityType = "login"
	AuthLoggedOut  AuthActivityType = "logout"
)

type AuthActivity struct {
	Type  AuthActivityType `json:"type"`
	Email string           `json:"email"`
}

func (AuthActivity) Context() types.ActivityContext { return types.ContextAuth }
func (p AuthActivity) ActivityType() string         { return string(p.Type) }

// ============================================
// Team activities
// ============================================

type TeamActivityType string

const (
	TeamCreated       TeamActivityType = "create"
	TeamJoined        TeamActivityType = "join"
	TeamLeft          TeamActivityType = "leave"
	TeamMemberRemoved TeamActivityType = "remove-member"
	TeamPromoted      TeamActivityType = "promote"
)

type TeamActivity struct {
	Type     TeamActivityType `json:"type"`
	TeamID   string           `json:"teamId"`
	TeamName string           `json:"teamName,omitempty"`
	MemberID string           `json:"memberId,omitempty"`
	Role     types.Role       `json:"role,omitempty"`
}

func (TeamActivity) Context() types.ActivityContext { return types.ContextTeam }
func (p TeamActivity) ActivityType() string         { return string(p.Type) }

// ============================================
// Invitation activities
// ============================================

type InvitationActivityType string

const (
	InvitationInvited  InvitationActivityType = "invite"
	InvitationAccepted InvitationActivityType = "accept"
	InvitationDeclined InvitationActivityType = "decline"
	InvitationCanceled InvitationActivityType = "cancel"
	InvitationExpired  InvitationActivityType = "expire"
)

type InvitationActivity struct {
	Type         InvitationActivityType `json:"type"`
	InvitationID string                 `json:"invitationId"`
	TeamID       string                 `json:"teamId"`
	InviteeEmail string                 `json:"inviteeEmail"`
}

func (InvitationActivity) Context() types.ActivityContext { return types.ContextInvitation }
func (p InvitationActivity) ActivityType() string         { return string(p.Type) }

// DecodeActivityPayload rebuilds a payload from its stored context and JSON body.
func DecodeActivityPayload(ctx types.ActivityContext, raw []byte) (ActivityPayload, error) {
	switch ctx {
	case types.ContextTask, types.ContextProject:
		var p WorkItemActivity
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		p.Kind = types.KindTask
		if ctx == types.ContextProject {
			p.Kind = types.KindProject
		}
		return p, nil
	case types.ContextMeeting:
		var p MeetingActivity
		err := json.Unmarshal(raw, &p)
		return p, err
	case types.ContextAuth:
		var p AuthActivity
		err := json.Unmarshal(raw, &p)
		return p, err
	case types.ContextTeam:
		var p TeamActivity
		err := json.Unmarshal(raw, &p)
		return p, err
	case types.ContextInvitation:
		var p InvitationActivity
		err := json.Unmarshal(raw, &p)
		return p, err
	}
	return nil, fmt.Errorf("unknown activity context %q", ctx)
}
