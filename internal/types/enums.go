package types

// Role is a user's platform/team role.
type Role string

// User Role values
const (
	RoleAdmin      Role = "admin"
	RoleTeamMember Role = "teamMember"
	RoleTeamLeader Role = "teamLeader"
	RoleCoLeader   Role = "coLeader"
	RoleUnassigned Role = "unAssigned"
)

// AccountStatus values
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// EntityStatus is the derived status shared by tasks and projects.
type EntityStatus string

const (
	StatusPending   EntityStatus = "pending"
	StatusCompleted EntityStatus = "completed"
	StatusPastDue   EntityStatus = "pastDue"
)

// Task Priority values
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// EntityKind selects the table and activity context of a work item.
type EntityKind string

const (
	KindTask    EntityKind = "task"
	KindProject EntityKind = "project"
)

// ChatType is the addressing context of a message.
type ChatType string

const (
	ChatDM      ChatType = "dm"
	ChatProject ChatType = "project"
	ChatTask    ChatType = "task"
)

// ActivityContext discriminates activity payloads.
type ActivityContext string

const (
	ContextTask       ActivityContext = "task"
	ContextProject    ActivityContext = "project"
	ContextMeeting    ActivityContext = "meeting"
	ContextAuth       ActivityContext = "auth"
	ContextTeam       ActivityContext = "team"
	ContextInvitation ActivityContext = "invitation"
)

// User presence values (socket layer)
const (
	UserOnline  = "online"
	UserOffline = "offline"
)

// Valid values for validation
var ValidRoles = []Role{
	RoleAdmin, RoleTeamMember, RoleTeamLeader, RoleCoLeader, RoleUnassigned,
}

var ValidEntityStatuses = []EntityStatus{
	StatusPending, StatusCompleted, StatusPastDue,
}

var ValidPriorities = []Priority{
	PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow,
}

var ValidChatTypes = []ChatType{
	ChatDM, ChatProject, ChatTask,
}

var ValidActivityContexts = []ActivityContext{
	ContextTask, ContextProject, ContextMeeting, ContextAuth, ContextTeam, ContextInvitation,
}

func contains[T comparable](values []T, v T) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func (r Role) IsValid() bool { return contains(ValidRoles, r) }

// HasTeam reports whether the role implies team membership.
func (r Role) HasTeam() bool {
	return r == RoleTeamMember || r == RoleTeamLeader || r == RoleCoLeader
}

// CanManageTeam reports whether the role may invite and remove members.
func (r Role) CanManageTeam() bool {
	return r == RoleTeamLeader || r == RoleCoLeader
}

func (a AccountStatus) IsValid() bool {
	return a == AccountActive || a == AccountInactive
}

func (s EntityStatus) IsValid() bool { return contains(ValidEntityStatuses, s) }

func (p Priority) IsValid() bool { return contains(ValidPriorities, p) }

func (k EntityKind) IsValid() bool { return k == KindTask || k == KindProject }

// ActivityContext returns the activity context written for this kind.
func (k EntityKind) ActivityContext() ActivityContext {
	if k == KindProject {
		return ContextProject
	}
	return ContextTask
}

func (c ChatType) IsValid() bool { return contains(ValidChatTypes, c) }

func (c ActivityContext) IsValid() bool { return contains(ValidActivityContexts, c) }
