package models

import "time"

// ============================================
// Envelope
// ============================================

// Envelope wraps every API response.
type Envelope struct {
	Success    bool         `json:"success"`
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	Data       interface{}  `json:"data,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// FieldError is one request validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Name     string  `json:"name" binding:"required,min=2"`
	Email    string  `json:"email" binding:"required,deliverable"`
	Password string  `json:"password" binding:"required,min=8"`
	Phone    *string `json:"phone,omitempty" binding:"omitempty,e164"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type StatusCounts struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	PastDue   int `json:"pastDue"`
}

type UserResponse struct {
	ID            string        `json:"uid"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         *string       `json:"phone,omitempty"`
	Picture       *string       `json:"picture,omitempty"`
	Role          string        `json:"role"`
	AccountStatus string        `json:"accountStatus"`
	TeamID        *string       `json:"teamId,omitempty"`
	TaskStatus    *StatusCounts `json:"taskStatus,omitempty"`
	ProjectStatus *StatusCounts `json:"projectStatus,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type UpdateUserRequest struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=2"`
	Phone   *string `json:"phone,omitempty" binding:"omitempty,e164"`
	Picture *string `json:"picture,omitempty" binding:"omitempty,url"`
}

type UpdateAccountStatusRequest struct {
	AccountStatus string `json:"accountStatus" binding:"required,oneof=active inactive"`
}

// ============================================
// Team DTOs
// ============================================

type CreateTeamRequest struct {
	Name         string  `json:"name" binding:"required,min=2,max=80"`
	Organization *string `json:"organization,omitempty" binding:"omitempty,max=120"`
}

type PromoteRequest struct {
	Role string `json:"role" binding:"required,oneof=teamMember coLeader"`
}

type TeamResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Organization *string   `json:"organization,omitempty"`
	TeamLeaderID string    `json:"teamLeaderId"`
	LeaderName   string    `json:"leaderName,omitempty"`
	MemberCount  int       `json:"memberCount"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// ============================================
// Invitation DTOs
// ============================================

type CreateInvitationRequest struct {
	Email string `json:"email" binding:"required"`
}

type RespondInvitationRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accepted rejected"`
}

type InvitationResponse struct {
	ID               string        `json:"id"`
	InviteeEmail     string        `json:"inviteeEmail"`
	TeamID           string        `json:"teamId"`
	InvitedBy        string        `json:"invitedBy"`
	InvitationStatus string        `json:"invitationStatus"`
	Status           string        `json:"status"`
	InviteeLeft      bool          `json:"inviteeLeft"`
	Team             *TeamResponse `json:"team,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	RespondedAt      *time.Time    `json:"respondedAt,omitempty"`
}

// ============================================
// Task / Project DTOs
// ============================================

type CreateWorkItemRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=200"`
	Description string   `json:"description" binding:"max=5000"`
	ProjectID   *string  `json:"projectId,omitempty"`
	Priority    *string  `json:"priority,omitempty" binding:"omitempty,oneof=urgent high medium low"`
	Deadline    *string  `json:"deadline,omitempty"`
	Members     []string `json:"members,omitempty" binding:"omitempty,dive,uuid"`
}

type DeadlineRequest struct {
	Deadline string `json:"deadline" binding:"required"`
}

type MembersRequest struct {
	Members []string `json:"members" binding:"required,min=1,dive,uuid"`
}

type WorkItemResponse struct {
	ID          string      `json:"id"`
	Kind        string      `json:"kind"`
	CreatedBy   string      `json:"createdBy"`
	TeamID      string      `json:"teamId"`
	ProjectID   *string     `json:"projectId,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Members     []string    `json:"members"`
	Deadline    []time.Time `json:"deadline"`
	Status      string      `json:"status"`
	Priority    *string     `json:"priority,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// ============================================
// Message DTOs
// ============================================

type SendMessageRequest struct {
	SentIn     string  `json:"sentIn" binding:"required,oneof=dm project task"`
	ReceivedBy string  `json:"receivedBy" binding:"required,uuid"`
	MsgContent string  `json:"msgContent" binding:"max=4000"`
	FileID     *string `json:"fileId,omitempty" binding:"omitempty,max=200"`
}

type EditMessageRequest struct {
	MsgContent string `json:"msgContent" binding:"required,max=4000"`
}

type MessageResponse struct {
	ID         string          `json:"id"`
	Seq        int64           `json:"seq"`
	SentBy     string          `json:"sentBy"`
	SentIn     string          `json:"sentIn"`
	ReceivedBy string          `json:"receivedBy"`
	ReadBy     []ReaderProfile `json:"readBy"`
	FileID     *string         `json:"fileId,omitempty"`
	Editted    bool            `json:"editted"`
	MsgContent string          `json:"msgContent"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ============================================
// Meeting DTOs
// ============================================

type ScheduleMeetingRequest struct {
	Title           string    `json:"title" binding:"required,max=200"`
	Agenda          *string   `json:"agenda,omitempty"`
	StartsAt        time.Time `json:"startsAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required,min=5,max=480"`
	Attendees       []string  `json:"attendees,omitempty" binding:"omitempty,dive,uuid"`
}

type MeetingResponse struct {
	ID              string    `json:"id"`
	TeamID          string    `json:"teamId"`
	Title           string    `json:"title"`
	Agenda          *string   `json:"agenda,omitempty"`
	StartsAt        time.Time `json:"startsAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Attendees       []string  `json:"attendees"`
	CreatedBy       string    `json:"createdBy"`
	Canceled        bool      `json:"canceled"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ============================================
// Analytics DTOs
// ============================================

type TeamOverviewResponse struct {
	TeamID         string       `json:"teamId"`
	MemberCount    int          `json:"memberCount"`
	Tasks          StatusCounts `json:"tasks"`
	Projects       StatusCounts `json:"projects"`
	CompletionRate string       `json:"completionRate"`
}
