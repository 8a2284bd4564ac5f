package service

import (
	"errors"
	"fmt"
)

// ErrorKind is the category an error is reported under at the API boundary.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
	KindForbidden
	KindUnauthorized
	KindDependency
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindInvalidInput:
		return "InvalidInput"
	case KindForbidden:
		return "Forbidden"
	case KindUnauthorized:
		return "Unauthorized"
	case KindDependency:
		return "Dependency"
	}
	return "Internal"
}

// Error is a domain error. Sentinels are compared with errors.Is.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	// NotFound
	ErrNotFound           = newError(KindNotFound, "NotFound", "resource not found")
	ErrUserNotFound       = newError(KindNotFound, "UserNotFound", "user not found")
	ErrTeamNotFound       = newError(KindNotFound, "TeamNotFound", "team not found")
	ErrInvitationNotFound = newError(KindNotFound, "InvitationNotFound", "invitation not found")
	ErrTaskNotFound       = newError(KindNotFound, "TaskNotFound", "task not found")
	ErrProjectNotFound    = newError(KindNotFound, "ProjectNotFound", "project not found")
	ErrMessageNotFound    = newError(KindNotFound, "MessageNotFound", "message not found")
	ErrMeetingNotFound    = newError(KindNotFound, "MeetingNotFound", "meeting not found")
	ErrNotAMember         = newError(KindNotFound, "NotAMember", "user is not a member")

	// Conflict
	ErrUserExists            = newError(KindConflict, "UserExists", "user already exists")
	ErrAlreadyOnTeam         = newError(KindConflict, "AlreadyOnTeam", "user already belongs to a team")
	ErrDuplicateInvitation   = newError(KindConflict, "DuplicateInvitation", "an open invitation already exists for this email")
	ErrAlreadyResolved       = newError(KindConflict, "AlreadyResolved", "invitation already resolved")
	ErrInvitationWithdrawn   = newError(KindConflict, "InvitationWithdrawn", "invitation was withdrawn")
	ErrAlreadyCompleted      = newError(KindConflict, "AlreadyCompleted", "already completed")
	ErrDuplicateMember       = newError(KindConflict, "DuplicateMember", "user is already a member")
	ErrInvalidRoleTransition = newError(KindConflict, "InvalidRoleTransition", "role transition not allowed")
	ErrLeaderCannotLeave     = newError(KindConflict, "LeaderCannotLeave", "the team leader cannot leave the team")
	ErrMeetingCanceled       = newError(KindConflict, "MeetingCanceled", "meeting already canceled")

	// InvalidInput
	ErrInvalidInput    = newError(KindInvalidInput, "InvalidInput", "invalid input")
	ErrInvalidEmail    = newError(KindInvalidInput, "InvalidEmail", "invalid email address")
	ErrInvalidDeadline = newError(KindInvalidInput, "InvalidDeadline", "invalid deadline")
	ErrInvalidAddress  = newError(KindInvalidInput, "InvalidAddress", "invalid message address")

	// Forbidden
	ErrForbidden       = newError(KindForbidden, "Forbidden", "forbidden")
	ErrAccountInactive = newError(KindForbidden, "AccountInactive", "account is inactive")

	// Unauthorized
	ErrInvalidCredentials = newError(KindUnauthorized, "InvalidCredentials", "invalid credentials")
	ErrInvalidToken       = newError(KindUnauthorized, "InvalidToken", "invalid token")
)

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// invalid attaches a detail message to an InvalidInput sentinel.
func invalid(base *Error, detail string) error {
	return fmt.Errorf("%w: %s", base, detail)
}

// storeError wraps a datastore failure as a Dependency error.
func storeError(op string, err error) error {
	return &Error{Kind: KindDependency, Code: "Dependency", Message: op, cause: err}
}
