package models

import "fmt"

// InvitationStatus is the decision axis of an invitation.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRejected InvitationStatus = "rejected"
)

// RecordStatus is the soft-delete axis of an invitation.
type RecordStatus string

const (
	RecordActive   RecordStatus = "active"
	RecordInactive RecordStatus = "inactive"
)

// Decision is an invitee's answer to an open invitation.
type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

func (d Decision) IsValid() bool {
	return d == DecisionAccepted || d == DecisionRejected
}

// InvitationState is the only way an invitation's two status columns are
// combined in code. Each value names one legal (invitationStatus, status)
// pair; nothing can hold an unlisted pair.
type InvitationState uint8

const (
	StateUnknown InvitationState = iota
	// pending / active: the only actionable state
	StateOpen
	// pending / inactive: canceled by the team or expired
	StateWithdrawn
	// accepted / active and rejected / active: resolved but still listed
	StateAccepted
	StateRejected
	// accepted / inactive and rejected / inactive: resolved and archived
	StateAcceptedArchived
	StateRejectedArchived
)

var stateColumns = map[InvitationState]struct {
	decision InvitationStatus
	record   RecordStatus
}{
	StateOpen:             {InvitationStatusPending, RecordActive},
	StateWithdrawn:        {InvitationStatusPending, RecordInactive},
	StateAccepted:         {InvitationStatusAccepted, RecordActive},
	StateRejected:         {InvitationStatusRejected, RecordActive},
	StateAcceptedArchived: {InvitationStatusAccepted, RecordInactive},
	StateRejectedArchived: {InvitationStatusRejected, RecordInactive},
}

// ParseInvitationState combines stored columns into a state.
func ParseInvitationState(decision InvitationStatus, record RecordStatus) (InvitationState, error) {
	for state, cols := range stateColumns {
		if cols.decision == decision && cols.record == record {
			return state, nil
		}
	}
	return StateUnknown, fmt.Errorf("invalid invitation state %q/%q", decision, record)
}

// InvitationStatus returns the decision column for the state.
func (s InvitationState) InvitationStatus() InvitationStatus {
	return stateColumns[s].decision
}

// RecordStatus returns the soft-delete column for the state.
func (s InvitationState) RecordStatus() RecordStatus {
	return stateColumns[s].record
}

// IsPending reports invitationStatus = pending, whether or not the record is active.
func (s InvitationState) IsPending() bool {
	return s.InvitationStatus() == InvitationStatusPending
}

func (s InvitationState) IsActive() bool {
	return s.RecordStatus() == RecordActive
}

// Respond resolves an open invitation. ok is false when the state is not open.
func (s InvitationState) Respond(d Decision) (next InvitationState, ok bool) {
	if s != StateOpen {
		return s, false
	}
	switch d {
	case DecisionAccepted:
		return StateAcceptedArchived, true
	case DecisionRejected:
		return StateRejectedArchived, true
	}
	return s, false
}

// Withdraw soft-deletes an open invitation without deciding it.
func (s InvitationState) Withdraw() (next InvitationState, ok bool) {
	if s != StateOpen {
		return s, false
	}
	return StateWithdrawn, true
}

func (s InvitationState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateWithdrawn:
		return "withdrawn"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	case StateAcceptedArchived:
		return "acceptedArchived"
	case StateRejectedArchived:
		return "rejectedArchived"
	}
	return "unknown"
}
