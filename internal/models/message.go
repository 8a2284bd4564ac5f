package models

import (
	"errors"
	"strings"

	"github.com/youlead/youlead-backend/internal/types"
)

var (
	errUnknownChatType = errors.New("sentIn must be one of dm, project, task")
	errMissingTarget   = errors.New("receivedBy is required")
	errSelfMessage     = errors.New("cannot send a direct message to yourself")
)

// ReaderProfile is the partial profile stored in a message's readBy set.
type ReaderProfile struct {
	UID     string  `json:"uid"`
	Name    string  `json:"name"`
	Picture *string `json:"picture,omitempty"`
}

// ReadSet is a message's readers keyed by uid. Adding a reader twice is a no-op.
type ReadSet []ReaderProfile

// Has reports whether uid already read the message.
func (r ReadSet) Has(uid string) bool {
	for _, p := range r {
		if p.UID == uid {
			return true
		}
	}
	return false
}

// Add returns the set with p included and whether it was newly added.
func (r ReadSet) Add(p ReaderProfile) (ReadSet, bool) {
	if r.Has(p.UID) {
		return r, false
	}
	return append(r, p), true
}

// Address names the conversation a message belongs to.
type Address struct {
	SentIn     types.ChatType
	ReceivedBy string
}

// Validate checks the address shape for a message from sender.
func (a Address) Validate(sender string) error {
	if !a.SentIn.IsValid() {
		return errUnknownChatType
	}
	if strings.TrimSpace(a.ReceivedBy) == "" {
		return errMissingTarget
	}
	if a.SentIn == types.ChatDM && a.ReceivedBy == sender {
		return errSelfMessage
	}
	return nil
}

// Room is the socket room messages for this address fan out to. Direct
// messages have no room; they go to both participants' user channels.
func (a Address) Room() string {
	switch a.SentIn {
	case types.ChatProject:
		return "project:" + a.ReceivedBy
	case types.ChatTask:
		return "task:" + a.ReceivedBy
	}
	return ""
}

// ConversationKey identifies the ordering domain of a message. Both
// directions of a direct-message pair share one key.
func ConversationKey(sender string, a Address) string {
	if a.SentIn != types.ChatDM {
		return string(a.SentIn) + ":" + a.ReceivedBy
	}
	lo, hi := sender, a.ReceivedBy
	if hi < lo {
		lo, hi = hi, lo
	}
	return "dm:" + lo + ":" + hi
}
