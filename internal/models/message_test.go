package models

import (
	"testing"

	"github.com/youlead/youlead-backend/internal/types"
)

func TestReadSetAddIsIdempotent(t *testing.T) {
	var set ReadSet
	reader := ReaderProfile{UID: "u1", Name: "Ada"}

	set, added := set.Add(reader)
	if !added {
		t.Fatal("first Add should add")
	}
	set, added = set.Add(reader)
	if added {
		t.Error("second Add should be a no-op")
	}
	if len(set) != 1 {
		t.Errorf("len: got %d, want 1", len(set))
	}
}

func TestAddressValidate(t *testing.T) {
	tests := []struct {
		name    string
		addr    Address
		wantErr bool
	}{
		{"dm", Address{types.ChatDM, "u2"}, false},
		{"project", Address{types.ChatProject, "p1"}, false},
		{"task", Address{types.ChatTask, "t1"}, false},
		{"unknown context", Address{"group", "g1"}, true},
		{"missing target", Address{types.ChatProject, " "}, true},
		{"dm to self", Address{types.ChatDM, "u1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.addr.Validate("u1")
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConversationKey(t *testing.T) {
	ab := ConversationKey("a", Address{types.ChatDM, "b"})
	ba := ConversationKey("b", Address{types.ChatDM, "a"})
	if ab != ba {
		t.Errorf("dm keys differ by direction: %q vs %q", ab, ba)
	}
	if got := ConversationKey("a", Address{types.ChatTask, "t9"}); got != "task:t9" {
		t.Errorf("task key: got %q", got)
	}
	if got := (Address{types.ChatProject, "p1"}).Room(); got != "project:p1" {
		t.Errorf("room: got %q", got)
	}
}
