package models

import "testing"

func TestParseInvitationState(t *testing.T) {
	tests := []struct {
		decision InvitationStatus
		record   RecordStatus
		want     InvitationState
		wantErr  bool
	}{
		{InvitationStatusPending, RecordActive, StateOpen, false},
		{InvitationStatusPending, RecordInactive, StateWithdrawn, false},
		{InvitationStatusAccepted, RecordActive, StateAccepted, false},
		{InvitationStatusRejected, RecordInactive, StateRejectedArchived, false},
		{"declined", RecordActive, StateUnknown, true},
		{InvitationStatusAccepted, "deleted", StateUnknown, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.decision)+"/"+string(tt.record), func(t *testing.T) {
			got, err := ParseInvitationState(tt.decision, tt.record)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("state: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInvitationStateColumnsRoundTrip(t *testing.T) {
	for state := StateOpen; state <= StateRejectedArchived; state++ {
		got, err := ParseInvitationState(state.InvitationStatus(), state.RecordStatus())
		if err != nil {
			t.Fatalf("%s: unexpected error %v", state, err)
		}
		if got != state {
			t.Errorf("round trip: got %s, want %s", got, state)
		}
	}
}

func TestInvitationStateRespond(t *testing.T) {
	tests := []struct {
		name     string
		from     InvitationState
		decision Decision
		want     InvitationState
		wantOK   bool
	}{
		{"accept open", StateOpen, DecisionAccepted, StateAcceptedArchived, true},
		{"reject open", StateOpen, DecisionRejected, StateRejectedArchived, true},
		{"accept twice", StateAcceptedArchived, DecisionAccepted, StateAcceptedArchived, false},
		{"accept withdrawn", StateWithdrawn, DecisionAccepted, StateWithdrawn, false},
		{"bad decision", StateOpen, "maybe", StateOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.from.Respond(tt.decision)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Respond: got (%s, %v), want (%s, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInvitationStateWithdraw(t *testing.T) {
	next, ok := StateOpen.Withdraw()
	if !ok || next != StateWithdrawn {
		t.Fatalf("Withdraw open: got (%s, %v)", next, ok)
	}
	if !next.IsPending() || next.IsActive() {
		t.Errorf("withdrawn should be pending and inactive")
	}
	if _, ok := StateRejected.Withdraw(); ok {
		t.Errorf("Withdraw rejected should fail")
	}
}
