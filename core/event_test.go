package core

import "testing"

func TestGameHistoryEvent_Line(t *testing.T) {
	cases := []struct {
		name string
		ev   GameHistoryEvent
		want string
	}{
		{
			name: "incoming group",
			ev:   GameHistoryEvent{Direction: DirectionIncoming, Audience: AudienceEveryone, Sender: "bob", Channel: "play-arena", ChannelType: ChannelGroup, Text: "hello"},
			want: "[from bob | to everyone | GROUP channel play-arena]: hello",
		},
		{
			name: "incoming direct",
			ev:   GameHistoryEvent{Direction: DirectionIncoming, Audience: AudienceSelf, Sender: "moderator", Channel: "moderator", ChannelType: ChannelDirect, Text: "You are a seer."},
			want: "[from moderator | to me | DIRECT channel]: You are a seer.",
		},
		{
			name: "outgoing direct",
			ev:   GameHistoryEvent{Direction: DirectionOutgoing, Audience: AudienceSelf, Sender: "alice", Recipient: "moderator", Channel: "moderator", ChannelType: ChannelDirect, Text: "carol"},
			want: "[from alice (me) | to moderator | DIRECT channel]: carol",
		},
		{
			name: "outgoing group",
			ev:   GameHistoryEvent{Direction: DirectionOutgoing, Audience: AudienceEveryone, Sender: "alice", Channel: "wolf's-den", ChannelType: ChannelGroup, Text: "bob"},
			want: "[from alice (me) | to everyone | GROUP channel wolf's-den]: bob",
		},
	}

	for _, tc := range cases {
		if got := tc.ev.Line(); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestGameHistoryEvent_IsOn(t *testing.T) {
	ev := GameHistoryEvent{Channel: "play-arena"}
	if !ev.IsOn("play-arena") || ev.IsOn("wolf's-den") {
		t.Fatal("IsOn mismatch")
	}
}
