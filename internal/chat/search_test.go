package chat

import (
	"testing"
	"time"
)

func ids(convs []Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	in, _ := testInbox()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query returns all", "", []string{"c-zhang", "c-emma", "c-group"}},
		{"blank query returns all", "   ", []string{"c-zhang", "c-emma", "c-group"}},
		{"CJK participant name", "张", []string{"c-zhang"}},
		{"CJK last message", "长城", []string{"c-zhang"}},
		{"case insensitive name", "EMMA", []string{"c-emma", "c-group"}},
		{"group name", "kyoto", []string{"c-group"}},
		{"last message content", "lisbon", []string{"c-emma"}},
		{"self name does not match", "traveler", nil},
		{"no match", "reykjavik", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(in.Filter(tt.query))
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
					break
				}
			}
		})
	}
}

func TestFilter_FoldsSpecialCase(t *testing.T) {
	convs := []Conversation{{
		ID:           "c1",
		Participants: []Participant{{ID: "u1", Name: "Jürgen Straße"}},
	}}
	if got := Filter(convs, "STRASSE", "me"); len(got) != 1 {
		t.Errorf("Filter(STRASSE) matched %d, want 1 (ß folds to ss)", len(got))
	}
}

func TestFilter_LastMessageContentAndPreview(t *testing.T) {
	photo := Message{ID: "m1", Type: TypeImage, Content: "sunset over santorini", SenderID: "u1"}
	convs := []Conversation{{
		ID:           "c1",
		Participants: []Participant{{ID: "u1", Name: "Nikos"}},
		LastMessage:  &photo,
	}}

	for _, q := range []string{"santorini", "photo"} {
		if got := Filter(convs, q, "me"); len(got) != 1 {
			t.Errorf("Filter(%q) matched %d, want 1", q, len(got))
		}
	}
}

func TestCanRecall(t *testing.T) {
	sent := testEpoch
	own := Message{ID: "m1", SenderID: "me", Timestamp: sent}
	other := Message{ID: "m2", SenderID: "u-emma", Timestamp: sent}

	tests := []struct {
		name string
		msg  Message
		now  time.Time
		want bool
	}{
		{"own just sent", own, sent, true},
		{"own at 119999ms", own, sent.Add(119999 * time.Millisecond), true},
		{"own at exactly 120000ms", own, sent.Add(120000 * time.Millisecond), false},
		{"own at 120001ms", own, sent.Add(120001 * time.Millisecond), false},
		{"other's message", other, sent, false},
		{"already recalled", Message{SenderID: "me", Timestamp: sent, Recalled: true}, sent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRecall(tt.msg, "me", tt.now); got != tt.want {
				t.Errorf("CanRecall() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	in, _ := testInbox()
	tests := map[string]string{
		"c-zhang": "张伟",
		"c-emma":  "Emma Wilson",
		"c-group": "Kyoto Trip",
	}
	for id, want := range tests {
		c, _ := in.Get(id)
		if got := c.DisplayName(testSelf.ID); got != want {
			t.Errorf("DisplayName(%s) = %q, want %q", id, got, want)
		}
	}
}
