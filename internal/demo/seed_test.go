package demo

import (
	"testing"
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
)

func TestSeed_Consistent(t *testing.T) {
	self := chat.Participant{ID: "me", Name: "Me"}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data := Seed(self, now)

	if len(data.Conversations) == 0 {
		t.Fatal("seed has no conversations")
	}

	seen := make(map[string]bool)
	for _, c := range data.Conversations {
		msgs := data.Messages[c.ID]
		for _, m := range msgs {
			if seen[m.ID] {
				t.Errorf("duplicate message id %q", m.ID)
			}
			seen[m.ID] = true
			if m.ConversationID != c.ID {
				t.Errorf("message %s has conversation %q, want %q", m.ID, m.ConversationID, c.ID)
			}
			if m.Timestamp.After(now) {
				t.Errorf("message %s is in the future", m.ID)
			}
		}

		switch {
		case len(msgs) == 0 && c.LastMessage != nil:
			t.Errorf("%s: LastMessage set on empty thread", c.ID)
		case len(msgs) > 0 && (c.LastMessage == nil || c.LastMessage.ID != msgs[len(msgs)-1].ID):
			t.Errorf("%s: LastMessage does not match the thread", c.ID)
		}

		unread := 0
		for _, m := range msgs {
			if !m.Read {
				unread++
			}
		}
		if unread != c.UnreadCount {
			t.Errorf("%s: %d unread messages, UnreadCount = %d", c.ID, unread, c.UnreadCount)
		}

		if _, ok := c.Peer(self.ID); !ok {
			t.Errorf("%s has no peer", c.ID)
		}
	}
}

func TestReply_Wraps(t *testing.T) {
	if Reply(0) != Reply(len(Replies)) {
		t.Error("Reply should wrap around")
	}
}
