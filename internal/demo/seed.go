// Package demo provides the deterministic travel-network data used by the
// mock backend, the relay server's initial state, and tests.
package demo

import (
	"fmt"
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
)

// Dataset is a set of conversations and their threads.
type Dataset struct {
	Conversations []chat.Conversation
	Messages      map[string][]chat.Message
}

// People in the demo network.
var (
	ZhangWei    = chat.Participant{ID: "u-zhangwei", Name: "张伟", Online: true}
	EmmaWilson  = chat.Participant{ID: "u-emma", Name: "Emma Wilson"}
	KenjiSato   = chat.Participant{ID: "u-kenji", Name: "Kenji Sato", Online: true}
	AikoTanaka  = chat.Participant{ID: "u-aiko", Name: "Aiko Tanaka"}
	LucasMartin = chat.Participant{ID: "u-lucas", Name: "Lucas Martin"}
	SofiaRossi  = chat.Participant{ID: "u-sofia", Name: "Sofia Rossi", Online: true}
)

// Replies are the canned answers of the simulated peers, used in rotation.
var Replies = []string{
	"That sounds amazing! 🌍",
	"Haha, I'm in! When do we leave?",
	"Send me the itinerary when you have it",
	"好的，没问题！",
	"I'll check flights tonight ✈️",
	"Don't forget your passport this time 😄",
}

// Reply returns the i-th canned reply, wrapping around.
func Reply(i int) string {
	return Replies[i%len(Replies)]
}

// Seed builds the demo dataset for self with timestamps relative to now.
func Seed(self chat.Participant, now time.Time) Dataset {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	lastSeen := ago(3 * time.Hour)
	emma := EmmaWilson
	emma.LastSeen = &lastSeen

	b := builder{self: self, data: Dataset{Messages: make(map[string][]chat.Message)}}

	b.conversation(chat.Conversation{ID: "c-zhangwei", Type: chat.Direct, Participants: []chat.Participant{self, ZhangWei}},
		b.msg(ZhangWei, "你好！下周去长城吗？", ago(2*time.Hour), chat.TypeText),
		b.msg(self, "好啊，周六怎么样？", ago(110*time.Minute), chat.TypeText),
		b.msg(ZhangWei, "长城的照片太美了", ago(10*time.Minute), chat.TypeText),
	)
	b.conversation(chat.Conversation{ID: "c-emma", Type: chat.Direct, Participants: []chat.Participant{self, emma}},
		b.msg(emma, "Just landed in Lisbon ✈️", ago(26*time.Hour), chat.TypeText),
		b.msg(self, "Enjoy! Try the pastéis de nata", ago(25*time.Hour), chat.TypeText),
		b.msg(emma, "See you in Lisbon!", ago(time.Hour), chat.TypeText),
	)
	b.conversation(chat.Conversation{ID: "c-kyoto", Type: chat.Group, GroupName: "Kyoto Trip 🍁", Participants: []chat.Participant{self, KenjiSato, AikoTanaka}},
		b.msg(KenjiSato, "Booked the ryokan for 3 nights", ago(3*time.Hour), chat.TypeText),
		b.msg(self, "Perfect, I'll handle the rail passes", ago(170*time.Minute), chat.TypeText),
		b.msg(AikoTanaka, "Fushimi Inari Taisha, 6am before the crowds", ago(150*time.Minute), chat.TypeLocation),
	)
	b.conversation(chat.Conversation{ID: "c-lucas", Type: chat.Direct, Participants: []chat.Participant{self, LucasMartin}},
		b.msg(LucasMartin, "torres-del-paine.jpg", ago(48*time.Hour), chat.TypeImage),
	)
	b.conversation(chat.Conversation{ID: "c-sofia", Type: chat.Direct, Participants: []chat.Participant{self, SofiaRossi}})

	// unread counts reflect the trailing messages from others
	b.setUnread("c-zhangwei", 1)
	b.setUnread("c-kyoto", 2)
	return b.data
}

type builder struct {
	self chat.Participant
	data Dataset
	seq  int
}

func (b *builder) msg(from chat.Participant, content string, at time.Time, typ chat.MessageType) chat.Message {
	b.seq++
	return chat.Message{
		ID:         fmt.Sprintf("seed-%03d", b.seq),
		SenderID:   from.ID,
		SenderName: from.Name,
		Content:    content,
		Timestamp:  at,
		Type:       typ,
		Status:     chat.StatusRead,
		Read:       true,
	}
}

func (b *builder) conversation(c chat.Conversation, msgs ...chat.Message) {
	for i := range msgs {
		msgs[i].ConversationID = c.ID
	}
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		c.LastMessage = &last
	}
	b.data.Conversations = append(b.data.Conversations, c)
	b.data.Messages[c.ID] = msgs
}

func (b *builder) setUnread(convID string, n int) {
	msgs := b.data.Messages[convID]
	for i, left := len(msgs)-1, n; i >= 0 && left > 0; i-- {
		if msgs[i].SenderID != b.self.ID {
			msgs[i].Read = false
			msgs[i].Status = chat.StatusDelivered
			left--
		}
	}
	for i := range b.data.Conversations {
		c := &b.data.Conversations[i]
		if c.ID != convID {
			continue
		}
		c.UnreadCount = n
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			c.LastMessage = &last
		}
	}
}
