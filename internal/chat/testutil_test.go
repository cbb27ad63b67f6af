package chat

import (
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
)

var testEpoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

var testSelf = Participant{ID: "me", Name: "Traveler"}

// testInbox returns an inbox with three conversations and a fake clock.
//
//	c-zhang  direct with 张伟, last message 10 minutes ago, 2 unread
//	c-emma   direct with Emma Wilson, last message 1 hour ago
//	c-group  group "Kyoto Trip", no messages
func testInbox() (*Inbox, *clock.Fake) {
	clk := clock.NewFake(testEpoch)
	in := NewInbox(testSelf, clk)
	in.Load([]Conversation{
		{
			ID:           "c-emma",
			Type:         Direct,
			Participants: []Participant{testSelf, {ID: "u-emma", Name: "Emma Wilson", Online: true}},
			LastMessage:  &Message{ID: "m-e1", SenderID: "u-emma", Content: "See you in Lisbon!", Timestamp: testEpoch.Add(-time.Hour)},
		},
		{
			ID:           "c-group",
			Type:         Group,
			GroupName:    "Kyoto Trip",
			Participants: []Participant{testSelf, {ID: "u-kenji", Name: "Kenji"}, {ID: "u-emma", Name: "Emma Wilson"}},
		},
		{
			ID:           "c-zhang",
			Type:         Direct,
			Participants: []Participant{testSelf, {ID: "u-zhang", Name: "张伟"}},
			LastMessage:  &Message{ID: "m-z1", SenderID: "u-zhang", Content: "长城的照片太美了", Timestamp: testEpoch.Add(-10 * time.Minute)},
			UnreadCount:  2,
		},
	})
	return in, clk
}
