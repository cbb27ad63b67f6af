package ui

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
)

const testSelfID = "me"

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

func testConversations() []chat.Conversation {
	self := chat.Participant{ID: testSelfID, Name: "Traveler"}
	return []chat.Conversation{
		{
			ID:           "c-zhang",
			Type:         chat.Direct,
			Participants: []chat.Participant{self, {ID: "u-zhang", Name: "张伟", Online: true}},
			LastMessage:  &chat.Message{ID: "m-z1", ConversationID: "c-zhang", SenderID: "u-zhang", SenderName: "张伟", Content: "长城的照片太美了", Timestamp: testNow.Add(-10 * time.Minute), Type: chat.TypeText},
			UnreadCount:  2,
		},
		{
			ID:           "c-emma",
			Type:         chat.Direct,
			Participants: []chat.Participant{self, {ID: "u-emma", Name: "Emma Wilson"}},
			LastMessage:  &chat.Message{ID: "m-e1", ConversationID: "c-emma", SenderID: testSelfID, SenderName: "Traveler", Content: "See you in Lisbon!", Timestamp: testNow.Add(-time.Hour), Type: chat.TypeText},
		},
		{
			ID:           "c-kyoto",
			Type:         chat.Group,
			GroupName:    "Kyoto Trip",
			Participants: []chat.Participant{self, {ID: "u-kenji", Name: "Kenji"}, {ID: "u-emma", Name: "Emma Wilson"}},
		},
	}
}

func testMessages() []chat.Message {
	return []chat.Message{
		{ID: "m1", ConversationID: "c-emma", SenderID: "u-emma", SenderName: "Emma Wilson", Content: "Are you still going to Lisbon?", Timestamp: testNow.Add(-5 * time.Minute), Type: chat.TypeText, Status: chat.StatusRead},
		{ID: "m2", ConversationID: "c-emma", SenderID: testSelfID, SenderName: "Traveler", Content: "Yes! Flying out Friday.", Timestamp: testNow.Add(-4 * time.Minute), Type: chat.TypeText, Status: chat.StatusRead},
		{ID: "m3", ConversationID: "c-emma", SenderID: testSelfID, SenderName: "Traveler", Content: "Got any tips?", Timestamp: testNow.Add(-30 * time.Second), Type: chat.TypeText, Status: chat.StatusSent},
	}
}

func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	}
	r := []rune(key)[0]
	return tea.KeyPressMsg{Code: r, Text: key}
}
