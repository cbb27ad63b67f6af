// Package chat holds the messaging data model and the Inbox, the single
// state container the UI reads and mutates.
//
// The Inbox is owned by the Bubble Tea update loop and is not safe for
// concurrent use. Accessors return copies so a Message is never shared by
// reference between conversations.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a user summary as shown in conversation lists and headers.
type Participant struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Avatar   string     `json:"avatar,omitempty"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// ConversationType distinguishes one-to-one chats from groups.
type ConversationType string

const (
	Direct ConversationType = "direct"
	Group  ConversationType = "group"
)

// MessageType is the kind of content a message carries.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeVoice    MessageType = "voice"
	TypeLocation MessageType = "location"
	TypeSystem   MessageType = "system"
)

// Message is a single entry in a thread.
type Message struct {
	ID             string      `json:"id"`
	CorrelationID  string      `json:"correlation_id,omitempty"`
	ConversationID string      `json:"conversation_id"`
	SenderID       string      `json:"sender_id"`
	SenderName     string      `json:"sender_name"`
	SenderAvatar   string      `json:"sender_avatar,omitempty"`
	Content        string      `json:"content"`
	Timestamp      time.Time   `json:"timestamp"`
	Type           MessageType `json:"type"`
	Status         Status      `json:"status"`
	Read           bool        `json:"read"`
	ReplyToID      string      `json:"reply_to_id,omitempty"`
	Recalled       bool        `json:"recalled,omitempty"`
}

// IsOwn reports whether the message was sent by selfID.
func (m Message) IsOwn(selfID string) bool {
	return m.SenderID == selfID
}

// Preview is the one-line text shown for a message in the conversation list.
func (m Message) Preview() string {
	if m.Recalled {
		return m.SenderName + " recalled a message"
	}
	switch m.Type {
	case TypeImage:
		return "[Photo]"
	case TypeVoice:
		return "[Voice message]"
	case TypeLocation:
		return "[Location] " + m.Content
	}
	return m.Content
}

// RecallWindow is how long after sending a message its author may recall it.
const RecallWindow = 120000 * time.Millisecond

// CanRecall reports whether selfID may recall msg at time now.
func CanRecall(msg Message, selfID string, now time.Time) bool {
	if !msg.IsOwn(selfID) || msg.Recalled {
		return false
	}
	return now.Sub(msg.Timestamp) < RecallWindow
}

// Conversation is a one-to-one or group chat.
type Conversation struct {
	ID           string           `json:"id"`
	Type         ConversationType `json:"type"`
	Participants []Participant    `json:"participants"`
	GroupName    string           `json:"group_name,omitempty"`
	LastMessage  *Message         `json:"last_message,omitempty"`
	UnreadCount  int              `json:"unread_count"`
}

// Peer returns the first participant that is not selfID.
func (c Conversation) Peer(selfID string) (Participant, bool) {
	for _, p := range c.Participants {
		if p.ID != selfID {
			return p, true
		}
	}
	return Participant{}, false
}

// DisplayName is the group name, or the peer's name for direct chats.
func (c Conversation) DisplayName(selfID string) string {
	if c.GroupName != "" {
		return c.GroupName
	}
	if p, ok := c.Peer(selfID); ok {
		return p.Name
	}
	return c.ID
}

// Online reports whether any participant other than selfID is online.
func (c Conversation) Online(selfID string) bool {
	for _, p := range c.Participants {
		if p.ID != selfID && p.Online {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (c Conversation) Clone() Conversation {
	out := c
	out.Participants = append([]Participant(nil), c.Participants...)
	if c.LastMessage != nil {
		last := *c.LastMessage
		out.LastMessage = &last
	}
	return out
}

// NewMessageID returns a time-ordered, collision-resistant id.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewCorrelationID returns the client-side id that ties an optimistic
// message to the server's acknowledgement.
func NewCorrelationID() string {
	return uuid.NewString()
}
