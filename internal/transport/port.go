// Package transport connects the client to a messaging backend. The UI
// only sees the Port interface; MockPort simulates a peer locally and
// RemotePort talks to a relay server over HTTP and WebSocket.
package transport

import (
	"context"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
)

// SendRequest is one outgoing message. CorrelationID ties the optimistic
// local copy to the backend's acknowledgement.
type SendRequest struct {
	ConversationID string
	CorrelationID  string
	Content        string
	Type           chat.MessageType
	ReplyToID      string
}

// EventKind identifies what an Event carries.
type EventKind int

const (
	// EventMessage: a new message from someone else (Message is set).
	EventMessage EventKind = iota
	// EventTyping: a peer started or stopped typing (Typing is set).
	EventTyping
	// EventStatus: delivery status of one of our messages changed.
	EventStatus
	// EventAck: the backend stored a message after Send had already given
	// up on it (Message carries the CorrelationID).
	EventAck
	// EventConnection: the live channel went up (Err nil) or down.
	EventConnection
)

// Event is pushed by the backend.
type Event struct {
	Kind           EventKind
	ConversationID string
	Message        chat.Message
	Typing         bool
	MessageID      string
	Status         chat.Status
	Err            error
}

// Port is the backend as seen by the UI.
type Port interface {
	LoadConversations(ctx context.Context) ([]chat.Conversation, error)
	LoadMessages(ctx context.Context, conversationID string) ([]chat.Message, error)

	// Send delivers a message and returns the backend's stored copy.
	Send(ctx context.Context, req SendRequest) (chat.Message, error)

	// MarkRead tells the backend the user has read a conversation.
	MarkRead(ctx context.Context, conversationID string) error

	// OptimisticStatus is the status a message gets when it is appended
	// locally, before Send returns.
	OptimisticStatus() chat.Status

	// Events delivers pushed events. The channel is closed by Close.
	Events() <-chan Event

	Close() error
}
