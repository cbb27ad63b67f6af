// Package protocol defines the JSON frames exchanged over the LumaTrip
// WebSocket channel. Every frame is an Envelope whose Type selects the
// payload shape.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"
)

// Frame types.
const (
	// TypeMessage: client → server carries Send; server → client carries a chat.Message.
	TypeMessage = "message"
	// TypeAck: server → client, the stored copy of a sent message.
	TypeAck = "ack"
	// TypeTyping: both directions.
	TypeTyping = "typing"
	// TypeStatus: server → client delivery status change.
	TypeStatus = "status"
	// TypeRead: client → server, the user has read a conversation.
	TypeRead = "read"
	// TypeError: server → client, a request was rejected.
	TypeError = "error"
)

// Envelope is the outer frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Send is a client's request to post a message.
type Send struct {
	CorrelationID  string           `json:"correlation_id"`
	ConversationID string           `json:"conversation_id"`
	Content        string           `json:"content"`
	Type           chat.MessageType `json:"type"`
	ReplyToID      string           `json:"reply_to_id,omitempty"`
}

// Ack confirms a Send.
type Ack struct {
	CorrelationID string       `json:"correlation_id"`
	Message       chat.Message `json:"message"`
}

// Typing reports a participant starting or stopping to type.
type Typing struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id,omitempty"`
	Typing         bool   `json:"typing"`
}

// Status reports a delivery status change for one message.
type Status struct {
	ConversationID string      `json:"conversation_id"`
	MessageID      string      `json:"message_id"`
	Status         chat.Status `json:"status"`
}

// Read marks every message in a conversation as read by the sender of the frame.
type Read struct {
	ConversationID string `json:"conversation_id"`
}

// Error rejects a request. CorrelationID is set when it answers a Send.
type Error struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	Message       string `json:"message"`
}

// Encode wraps payload in an Envelope of the given type.
func Encode(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Payload: raw})
}

// Decode parses a frame.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, pkgerrors.ProtocolViolation(fmt.Sprintf("malformed frame: %v", err))
	}
	if env.Type == "" {
		return Envelope{}, pkgerrors.ProtocolViolation("frame without type")
	}
	return env, nil
}

// Into unmarshals the envelope payload into v.
func (e Envelope) Into(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return pkgerrors.ProtocolViolation(fmt.Sprintf("malformed %s payload: %v", e.Type, err))
	}
	return nil
}
