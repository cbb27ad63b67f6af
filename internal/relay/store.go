package relay

import (
	"strings"
	"sync"
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/demo"
	pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/protocol"
)

// Store keeps conversations and messages in memory. It is safe for
// concurrent use by the hub and the REST handlers.
type Store struct {
	mu       sync.RWMutex
	convs    map[string]*chat.Conversation
	order    []string
	messages map[string][]chat.Message
	// sent maps sender+correlation id to the stored message id so a
	// retried send is acknowledged instead of stored twice.
	sent map[string]string
	now  func() time.Time
}

// NewStore creates a store holding data.
func NewStore(data demo.Dataset, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		convs:    make(map[string]*chat.Conversation),
		messages: make(map[string][]chat.Message),
		sent:     make(map[string]string),
		now:      now,
	}
	for _, c := range data.Conversations {
		c := c.Clone()
		s.convs[c.ID] = &c
		s.order = append(s.order, c.ID)
		s.messages[c.ID] = append([]chat.Message(nil), data.Messages[c.ID]...)
	}
	return s
}

func member(c *chat.Conversation, userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// ConversationsFor lists the conversations userID participates in, with
// the unread count as seen by that user.
func (s *Store) ConversationsFor(userID string) []chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []chat.Conversation{}
	for _, id := range s.order {
		c := s.convs[id]
		if !member(c, userID) {
			continue
		}
		view := c.Clone()
		view.UnreadCount = 0
		for _, m := range s.messages[id] {
			if m.SenderID != userID && m.Status != chat.StatusRead {
				view.UnreadCount++
			}
		}
		out = append(out, view)
	}
	return out
}

// Messages returns a conversation's thread if userID is a participant.
func (s *Store) Messages(convID, userID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.convs[convID]
	if !ok || !member(c, userID) {
		return nil, pkgerrors.ConversationNotFound(convID)
	}
	out := append([]chat.Message(nil), s.messages[convID]...)
	for i := range out {
		out[i].Read = out[i].SenderID == userID || out[i].Status == chat.StatusRead
	}
	return out, nil
}

func (s *Store) conversation(convID string) *chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.convs[convID]
	if !ok {
		return nil
	}
	clone := c.Clone()
	return &clone
}

// Participants returns the member ids of a conversation.
func (s *Store) Participants(convID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.convs[convID]
	if !ok {
		return nil
	}
	ids := make([]string, len(c.Participants))
	for i, p := range c.Participants {
		ids[i] = p.ID
	}
	return ids
}

// Participant looks up a member of a conversation.
func (s *Store) Participant(convID, userID string) (chat.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.convs[convID]; ok {
		for _, p := range c.Participants {
			if p.ID == userID {
				return p, true
			}
		}
	}
	return chat.Participant{}, false
}

// Post stores a message from sender. duplicate is true when the same
// correlation id was already stored; the original message is returned.
func (s *Store) Post(sender chat.Participant, req protocol.Send) (msg chat.Message, duplicate bool, err error) {
	if strings.TrimSpace(req.Content) == "" {
		return chat.Message{}, false, pkgerrors.EmptyMessage()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[req.ConversationID]
	if !ok || !member(c, sender.ID) {
		return chat.Message{}, false, pkgerrors.ConversationNotFound(req.ConversationID)
	}

	key := sender.ID + "/" + req.CorrelationID
	if id, seen := s.sent[key]; seen && req.CorrelationID != "" {
		for _, m := range s.messages[c.ID] {
			if m.ID == id {
				return m, true, nil
			}
		}
	}

	if req.Type == "" {
		req.Type = chat.TypeText
	}
	msg = chat.Message{
		ID:             chat.NewMessageID(),
		CorrelationID:  req.CorrelationID,
		ConversationID: c.ID,
		SenderID:       sender.ID,
		SenderName:     sender.Name,
		SenderAvatar:   sender.Avatar,
		Content:        req.Content,
		Timestamp:      s.now(),
		Type:           req.Type,
		Status:         chat.StatusSent,
		ReplyToID:      req.ReplyToID,
	}
	s.messages[c.ID] = append(s.messages[c.ID], msg)
	last := msg
	c.LastMessage = &last
	if req.CorrelationID != "" {
		s.sent[key] = msg.ID
	}
	return msg, false, nil
}

// Advance moves a message's status forward. It returns false when the
// message is unknown or already at or past status.
func (s *Store) Advance(convID, msgID string, status chat.Status) (chat.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[convID]
	for i := range msgs {
		if msgs[i].ID != msgID {
			continue
		}
		if msgs[i].Status == status || !msgs[i].Status.CanAdvance(status) {
			return msgs[i], false
		}
		msgs[i].Status = status
		return msgs[i], true
	}
	return chat.Message{}, false
}

// MarkRead marks every message in convID not sent by reader as read and
// returns the ones that changed.
func (s *Store) MarkRead(convID, reader string) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[convID]
	if !ok || !member(c, reader) {
		return nil
	}
	var changed []chat.Message
	msgs := s.messages[convID]
	for i := range msgs {
		if msgs[i].SenderID == reader || !msgs[i].Status.CanAdvance(chat.StatusRead) {
			continue
		}
		msgs[i].Status = chat.StatusRead
		changed = append(changed, msgs[i])
	}
	return changed
}
