package transport

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/demo"
	pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
)

// Mock reply timing: the peer starts typing ReplyDelay after a send and
// answers TypingDuration later.
const (
	DefaultReplyDelay     = 500 * time.Millisecond
	DefaultTypingDuration = 1000 * time.Millisecond
)

// MockPort is an in-process backend. Every send is echoed back as sent and
// answered by the conversation's peer after a short typing pause.
//
// Tests drive it with a clock.Fake; QueueSendError makes the next sends fail.
type MockPort struct {
	mu sync.Mutex

	self           chat.Participant
	clock          clock.Clock
	replyDelay     time.Duration
	typingDuration time.Duration

	convs    []chat.Conversation
	messages map[string][]chat.Message
	replies  int

	sendErrs []error
	timers   map[clock.Timer]struct{}
	events   chan Event
	closed   bool

	// OnSend, when set, observes every accepted request.
	OnSend func(req SendRequest)

	log *slog.Logger
}

// MockOption customizes a MockPort.
type MockOption func(*MockPort)

// WithReplyTiming overrides the typing delay and duration.
func WithReplyTiming(delay, typing time.Duration) MockOption {
	return func(m *MockPort) {
		m.replyDelay = delay
		m.typingDuration = typing
	}
}

// WithDataset replaces the demo seed.
func WithDataset(data demo.Dataset) MockOption {
	return func(m *MockPort) {
		m.convs = data.Conversations
		m.messages = data.Messages
	}
}

// NewMockPort creates a mock backend seeded with the demo network.
func NewMockPort(self chat.Participant, clk clock.Clock, opts ...MockOption) *MockPort {
	if clk == nil {
		clk = clock.Real{}
	}
	seed := demo.Seed(self, clk.Now())
	m := &MockPort{
		self:           self,
		clock:          clk,
		replyDelay:     DefaultReplyDelay,
		typingDuration: DefaultTypingDuration,
		convs:          seed.Conversations,
		messages:       seed.Messages,
		timers:         make(map[clock.Timer]struct{}),
		events:         make(chan Event, 64),
		log:            logger.WithComponent("mock-port"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.messages == nil {
		m.messages = make(map[string][]chat.Message)
	}
	return m
}

func (m *MockPort) LoadConversations(ctx context.Context) ([]chat.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]chat.Conversation, len(m.convs))
	for i, c := range m.convs {
		out[i] = c.Clone()
	}
	return out, nil
}

func (m *MockPort) LoadMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.find(conversationID) == nil {
		return nil, pkgerrors.ConversationNotFound(conversationID)
	}
	return append([]chat.Message(nil), m.messages[conversationID]...), nil
}

// OptimisticStatus is sent: the mock confirms every send immediately.
func (m *MockPort) OptimisticStatus() chat.Status { return chat.StatusSent }

func (m *MockPort) Events() <-chan Event { return m.events }

// QueueSendError makes upcoming Send calls fail, one error per call.
func (m *MockPort) QueueSendError(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErrs = append(m.sendErrs, errs...)
}

func (m *MockPort) Send(ctx context.Context, req SendRequest) (chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return chat.Message{}, pkgerrors.SendFailed(req.ConversationID, context.Canceled)
	}
	if len(m.sendErrs) > 0 {
		err := m.sendErrs[0]
		m.sendErrs = m.sendErrs[1:]
		return chat.Message{}, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return chat.Message{}, pkgerrors.EmptyMessage()
	}
	conv := m.find(req.ConversationID)
	if conv == nil {
		return chat.Message{}, pkgerrors.ConversationNotFound(req.ConversationID)
	}
	if req.Type == "" {
		req.Type = chat.TypeText
	}

	msg := chat.Message{
		ID:             chat.NewMessageID(),
		CorrelationID:  req.CorrelationID,
		ConversationID: req.ConversationID,
		SenderID:       m.self.ID,
		SenderName:     m.self.Name,
		SenderAvatar:   m.self.Avatar,
		Content:        req.Content,
		Timestamp:      m.clock.Now(),
		Type:           req.Type,
		Status:         chat.StatusSent,
		Read:           true,
		ReplyToID:      req.ReplyToID,
	}
	m.store(conv, msg)

	if peer, ok := conv.Peer(m.self.ID); ok {
		m.scheduleReply(req.ConversationID, peer)
	}
	if m.OnSend != nil {
		m.OnSend(req)
	}
	m.log.Debug("accepted send", "conversationID", req.ConversationID, "correlationID", req.CorrelationID)
	return msg, nil
}

// Deliver simulates a participant writing to a conversation: the message
// is stored and pushed as an EventMessage.
func (m *MockPort) Deliver(convID, senderID, content string) (chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv := m.find(convID)
	if conv == nil {
		return chat.Message{}, pkgerrors.ConversationNotFound(convID)
	}
	var sender chat.Participant
	for _, p := range conv.Participants {
		if p.ID == senderID {
			sender = p
		}
	}
	if sender.ID == "" || sender.ID == m.self.ID {
		return chat.Message{}, pkgerrors.E(pkgerrors.Op("transport.Deliver"), pkgerrors.KindInvalid, senderID+" is not a peer in "+convID)
	}

	msg := chat.Message{
		ID:             chat.NewMessageID(),
		ConversationID: convID,
		SenderID:       sender.ID,
		SenderName:     sender.Name,
		SenderAvatar:   sender.Avatar,
		Content:        content,
		Timestamp:      m.clock.Now(),
		Type:           chat.TypeText,
		Status:         chat.StatusDelivered,
	}
	m.store(conv, msg)
	if !m.closed {
		m.emit(Event{Kind: EventMessage, ConversationID: convID, Message: msg})
	}
	return msg, nil
}

// MarkRead is accepted and ignored: the simulated peers never read.
func (m *MockPort) MarkRead(ctx context.Context, conversationID string) error {
	return nil
}

// scheduleReply must be called with mu held.
func (m *MockPort) scheduleReply(convID string, peer chat.Participant) {
	var typingTimer clock.Timer
	typingTimer = m.clock.AfterFunc(m.replyDelay, func() {
		m.mu.Lock()
		delete(m.timers, typingTimer)
		if m.closed {
			m.mu.Unlock()
			return
		}
		m.emit(Event{Kind: EventTyping, ConversationID: convID, Typing: true})

		var replyTimer clock.Timer
		replyTimer = m.clock.AfterFunc(m.typingDuration, func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.timers, replyTimer)
			if m.closed {
				return
			}
			m.emit(Event{Kind: EventTyping, ConversationID: convID, Typing: false})
			m.emit(Event{Kind: EventMessage, ConversationID: convID, Message: m.reply(convID, peer)})
		})
		m.timers[replyTimer] = struct{}{}
		m.mu.Unlock()
	})
	m.timers[typingTimer] = struct{}{}
}

// reply must be called with mu held.
func (m *MockPort) reply(convID string, peer chat.Participant) chat.Message {
	msg := chat.Message{
		ID:             chat.NewMessageID(),
		ConversationID: convID,
		SenderID:       peer.ID,
		SenderName:     peer.Name,
		SenderAvatar:   peer.Avatar,
		Content:        demo.Reply(m.replies),
		Timestamp:      m.clock.Now(),
		Type:           chat.TypeText,
		Status:         chat.StatusDelivered,
	}
	m.replies++
	if conv := m.find(convID); conv != nil {
		m.store(conv, msg)
	}
	return msg
}

// emit must be called with mu held. A full buffer drops the event rather
// than stalling a timer callback.
func (m *MockPort) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.log.Warn("event buffer full, dropping event", "kind", ev.Kind, "conversationID", ev.ConversationID)
	}
}

// find must be called with mu held.
func (m *MockPort) find(convID string) *chat.Conversation {
	for i := range m.convs {
		if m.convs[i].ID == convID {
			return &m.convs[i]
		}
	}
	return nil
}

// store must be called with mu held.
func (m *MockPort) store(conv *chat.Conversation, msg chat.Message) {
	m.messages[conv.ID] = append(m.messages[conv.ID], msg)
	last := msg
	conv.LastMessage = &last
}

// Close cancels pending replies and closes the event channel.
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for t := range m.timers {
		t.Stop()
	}
	m.timers = nil
	close(m.events)
	return nil
}
