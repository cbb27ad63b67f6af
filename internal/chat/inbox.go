package chat

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
	pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
)

// Inbox is the conversation list plus every loaded thread. Every mutation
// of a thread goes through an Inbox method so that each conversation's
// LastMessage always mirrors the last message of its thread.
type Inbox struct {
	self    Participant
	clock   clock.Clock
	order   []string
	convs   map[string]*Conversation
	threads map[string]*Thread
	typing  map[string]bool
	active  string
	log     *slog.Logger
}

// NewInbox creates an empty inbox for the given user.
func NewInbox(self Participant, clk clock.Clock) *Inbox {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Inbox{
		self:    self,
		clock:   clk,
		convs:   make(map[string]*Conversation),
		threads: make(map[string]*Thread),
		typing:  make(map[string]bool),
		log:     logger.WithComponent("inbox"),
	}
}

// Self returns the current user.
func (i *Inbox) Self() Participant { return i.self }

// Load merges conversations into the inbox. Known conversations are
// replaced, except that a locally loaded thread keeps authority over the
// last message.
func (i *Inbox) Load(convs []Conversation) {
	for _, c := range convs {
		i.Upsert(c)
	}
}

// Upsert adds or replaces a conversation.
func (i *Inbox) Upsert(c Conversation) {
	c = c.Clone()
	if c.Type == "" {
		c.Type = Direct
	}
	if c.UnreadCount < 0 {
		c.UnreadCount = 0
	}
	if c.ID == i.active {
		c.UnreadCount = 0
	}
	if _, ok := i.convs[c.ID]; !ok {
		i.order = append(i.order, c.ID)
	}
	i.convs[c.ID] = &c
	if t, ok := i.threads[c.ID]; ok && t.Len() > 0 {
		i.syncLastMessage(c.ID)
	}
}

// LoadMessages replaces a conversation's thread with msgs in the given order.
func (i *Inbox) LoadMessages(convID string, msgs []Message) error {
	if _, ok := i.convs[convID]; !ok {
		return pkgerrors.ConversationNotFound(convID)
	}
	t := i.thread(convID)
	t.msgs = append(t.msgs[:0], msgs...)
	for idx := range t.msgs {
		t.msgs[idx].ConversationID = convID
	}
	i.syncLastMessage(convID)
	return nil
}

// Conversations returns every conversation, most recent activity first.
// Conversations without messages sort last in load order.
func (i *Inbox) Conversations() []Conversation {
	out := make([]Conversation, 0, len(i.order))
	for _, id := range i.order {
		out = append(out, i.convs[id].Clone())
	}
	sort.SliceStable(out, func(a, b int) bool {
		la, lb := out[a].LastMessage, out[b].LastMessage
		switch {
		case la == nil:
			return false
		case lb == nil:
			return true
		}
		return la.Timestamp.After(lb.Timestamp)
	})
	return out
}

// Filter is Conversations narrowed by a search query.
func (i *Inbox) Filter(query string) []Conversation {
	return Filter(i.Conversations(), query, i.self.ID)
}

// Get returns a copy of the conversation.
func (i *Inbox) Get(id string) (Conversation, bool) {
	c, ok := i.convs[id]
	if !ok {
		return Conversation{}, false
	}
	return c.Clone(), true
}

// Select makes id the active conversation, clears its unread count and
// resets the typing indicator.
func (i *Inbox) Select(id string) error {
	c, ok := i.convs[id]
	if !ok {
		return pkgerrors.ConversationNotFound(id)
	}
	if i.active != id {
		delete(i.typing, i.active)
		delete(i.typing, id)
	}
	i.active = id
	c.UnreadCount = 0
	t := i.thread(id)
	for idx := range t.msgs {
		if !t.msgs[idx].IsOwn(i.self.ID) {
			t.msgs[idx].Read = true
		}
	}
	return nil
}

// ActiveID returns the active conversation id, or "" if none.
func (i *Inbox) ActiveID() string { return i.active }

// Active returns the active conversation.
func (i *Inbox) Active() (Conversation, bool) {
	if i.active == "" {
		return Conversation{}, false
	}
	return i.Get(i.active)
}

// Thread returns the thread for a conversation, creating an empty one on
// first use.
func (i *Inbox) Thread(convID string) *Thread {
	return i.thread(convID)
}

func (i *Inbox) thread(convID string) *Thread {
	t, ok := i.threads[convID]
	if !ok {
		t = &Thread{}
		i.threads[convID] = t
	}
	return t
}

// AppendOutgoing optimistically appends a message from the current user.
// The caller chooses the initial status: sent when the backend confirms
// synchronously, sending when an acknowledgement is still to come.
func (i *Inbox) AppendOutgoing(convID, content string, typ MessageType, replyTo string, status Status) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, pkgerrors.EmptyMessage()
	}
	if _, ok := i.convs[convID]; !ok {
		return Message{}, pkgerrors.ConversationNotFound(convID)
	}
	if typ == "" {
		typ = TypeText
	}
	msg := Message{
		ID:             NewMessageID(),
		CorrelationID:  NewCorrelationID(),
		ConversationID: convID,
		SenderID:       i.self.ID,
		SenderName:     i.self.Name,
		SenderAvatar:   i.self.Avatar,
		Content:        content,
		Timestamp:      i.clock.Now(),
		Type:           typ,
		Status:         status,
		Read:           true,
		ReplyToID:      replyTo,
	}
	t := i.thread(convID)
	t.msgs = append(t.msgs, msg)
	i.syncLastMessage(convID)
	return msg, nil
}

// AppendIncoming appends a message from someone else. Unknown
// conversations are created as direct chats with the sender. It reports
// whether the conversation's unread count went up.
func (i *Inbox) AppendIncoming(msg Message) bool {
	c, ok := i.convs[msg.ConversationID]
	if !ok {
		i.Upsert(Conversation{
			ID:           msg.ConversationID,
			Type:         Direct,
			Participants: []Participant{{ID: msg.SenderID, Name: msg.SenderName, Avatar: msg.SenderAvatar}},
		})
		c = i.convs[msg.ConversationID]
	}

	t := i.thread(msg.ConversationID)
	if msg.ID != "" && t.indexOf(msg.ID) >= 0 {
		return false
	}
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = i.clock.Now()
	}
	if msg.Type == "" {
		msg.Type = TypeText
	}

	unread := msg.ConversationID != i.active && !msg.IsOwn(i.self.ID)
	msg.Read = !unread
	t.msgs = append(t.msgs, msg)
	if unread {
		c.UnreadCount++
	}
	i.syncLastMessage(msg.ConversationID)
	return unread
}

// Reconcile replaces the optimistic message identified by correlationID
// with the server's copy. The status never moves backwards. If no
// optimistic entry exists the server copy is appended.
func (i *Inbox) Reconcile(convID, correlationID string, server Message) (Message, error) {
	if _, ok := i.convs[convID]; !ok {
		return Message{}, pkgerrors.ConversationNotFound(convID)
	}
	t := i.thread(convID)
	server.ConversationID = convID
	server.CorrelationID = correlationID

	idx := t.indexOfCorrelation(correlationID)
	if idx < 0 {
		if server.ID != "" && t.indexOf(server.ID) >= 0 {
			return t.msgs[t.indexOf(server.ID)], nil
		}
		t.msgs = append(t.msgs, server)
		i.syncLastMessage(convID)
		return server, nil
	}

	local := t.msgs[idx]
	if server.ID == "" {
		server.ID = local.ID
	}
	if server.Timestamp.IsZero() {
		server.Timestamp = local.Timestamp
	}
	if server.Content == "" {
		server.Content = local.Content
	}
	if server.ReplyToID == "" {
		server.ReplyToID = local.ReplyToID
	}
	if server.Type == "" {
		server.Type = local.Type
	}
	server.Recalled = server.Recalled || local.Recalled
	if local.Status == StatusFailed {
		server.Status = Max(StatusSent, server.Status)
	} else {
		server.Status = Max(local.Status, server.Status)
	}
	t.msgs[idx] = server
	i.syncLastMessage(convID)
	return server, nil
}

// MarkFailed marks the optimistic message as failed.
func (i *Inbox) MarkFailed(convID, correlationID string) error {
	return i.setStatusBy(convID, correlationID, true, StatusFailed)
}

// MarkSending moves a failed message back to sending ahead of a retry.
func (i *Inbox) MarkSending(convID, correlationID string) error {
	return i.setStatusBy(convID, correlationID, true, StatusSending)
}

// UpdateStatus applies a delivery status reported by the backend.
func (i *Inbox) UpdateStatus(convID, msgID string, status Status) error {
	return i.setStatusBy(convID, msgID, false, status)
}

func (i *Inbox) setStatusBy(convID, key string, byCorrelation bool, status Status) error {
	if _, ok := i.convs[convID]; !ok {
		return pkgerrors.ConversationNotFound(convID)
	}
	t := i.thread(convID)
	idx := t.indexOf(key)
	if byCorrelation {
		idx = t.indexOfCorrelation(key)
	}
	if idx < 0 {
		return pkgerrors.MessageNotFound(convID, key)
	}

	next, err := t.msgs[idx].Status.Advance(status)
	if err != nil {
		i.log.Debug("ignoring status regression", "conversationID", convID, "messageID", t.msgs[idx].ID, "error", err)
		return err
	}
	t.msgs[idx].Status = next
	i.syncLastMessage(convID)
	return nil
}

// FindFailed returns the most recent failed message in a conversation.
func (i *Inbox) FindFailed(convID string) (Message, bool) {
	t, ok := i.threads[convID]
	if !ok {
		return Message{}, false
	}
	for idx := len(t.msgs) - 1; idx >= 0; idx-- {
		if t.msgs[idx].Status == StatusFailed {
			return t.msgs[idx], true
		}
	}
	return Message{}, false
}

// Delete removes a message from the local thread.
func (i *Inbox) Delete(convID, msgID string) error {
	t, ok := i.threads[convID]
	idx := -1
	if ok {
		idx = t.indexOf(msgID)
	}
	if idx < 0 {
		return pkgerrors.MessageNotFound(convID, msgID)
	}
	t.msgs = append(t.msgs[:idx], t.msgs[idx+1:]...)
	i.syncLastMessage(convID)
	return nil
}

// Recall withdraws one of the current user's messages while the recall
// window is open.
func (i *Inbox) Recall(convID, msgID string) (Message, error) {
	t, ok := i.threads[convID]
	idx := -1
	if ok {
		idx = t.indexOf(msgID)
	}
	if idx < 0 {
		return Message{}, pkgerrors.MessageNotFound(convID, msgID)
	}
	if !CanRecall(t.msgs[idx], i.self.ID, i.clock.Now()) {
		return Message{}, pkgerrors.RecallExpired(msgID)
	}
	t.msgs[idx].Recalled = true
	t.msgs[idx].Content = ""
	i.syncLastMessage(convID)
	return t.msgs[idx], nil
}

// Forward copies a message into another conversation as a new outgoing
// message.
func (i *Inbox) Forward(fromConv, msgID, toConv string, status Status) (Message, error) {
	t, ok := i.threads[fromConv]
	idx := -1
	if ok {
		idx = t.indexOf(msgID)
	}
	if idx < 0 {
		return Message{}, pkgerrors.MessageNotFound(fromConv, msgID)
	}
	src := t.msgs[idx]
	return i.AppendOutgoing(toConv, src.Content, src.Type, "", status)
}

// SetTyping records whether the peer in a conversation is typing.
func (i *Inbox) SetTyping(convID string, typing bool) {
	if typing {
		i.typing[convID] = true
	} else {
		delete(i.typing, convID)
	}
}

// Typing reports whether the peer in a conversation is typing.
func (i *Inbox) Typing(convID string) bool {
	return i.typing[convID]
}

// UnreadTotal sums unread counts across all conversations.
func (i *Inbox) UnreadTotal() int {
	n := 0
	for _, c := range i.convs {
		n += c.UnreadCount
	}
	return n
}

// syncLastMessage is the only writer of Conversation.LastMessage once a
// thread has been loaded.
func (i *Inbox) syncLastMessage(convID string) {
	c, ok := i.convs[convID]
	if !ok {
		return
	}
	last, ok := i.thread(convID).Last()
	if !ok {
		c.LastMessage = nil
		return
	}
	c.LastMessage = &last
}
