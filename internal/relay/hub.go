package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/demo"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/protocol"
)

// Simulated peers start typing PeerTypingDelay after a message arrives and
// answer PeerReplyDelay later.
const (
	PeerTypingDelay = 500 * time.Millisecond
	PeerReplyDelay  = 1000 * time.Millisecond
)

type inbound struct {
	from  *Client
	frame []byte
}

// Hub routes frames between connected users. All routing happens on the
// Run goroutine; the client set is also read by REST handlers for presence.
type Hub struct {
	store *Store
	clock clock.Clock

	// users maps a user id to that user's open connections
	users map[string]map[*Client]bool
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	tasks      chan func()
	done       chan struct{}

	simulatePeers bool
	replies       int

	log *slog.Logger
}

// NewHub creates a hub over store. With simulatePeers, a direct message to
// an offline user is answered on that user's behalf.
func NewHub(store *Store, clk clock.Clock, simulatePeers bool) *Hub {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Hub{
		store:         store,
		clock:         clk,
		users:         make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		inbound:       make(chan inbound, 64),
		tasks:         make(chan func(), 16),
		done:          make(chan struct{}),
		simulatePeers: simulatePeers,
		log:           logger.WithComponent("hub"),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case in := <-h.inbound:
			h.handle(in.from, in.frame)
		case task := <-h.tasks:
			task()
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.users {
		for c := range clients {
			close(c.send)
		}
		delete(h.users, id)
	}
}

// join hands a new client to the hub. It reports false once the hub stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Online reports whether userID has at least one open connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[*Client]bool)
	}
	h.users[c.UserID][c] = true
	h.log.Info("client connected", "user", c.UserID, "connections", len(h.users[c.UserID]))
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.users[c.UserID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.users, c.UserID)
	}
	h.log.Info("client disconnected", "user", c.UserID, "connections", len(clients))
}

// after runs f on the hub goroutine once d has elapsed.
func (h *Hub) after(d time.Duration, f func()) {
	h.clock.AfterFunc(d, func() {
		select {
		case h.tasks <- f:
		case <-h.done:
		}
	})
}

func (h *Hub) handle(from *Client, frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		h.reject(from, "", err.Error())
		return
	}

	switch env.Type {
	case protocol.TypeMessage:
		var req protocol.Send
		if err := env.Into(&req); err != nil {
			h.reject(from, "", err.Error())
			return
		}
		h.handleSend(from, req)

	case protocol.TypeTyping:
		var ty protocol.Typing
		if err := env.Into(&ty); err != nil {
			h.reject(from, "", err.Error())
			return
		}
		ty.UserID = from.UserID
		h.toOthers(ty.ConversationID, from.UserID, protocol.TypeTyping, ty)

	case protocol.TypeRead:
		var rd protocol.Read
		if err := env.Into(&rd); err != nil {
			h.reject(from, "", err.Error())
			return
		}
		for _, m := range h.store.MarkRead(rd.ConversationID, from.UserID) {
			h.toUser(m.SenderID, protocol.TypeStatus, protocol.Status{
				ConversationID: m.ConversationID,
				MessageID:      m.ID,
				Status:         chat.StatusRead,
			})
		}

	default:
		h.reject(from, "", "unsupported frame type "+env.Type)
	}
}

func (h *Hub) handleSend(from *Client, req protocol.Send) {
	sender, ok := h.store.Participant(req.ConversationID, from.UserID)
	if !ok {
		h.reject(from, req.CorrelationID, "not a participant of "+req.ConversationID)
		return
	}
	msg, duplicate, err := h.store.Post(sender, req)
	if err != nil {
		h.reject(from, req.CorrelationID, err.Error())
		return
	}
	h.sendTo(from, protocol.TypeAck, protocol.Ack{CorrelationID: req.CorrelationID, Message: msg})
	if duplicate {
		h.log.Debug("duplicate send acknowledged", "user", from.UserID, "correlationID", req.CorrelationID)
		return
	}

	// the sender's other devices see it like any new message
	h.mu.RLock()
	for c := range h.users[from.UserID] {
		if c != from {
			h.sendTo(c, protocol.TypeMessage, msg)
		}
	}
	h.mu.RUnlock()

	if h.toOthers(msg.ConversationID, from.UserID, protocol.TypeMessage, msg) > 0 {
		h.advance(msg, chat.StatusDelivered)
	} else if h.simulatePeers {
		h.simulateReply(msg)
	}
}

// simulateReply answers msg as the conversation's other participant, the
// way a mock backend would, when nobody else is connected.
func (h *Hub) simulateReply(msg chat.Message) {
	conv := h.store.conversation(msg.ConversationID)
	if conv == nil {
		return
	}
	peer, ok := conv.Peer(msg.SenderID)
	if !ok {
		return
	}

	h.after(PeerTypingDelay, func() {
		h.advance(msg, chat.StatusDelivered)
		h.toUser(msg.SenderID, protocol.TypeTyping, protocol.Typing{ConversationID: msg.ConversationID, UserID: peer.ID, Typing: true})

		h.after(PeerReplyDelay, func() {
			h.toUser(msg.SenderID, protocol.TypeTyping, protocol.Typing{ConversationID: msg.ConversationID, UserID: peer.ID, Typing: false})
			h.advance(msg, chat.StatusRead)

			reply, _, err := h.store.Post(peer, protocol.Send{
				ConversationID: msg.ConversationID,
				Content:        demo.Reply(h.replies),
				Type:           chat.TypeText,
			})
			if err != nil {
				h.log.Warn("simulated reply failed", "conversationID", msg.ConversationID, "error", err)
				return
			}
			h.replies++
			h.toOthers(msg.ConversationID, peer.ID, protocol.TypeMessage, reply)
		})
	})
}

// advance moves msg forward and tells its sender.
func (h *Hub) advance(msg chat.Message, status chat.Status) {
	if _, ok := h.store.Advance(msg.ConversationID, msg.ID, status); !ok {
		return
	}
	h.toUser(msg.SenderID, protocol.TypeStatus, protocol.Status{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		Status:         status,
	})
}

// toOthers sends a frame to every connected participant of convID except
// userID and returns how many users received it.
func (h *Hub) toOthers(convID, userID, typ string, payload any) int {
	reached := 0
	for _, id := range h.store.Participants(convID) {
		if id == userID {
			continue
		}
		if h.toUser(id, typ, payload) {
			reached++
		}
	}
	return reached
}

func (h *Hub) toUser(userID, typ string, payload any) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.users[userID]
	for c := range clients {
		h.sendTo(c, typ, payload)
	}
	return len(clients) > 0
}

func (h *Hub) reject(c *Client, correlationID, reason string) {
	h.log.Warn("rejecting frame", "user", c.UserID, "reason", reason)
	h.sendTo(c, protocol.TypeError, protocol.Error{CorrelationID: correlationID, Message: reason})
}

// sendTo queues a frame for c. A client whose buffer is full is skipped;
// its read pump notices the stalled connection and unregisters it.
func (h *Hub) sendTo(c *Client, typ string, payload any) {
	// a frame may still be queued from a client that already left; users
	// is only written on this goroutine so the check needs no lock
	if !h.users[c.UserID][c] {
		return
	}
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		h.log.Error("encode frame", "type", typ, "error", err)
		return
	}
	select {
	case c.send <- frame:
	default:
		h.log.Warn("client buffer full, dropping frame", "user", c.UserID, "type", typ)
	}
}
