package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/protocol"
)

const (
	// Time allowed to write a frame to the server.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the server.
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 64 * 1024

	maxReconnectBackoff = 10 * time.Second
)

var errNotConnected = errors.New("not connected to relay")

// DefaultRetryBackoff is the pause before the first send retry.
const DefaultRetryBackoff = 250 * time.Millisecond

// SendBudget is the overall deadline a caller should give Send so that
// every attempt gets its full per-attempt timeout: retries+1 attempts, the
// doubling backoffs between them, and one more attempt of headroom for
// rate limiting.
func SendBudget(perAttempt time.Duration, retries int, backoff time.Duration) time.Duration {
	if retries < 0 {
		retries = 0
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	total := perAttempt * time.Duration(retries+2)
	for range retries {
		total += backoff
		backoff *= 2
	}
	return total
}

// RemoteConfig configures a RemotePort.
type RemoteConfig struct {
	// BaseURL is the relay's http(s) root, e.g. http://localhost:8080.
	BaseURL string
	Self    chat.Participant

	// SendTimeout bounds each attempt to get an acknowledgement.
	SendTimeout time.Duration
	// Retries is how many times a failed send is re-attempted.
	Retries int
	// RetryBackoff is the pause before the first retry; it doubles after.
	RetryBackoff time.Duration
	// ReconnectBackoff is the first pause before re-dialing a dropped channel.
	ReconnectBackoff time.Duration

	// SendRate and SendBurst limit outgoing messages per second.
	SendRate  rate.Limit
	SendBurst int
}

func (c *RemoteConfig) setDefaults() {
	if c.SendTimeout <= 0 {
		c.SendTimeout = 5 * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = 500 * time.Millisecond
	}
	if c.SendRate <= 0 {
		c.SendRate = 5
	}
	if c.SendBurst <= 0 {
		c.SendBurst = 10
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

type ackResult struct {
	msg chat.Message
	err error
}

// RemotePort talks to a relay server: REST (fasthttp) for history and a
// WebSocket for sends, acknowledgements and pushed events. A dropped
// WebSocket is re-dialed in the background.
type RemotePort struct {
	cfg     RemoteConfig
	http    *fasthttp.Client
	limiter *rate.Limiter
	log     *slog.Logger

	outbox chan []byte
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	pending   map[string]chan ackResult
}

// DialRemote connects to the relay. The first dial is synchronous so an
// unreachable server is reported to the caller; later drops reconnect on
// their own and surface as EventConnection.
func DialRemote(ctx context.Context, cfg RemoteConfig) (*RemotePort, error) {
	cfg.setDefaults()
	p := &RemotePort{
		cfg:     cfg,
		http:    &fasthttp.Client{Name: "lumatrip", MaxConnsPerHost: 4},
		limiter: rate.NewLimiter(cfg.SendRate, cfg.SendBurst),
		log:     logger.WithComponent("remote-port"),
		outbox:  make(chan []byte, 256),
		events:  make(chan Event, 256),
		done:    make(chan struct{}),
		pending: make(map[string]chan ackResult),
	}

	conn, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	p.wg.Add(1)
	go p.supervise(conn)
	return p, nil
}

func (p *RemotePort) wsURL() (string, error) {
	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := url.Values{}
	q.Set("user", p.cfg.Self.ID)
	q.Set("name", p.cfg.Self.Name)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *RemotePort) dial(ctx context.Context) (*websocket.Conn, error) {
	target, err := p.wsURL()
	if err != nil {
		return nil, pkgerrors.E(pkgerrors.Op("transport.Dial"), pkgerrors.KindConfig, err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, pkgerrors.E(pkgerrors.Op("transport.Dial"), pkgerrors.KindNetwork, fmt.Sprintf("cannot reach %s", target), err)
	}
	p.log.Info("connected", "url", target)
	return conn, nil
}

// supervise serves conn until it drops, then re-dials with backoff until
// the port is closed.
func (p *RemotePort) supervise(conn *websocket.Conn) {
	defer p.wg.Done()

	for {
		p.setConn(conn)
		p.emit(Event{Kind: EventConnection})
		err := p.serve(conn)

		select {
		case <-p.done:
			return
		default:
		}
		p.setConn(nil)
		p.failPending(pkgerrors.E(pkgerrors.Op("transport.Send"), pkgerrors.KindNetwork, err))
		p.emit(Event{Kind: EventConnection, Err: err})
		p.log.Warn("connection lost", "error", err)

		if conn = p.redial(); conn == nil {
			return
		}
	}
}

// redial retries with exponential backoff. It returns nil once the port
// is closed.
func (p *RemotePort) redial() *websocket.Conn {
	backoff := p.cfg.ReconnectBackoff
	for {
		select {
		case <-p.done:
			return nil
		case <-time.After(backoff):
		}
		conn, err := p.dial(context.Background())
		if err == nil {
			return conn
		}
		backoff = min(backoff*2, maxReconnectBackoff)
	}
}

func (p *RemotePort) setConn(conn *websocket.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn = conn
	p.connected = conn != nil
}

// serve runs the write pump in the background and the read pump inline.
func (p *RemotePort) serve(conn *websocket.Conn) error {
	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		p.writePump(conn, stop)
	}()

	err := p.readPump(conn)
	close(stop)
	conn.Close()
	<-writerDone
	return err
}

func (p *RemotePort) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.log.Warn("read error", "error", err)
			}
			return err
		}
		if err := p.dispatch(data); err != nil {
			p.log.Warn("dropping frame", "error", err)
		}
	}
}

func (p *RemotePort) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-p.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-p.outbox:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				p.log.Warn("write failed", "error", err)
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (p *RemotePort) dispatch(data []byte) error {
	env, err := protocol.Decode(data)
	if err != nil {
		return err
	}

	switch env.Type {
	case protocol.TypeAck:
		var ack protocol.Ack
		if err := env.Into(&ack); err != nil {
			return err
		}
		ack.Message.CorrelationID = ack.CorrelationID
		if !p.resolve(ack.CorrelationID, ackResult{msg: ack.Message}) {
			p.emit(Event{Kind: EventAck, ConversationID: ack.Message.ConversationID, Message: ack.Message})
		}

	case protocol.TypeError:
		var e protocol.Error
		if err := env.Into(&e); err != nil {
			return err
		}
		rejected := pkgerrors.E(pkgerrors.Op("transport.Send"), pkgerrors.KindInvalid, e.Message)
		if e.CorrelationID == "" || !p.resolve(e.CorrelationID, ackResult{err: rejected}) {
			p.log.Warn("relay error", "message", e.Message)
		}

	case protocol.TypeMessage:
		var msg chat.Message
		if err := env.Into(&msg); err != nil {
			return err
		}
		p.emit(Event{Kind: EventMessage, ConversationID: msg.ConversationID, Message: msg})

	case protocol.TypeTyping:
		var ty protocol.Typing
		if err := env.Into(&ty); err != nil {
			return err
		}
		if ty.UserID == p.cfg.Self.ID {
			return nil
		}
		p.emit(Event{Kind: EventTyping, ConversationID: ty.ConversationID, Typing: ty.Typing})

	case protocol.TypeStatus:
		var st protocol.Status
		if err := env.Into(&st); err != nil {
			return err
		}
		p.emit(Event{Kind: EventStatus, ConversationID: st.ConversationID, MessageID: st.MessageID, Status: st.Status})

	default:
		return pkgerrors.ProtocolViolation(fmt.Sprintf("unexpected frame type %q", env.Type))
	}
	return nil
}

// resolve hands an acknowledgement to the waiting Send, if any.
func (p *RemotePort) resolve(correlationID string, res ackResult) bool {
	p.mu.Lock()
	waiter, ok := p.pending[correlationID]
	if ok {
		delete(p.pending, correlationID)
	}
	p.mu.Unlock()

	if ok {
		waiter <- res
	}
	return ok
}

func (p *RemotePort) failPending(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, waiter := range p.pending {
		waiter <- ackResult{err: err}
		delete(p.pending, id)
	}
}

func (p *RemotePort) emit(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.events <- ev:
	default:
		p.log.Warn("event buffer full, dropping event", "kind", ev.Kind)
	}
}

// OptimisticStatus is sending: the message is confirmed by an ack frame.
func (p *RemotePort) OptimisticStatus() chat.Status { return chat.StatusSending }

func (p *RemotePort) Events() <-chan Event { return p.events }

// Send posts a message and waits for its acknowledgement. Network failures
// and timeouts are retried with the same correlation id, which the relay
// uses to deduplicate.
func (p *RemotePort) Send(ctx context.Context, req SendRequest) (chat.Message, error) {
	if req.CorrelationID == "" {
		req.CorrelationID = chat.NewCorrelationID()
	}
	if req.Type == "" {
		req.Type = chat.TypeText
	}

	backoff := p.cfg.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= p.cfg.Retries; attempt++ {
		if attempt > 0 {
			p.log.Info("retrying send", "correlationID", req.CorrelationID, "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return chat.Message{}, pkgerrors.SendFailed(req.ConversationID, ctx.Err())
			case <-p.done:
				return chat.Message{}, pkgerrors.SendFailed(req.ConversationID, errors.New("port closed"))
			}
			backoff *= 2
		}

		msg, err := p.sendOnce(ctx, req)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if !pkgerrors.Retryable(err) {
			break
		}
	}
	return chat.Message{}, lastErr
}

func (p *RemotePort) sendOnce(ctx context.Context, req SendRequest) (chat.Message, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return chat.Message{}, pkgerrors.SendFailed(req.ConversationID, err)
	}

	frame, err := protocol.Encode(protocol.TypeMessage, protocol.Send{
		CorrelationID:  req.CorrelationID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
		Type:           req.Type,
		ReplyToID:      req.ReplyToID,
	})
	if err != nil {
		return chat.Message{}, pkgerrors.E(pkgerrors.Op("transport.Send"), pkgerrors.KindInvalid, err)
	}

	waiter := make(chan ackResult, 1)
	p.mu.Lock()
	if !p.connected {
		p.mu.Unlock()
		return chat.Message{}, pkgerrors.SendFailed(req.ConversationID, errNotConnected)
	}
	p.pending[req.CorrelationID] = waiter
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.pending[req.CorrelationID] == waiter {
			delete(p.pending, req.CorrelationID)
		}
		p.mu.Unlock()
	}()

	select {
	case p.outbox <- frame:
	default:
		return chat.Message{}, pkgerrors.SendFailed(req.ConversationID, errors.New("outbox full"))
	}

	timer := time.NewTimer(p.cfg.SendTimeout)
	defer timer.Stop()

	select {
	case res := <-waiter:
		if res.err != nil {
			return chat.Message{}, res.err
		}
		return res.msg, nil
	case <-timer.C:
		select {
		case res := <-waiter:
			// resolved while the timer fired
			if res.err == nil {
				return res.msg, nil
			}
		default:
		}
		return chat.Message{}, pkgerrors.SendTimeout(req.CorrelationID)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return chat.Message{}, pkgerrors.SendTimeout(req.CorrelationID)
		}
		return chat.Message{}, pkgerrors.SendFailed(req.ConversationID, ctx.Err())
	case <-p.done:
		return chat.Message{}, pkgerrors.SendFailed(req.ConversationID, errors.New("port closed"))
	}
}

// MarkRead tells the relay the user has read a conversation.
func (p *RemotePort) MarkRead(ctx context.Context, conversationID string) error {
	frame, err := protocol.Encode(protocol.TypeRead, protocol.Read{ConversationID: conversationID})
	if err != nil {
		return err
	}
	p.mu.Lock()
	connected := p.connected
	p.mu.Unlock()
	if !connected {
		return pkgerrors.SendFailed(conversationID, errNotConnected)
	}
	select {
	case p.outbox <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *RemotePort) LoadConversations(ctx context.Context) ([]chat.Conversation, error) {
	var out []chat.Conversation
	q := url.Values{"user": {p.cfg.Self.ID}}
	if err := p.getJSON(ctx, "/api/conversations", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *RemotePort) LoadMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	var out []chat.Message
	q := url.Values{"user": {p.cfg.Self.ID}}
	if err := p.getJSON(ctx, "/api/conversations/"+url.PathEscape(conversationID)+"/messages", q, &out); err != nil {
		if pkgerrors.Is(err, pkgerrors.KindNotFound) {
			return nil, pkgerrors.ConversationNotFound(conversationID)
		}
		return nil, err
	}
	return out, nil
}

func (p *RemotePort) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.cfg.BaseURL + path + "?" + query.Encode())
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	timeout := p.cfg.SendTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := p.http.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return pkgerrors.E(pkgerrors.Op("transport.Load"), pkgerrors.KindTimeout, path, err)
		}
		return pkgerrors.LoadFailed(path, err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusNotFound:
		return pkgerrors.E(pkgerrors.Op("transport.Load"), pkgerrors.KindNotFound, path)
	case code != fasthttp.StatusOK:
		return pkgerrors.LoadFailed(path, fmt.Errorf("unexpected status %d", code))
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return pkgerrors.ProtocolViolation(fmt.Sprintf("decode %s: %v", path, err))
	}
	return nil
}

// Close shuts the channel down and closes Events.
func (p *RemotePort) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	conn := p.conn
	p.mu.Unlock()

	if conn != nil {
		// unblock the read pump; the write pump sends the close frame
		conn.SetReadDeadline(time.Now())
	}
	p.wg.Wait()
	close(p.events)
	return nil
}
