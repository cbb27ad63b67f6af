package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/demo"
	pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/protocol"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/relay"
)

func startRelay(t *testing.T, clk clock.Clock) *httptest.Server {
	t.Helper()
	srv := relay.NewServer(relay.Options{Self: testSelf, Clock: clk, SimulatePeers: true})
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Hub().Run(ctx)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return ts
}

func dialTestRemote(t *testing.T, baseURL string, cfg RemoteConfig) *RemotePort {
	t.Helper()
	cfg.BaseURL = baseURL
	cfg.Self = testSelf
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p, err := DialRemote(ctx, cfg)
	if err != nil {
		t.Fatalf("DialRemote: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

// nextEvent waits for an event of kind, skipping others.
func nextEvent(t *testing.T, p *RemotePort, kind EventKind) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-p.Events():
			if !ok {
				t.Fatal("events closed")
			}
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no event of kind %d", kind)
		}
	}
}

func TestRemotePort_Load(t *testing.T) {
	ts := startRelay(t, clock.NewFake(testEpoch))
	p := dialTestRemote(t, ts.URL, RemoteConfig{})
	ctx := context.Background()

	convs, err := p.LoadConversations(ctx)
	if err != nil {
		t.Fatalf("LoadConversations: %v", err)
	}
	if len(convs) != 5 {
		t.Errorf("got %d conversations, want 5", len(convs))
	}

	msgs, err := p.LoadMessages(ctx, "c-kyoto")
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(msgs) != 3 || msgs[2].Type != chat.TypeLocation {
		t.Errorf("unexpected thread %+v", msgs)
	}

	if _, err := p.LoadMessages(ctx, "missing"); !pkgerrors.Is(err, pkgerrors.KindNotFound) {
		t.Errorf("missing conversation: got %v, want not found", err)
	}
}

func TestRemotePort_SendAndSimulatedReply(t *testing.T) {
	clk := clock.NewFake(testEpoch)
	ts := startRelay(t, clk)
	p := dialTestRemote(t, ts.URL, RemoteConfig{})

	if got := p.OptimisticStatus(); got != chat.StatusSending {
		t.Errorf("OptimisticStatus = %s, want sending", got)
	}

	msg, err := p.Send(context.Background(), SendRequest{ConversationID: "c-sofia", CorrelationID: "corr-1", Content: "Roma?"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.CorrelationID != "corr-1" || msg.Status != chat.StatusSent || msg.ID == "" {
		t.Errorf("ack = %+v", msg)
	}

	waitPending(t, clk)
	clk.Advance(500 * time.Millisecond)
	if ev := nextEvent(t, p, EventTyping); !ev.Typing || ev.ConversationID != "c-sofia" {
		t.Errorf("typing event = %+v", ev)
	}

	waitPending(t, clk)
	clk.Advance(1000 * time.Millisecond)
	ev := nextEvent(t, p, EventMessage)
	if ev.Message.SenderID != demo.SofiaRossi.ID || ev.Message.Content != demo.Reply(0) {
		t.Errorf("reply = %+v", ev.Message)
	}
}

func TestRemotePort_RejectedSendIsNotRetried(t *testing.T) {
	ts := startRelay(t, clock.NewFake(testEpoch))
	p := dialTestRemote(t, ts.URL, RemoteConfig{Retries: 1})

	_, err := p.Send(context.Background(), SendRequest{ConversationID: "missing", Content: "hi"})
	if !pkgerrors.Is(err, pkgerrors.KindInvalid) {
		t.Errorf("got %v, want invalid", err)
	}
}

// silentRelay accepts connections and records sends but never answers.
type silentRelay struct {
	mu    sync.Mutex
	sends []protocol.Send
}

func (s *silentRelay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.Decode(data)
		if err != nil || env.Type != protocol.TypeMessage {
			continue
		}
		var req protocol.Send
		if env.Into(&req) == nil {
			s.mu.Lock()
			s.sends = append(s.sends, req)
			s.mu.Unlock()
		}
	}
}

func (s *silentRelay) received() []protocol.Send {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Send(nil), s.sends...)
}

func TestRemotePort_TimeoutRetriesOnceWithSameCorrelation(t *testing.T) {
	silent := &silentRelay{}
	ts := httptest.NewServer(silent)
	t.Cleanup(ts.Close)

	p := dialTestRemote(t, ts.URL, RemoteConfig{
		SendTimeout:  50 * time.Millisecond,
		Retries:      1,
		RetryBackoff: 10 * time.Millisecond,
	})

	_, err := p.Send(context.Background(), SendRequest{ConversationID: "c-emma", CorrelationID: "corr-7", Content: "anyone?"})
	if !pkgerrors.Is(err, pkgerrors.KindTimeout) {
		t.Fatalf("got %v, want timeout", err)
	}

	deadline := time.Now().Add(time.Second)
	for len(silent.received()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	sends := silent.received()
	if len(sends) != 2 {
		t.Fatalf("relay saw %d attempts, want 2", len(sends))
	}
	for _, s := range sends {
		if s.CorrelationID != "corr-7" {
			t.Errorf("attempt correlation = %q, want corr-7", s.CorrelationID)
		}
	}
}

func TestRemotePort_RetriesWithinSendBudget(t *testing.T) {
	silent := &silentRelay{}
	ts := httptest.NewServer(silent)
	t.Cleanup(ts.Close)

	cfg := RemoteConfig{
		SendTimeout:  50 * time.Millisecond,
		Retries:      1,
		RetryBackoff: 10 * time.Millisecond,
	}
	p := dialTestRemote(t, ts.URL, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), SendBudget(cfg.SendTimeout, cfg.Retries, cfg.RetryBackoff))
	defer cancel()
	if _, err := p.Send(ctx, SendRequest{ConversationID: "c-emma", CorrelationID: "corr-8", Content: "hello?"}); !pkgerrors.Is(err, pkgerrors.KindTimeout) {
		t.Fatalf("got %v, want timeout", err)
	}

	deadline := time.Now().Add(time.Second)
	for len(silent.received()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(silent.received()); n != 2 {
		t.Fatalf("relay saw %d attempts, want 2", n)
	}
}

func TestSendBudget(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		retries int
		backoff time.Duration
		want    time.Duration
	}{
		{"no retries", time.Second, 0, 0, 2 * time.Second},
		{"one retry", time.Second, 1, 100 * time.Millisecond, 3*time.Second + 100*time.Millisecond},
		{"backoff doubles", time.Second, 2, 100 * time.Millisecond, 4*time.Second + 300*time.Millisecond},
		{"default backoff", time.Second, 1, 0, 3*time.Second + DefaultRetryBackoff},
		{"negative retries", time.Second, -1, 0, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SendBudget(tt.timeout, tt.retries, tt.backoff); got != tt.want {
				t.Errorf("SendBudget() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDialRemote_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := DialRemote(ctx, RemoteConfig{BaseURL: url, Self: testSelf}); !pkgerrors.Is(err, pkgerrors.KindNetwork) {
		t.Errorf("got %v, want network error", err)
	}
}

func TestRemotePort_CloseClosesEvents(t *testing.T) {
	ts := startRelay(t, clock.NewFake(testEpoch))
	p := dialTestRemote(t, ts.URL, RemoteConfig{})

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for range p.Events() {
	}
	if _, err := p.Send(context.Background(), SendRequest{ConversationID: "c-emma", Content: "late"}); err == nil {
		t.Error("send after Close should fail")
	}
}

func waitPending(t *testing.T, clk *clock.Fake) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for clk.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no timer scheduled")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
