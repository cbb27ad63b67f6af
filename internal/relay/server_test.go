package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/demo"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/protocol"
)

func startServer(t *testing.T, opts Options) (*httptest.Server, *Server) {
	t.Helper()
	if opts.Self.ID == "" {
		opts.Self = testSelf
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewFake(testEpoch)
	}
	s := NewServer(opts)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Hub().Run(ctx)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return ts, s
}

func dialWS(t *testing.T, ts *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitOnline blocks until the hub has registered userID.
func waitOnline(t *testing.T, s *Server, userID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !s.Hub().Online(userID) {
		if time.Now().After(deadline) {
			t.Fatalf("%s never came online", userID)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// waitPending blocks until the hub has scheduled a timer on clk.
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

func writeFrame(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil reads frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, into any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q frame: %v", typ, err)
		}
		env, err := protocol.Decode(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Type != typ {
			continue
		}
		if err := env.Into(into); err != nil {
			t.Fatalf("payload: %v", err)
		}
		return
	}
}

func TestServer_Health(t *testing.T) {
	ts, _ := startServer(t, Options{})

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		t.Errorf("got %d %+v", resp.StatusCode, body)
	}
}

func TestServer_REST(t *testing.T) {
	ts, _ := startServer(t, Options{})

	tests := []struct {
		name string
		path string
		code int
	}{
		{"conversations", "/api/conversations?user=me", http.StatusOK},
		{"conversations without user", "/api/conversations", http.StatusBadRequest},
		{"messages", "/api/conversations/c-emma/messages?user=me", http.StatusOK},
		{"messages of unknown conversation", "/api/conversations/nope/messages?user=me", http.StatusNotFound},
		{"messages of foreign conversation", "/api/conversations/c-emma/messages?user=u-lucas", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.code {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.code)
			}
		})
	}
}

func TestServer_ConversationsReportPresence(t *testing.T) {
	ts, s := startServer(t, Options{})
	dialWS(t, ts, demo.EmmaWilson.ID)
	waitOnline(t, s, demo.EmmaWilson.ID)

	resp, err := http.Get(ts.URL + "/api/conversations?user=me")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var convs []chat.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&convs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, c := range convs {
		if c.ID == "c-emma" && !c.Online(testSelf.ID) {
			t.Error("Emma is connected but reported offline")
		}
	}
}

func TestHub_SendAckAndFanOut(t *testing.T) {
	ts, s := startServer(t, Options{})
	me := dialWS(t, ts, testSelf.ID)
	emma := dialWS(t, ts, demo.EmmaWilson.ID)
	waitOnline(t, s, testSelf.ID)
	waitOnline(t, s, demo.EmmaWilson.ID)

	writeFrame(t, me, protocol.TypeMessage, protocol.Send{
		CorrelationID:  "corr-1",
		ConversationID: "c-emma",
		Content:        "Landing at 9",
	})

	var ack protocol.Ack
	readUntil(t, me, protocol.TypeAck, &ack)
	if ack.CorrelationID != "corr-1" || ack.Message.Content != "Landing at 9" || ack.Message.SenderID != testSelf.ID {
		t.Errorf("ack = %+v", ack)
	}

	var got chat.Message
	readUntil(t, emma, protocol.TypeMessage, &got)
	if got.ID != ack.Message.ID {
		t.Errorf("emma got %s, want %s", got.ID, ack.Message.ID)
	}

	var st protocol.Status
	readUntil(t, me, protocol.TypeStatus, &st)
	if st.MessageID != ack.Message.ID || st.Status != chat.StatusDelivered {
		t.Errorf("status = %+v, want delivered", st)
	}

	// Emma reads the conversation; the sender hears about it
	writeFrame(t, emma, protocol.TypeRead, protocol.Read{ConversationID: "c-emma"})
	readUntil(t, me, protocol.TypeStatus, &st)
	if st.MessageID != ack.Message.ID || st.Status != chat.StatusRead {
		t.Errorf("status = %+v, want read", st)
	}
}

func TestHub_DuplicateSendIsAcknowledgedOnce(t *testing.T) {
	ts, s := startServer(t, Options{})
	me := dialWS(t, ts, testSelf.ID)
	waitOnline(t, s, testSelf.ID)

	req := protocol.Send{CorrelationID: "corr-dup", ConversationID: "c-lucas", Content: "Patagonia?"}
	var first, second protocol.Ack
	writeFrame(t, me, protocol.TypeMessage, req)
	readUntil(t, me, protocol.TypeAck, &first)
	writeFrame(t, me, protocol.TypeMessage, req)
	readUntil(t, me, protocol.TypeAck, &second)

	if first.Message.ID != second.Message.ID {
		t.Errorf("retry stored twice: %s and %s", first.Message.ID, second.Message.ID)
	}
}

func TestHub_RejectsForeignConversation(t *testing.T) {
	ts, s := startServer(t, Options{})
	lucas := dialWS(t, ts, demo.LucasMartin.ID)
	waitOnline(t, s, demo.LucasMartin.ID)

	writeFrame(t, lucas, protocol.TypeMessage, protocol.Send{CorrelationID: "corr-x", ConversationID: "c-emma", Content: "hi"})

	var e protocol.Error
	readUntil(t, lucas, protocol.TypeError, &e)
	if e.CorrelationID != "corr-x" {
		t.Errorf("error correlation = %q", e.CorrelationID)
	}
}

func TestHub_TypingRelayed(t *testing.T) {
	ts, s := startServer(t, Options{})
	me := dialWS(t, ts, testSelf.ID)
	kenji := dialWS(t, ts, demo.KenjiSato.ID)
	waitOnline(t, s, testSelf.ID)
	waitOnline(t, s, demo.KenjiSato.ID)

	writeFrame(t, kenji, protocol.TypeTyping, protocol.Typing{ConversationID: "c-kyoto", UserID: "spoofed", Typing: true})

	var ty protocol.Typing
	readUntil(t, me, protocol.TypeTyping, &ty)
	if ty.UserID != demo.KenjiSato.ID || !ty.Typing || ty.ConversationID != "c-kyoto" {
		t.Errorf("typing = %+v", ty)
	}
}

func TestHub_SimulatedPeerReplies(t *testing.T) {
	clk := clock.NewFake(testEpoch)
	ts, s := startServer(t, Options{Clock: clk, SimulatePeers: true})
	me := dialWS(t, ts, testSelf.ID)
	waitOnline(t, s, testSelf.ID)

	writeFrame(t, me, protocol.TypeMessage, protocol.Send{CorrelationID: "corr-1", ConversationID: "c-sofia", Content: "Ciao!"})
	var ack protocol.Ack
	readUntil(t, me, protocol.TypeAck, &ack)

	waitPending(t, clk)
	clk.Advance(PeerTypingDelay)
	var ty protocol.Typing
	readUntil(t, me, protocol.TypeTyping, &ty)
	if !ty.Typing || ty.UserID != demo.SofiaRossi.ID {
		t.Errorf("typing = %+v, want Sofia typing", ty)
	}

	waitPending(t, clk)
	clk.Advance(PeerReplyDelay)
	var reply chat.Message
	readUntil(t, me, protocol.TypeMessage, &reply)
	if reply.SenderID != demo.SofiaRossi.ID || reply.Content != demo.Reply(0) {
		t.Errorf("reply = %+v", reply)
	}
}
