package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/config"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/keys"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/transport"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

var errTest = errors.New("backend unavailable")

// harness bundles a model with the fakes behind it.
type harness struct {
	m        *Model
	port     *transport.MockPort
	clock    *clock.Fake
	copied   []string
	copyErr  error
	notified []string
}

// testConfig loads a config backed by a temp file so Save succeeds.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	return cfg
}

// newHarness creates a model on the seeded mock backend, sizes it and
// loads the conversation list.
func newHarness(t *testing.T, width, height int) *harness {
	t.Helper()
	cfg := testConfig(t)
	clk := clock.NewFake(testNow)
	u := cfg.SelfUser()
	port := transport.NewMockPort(chat.Participant{ID: u.ID, Name: u.Name}, clk)

	h := &harness{port: port, clock: clk}
	h.m = New(cfg, port, Options{
		Clock:   clk,
		Version: "0.0.0-test",
		CopyText: func(s string) error {
			h.copied = append(h.copied, s)
			return h.copyErr
		},
		Notify: func(conversation, sender, preview string) error {
			h.notified = append(h.notified, conversation)
			return nil
		},
	})
	t.Cleanup(func() { _ = h.m.Close() })

	h.m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	h.m.Update(h.m.loadConversations()())
	return h
}

// open opens a conversation and delivers its history.
func (h *harness) open(t *testing.T, id string) {
	t.Helper()
	h.m.openConversation(id)
	if h.m.Inbox().ActiveID() != id {
		t.Fatalf("ActiveID() = %q, want %q", h.m.Inbox().ActiveID(), id)
	}
	h.m.Update(h.m.loadMessages(id)())
}

// send types text into the composer, presses enter and delivers the
// send result.
func (h *harness) send(t *testing.T, text string) {
	t.Helper()
	typeText(h.m, text)
	_, cmd := h.m.Update(keyPress(keys.Enter))
	if cmd == nil {
		t.Fatal("enter returned no send command")
	}
	h.m.Update(cmd())
}

// drain feeds every event the port has queued to the model.
func (h *harness) drain() int {
	n := 0
	for {
		select {
		case ev := <-h.port.Events():
			h.m.handlePortEvent(ev)
			n++
		default:
			return n
		}
	}
}

// collect runs cmd and returns the messages it produces, expanding
// batches. Only use it on commands that do not wait on timers or channels.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// keyPress creates a tea.KeyPressMsg for the given key string.
// Examples: "a", "enter", "tab", "esc", "ctrl+c", "up", "down"
func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case keys.Enter:
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case keys.Tab:
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case keys.Escape:
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case keys.Up:
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case keys.Down:
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case keys.CtrlUp:
		return tea.KeyPressMsg{Code: tea.KeyUp, Mod: tea.ModCtrl}
	case keys.CtrlDown:
		return tea.KeyPressMsg{Code: tea.KeyDown, Mod: tea.ModCtrl}
	case keys.CtrlC:
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	case keys.CtrlO:
		return tea.KeyPressMsg{Code: 'o', Mod: tea.ModCtrl}
	case keys.CtrlR:
		return tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl}
	default:
		// Regular character - for single characters, set both Code and Text
		if len([]rune(key)) == 1 {
			return tea.KeyPressMsg{Code: []rune(key)[0], Text: key}
		}
		// Fallback for unknown keys
		return tea.KeyPressMsg{Text: key}
	}
}

// typeText simulates typing a string by sending individual character key presses.
func typeText(m *Model, text string) {
	for _, ch := range text {
		m.Update(keyPress(string(ch)))
	}
}

func click(x, y int) tea.MouseClickMsg {
	return tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft}
}

func motionAt(x, y int) tea.MouseMotionMsg {
	return tea.MouseMotionMsg{X: x, Y: y, Button: tea.MouseLeft}
}

func releaseAt(x, y int) tea.MouseReleaseMsg {
	return tea.MouseReleaseMsg{X: x, Y: y, Button: tea.MouseLeft}
}

// bubbleOnScreen returns a screen cell inside the bubble of msgID.
func bubbleOnScreen(t *testing.T, m *Model, msgID string) (int, int) {
	t.Helper()
	x, y, ok := m.thread.BubbleOrigin(msgID)
	if !ok {
		t.Fatalf("bubble %s is not on screen", msgID)
	}
	// one cell in, past the bubble's own border
	return m.threadToScreen(x+1, y+1)
}

func lastOwn(t *testing.T, m *Model, convID string) chat.Message {
	t.Helper()
	msgs := m.Inbox().Thread(convID).Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsOwn(m.Inbox().Self().ID) {
			return msgs[i]
		}
	}
	t.Fatalf("no own message in %s", convID)
	return chat.Message{}
}
