package ui

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/charmbracelet/x/ansi"
)

func TestMenuItems(t *testing.T) {
	own := chat.Message{ID: "m1", SenderID: testSelfID, Timestamp: testNow}
	peer := chat.Message{ID: "m2", SenderID: "u-emma", Timestamp: testNow}
	recalled := chat.Message{ID: "m3", SenderID: testSelfID, Timestamp: testNow, Recalled: true}

	tests := []struct {
		name string
		msg  chat.Message
		now  time.Time
		want []MenuAction
	}{
		{"own fresh", own, testNow.Add(time.Minute), []MenuAction{ActionReply, ActionCopy, ActionForward, ActionDelete, ActionRecall}},
		{"own just inside window", own, testNow.Add(chat.RecallWindow - time.Millisecond), []MenuAction{ActionReply, ActionCopy, ActionForward, ActionDelete, ActionRecall}},
		{"own at window edge", own, testNow.Add(chat.RecallWindow), []MenuAction{ActionReply, ActionCopy, ActionForward, ActionDelete}},
		{"peer", peer, testNow, []MenuAction{ActionReply, ActionCopy, ActionForward, ActionDelete}},
		{"recalled", recalled, testNow, []MenuAction{ActionDelete}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MenuItems(tt.msg, testSelfID, tt.now); !slices.Equal(got, tt.want) {
				t.Errorf("MenuItems() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextMenu_Cursor(t *testing.T) {
	m := NewContextMenu(chat.Message{ID: "m1", SenderID: "u-emma"}, testSelfID, testNow)

	if m.Selected() != ActionReply {
		t.Errorf("initial selection = %v, want reply", m.Selected())
	}
	m.MoveUp()
	if m.Selected() != ActionReply {
		t.Error("cursor should not move above the first item")
	}
	for i := 0; i < 10; i++ {
		m.MoveDown()
	}
	if m.Selected() != ActionDelete {
		t.Errorf("cursor should stop at the last item, got %v", m.Selected())
	}
}

func TestContextMenu_PlaceAndHitTest(t *testing.T) {
	m := NewContextMenu(chat.Message{ID: "m1", SenderID: testSelfID, Timestamp: testNow}, testSelfID, testNow)
	w, h := m.Size()
	if h != len(m.Items())+2 {
		t.Fatalf("menu height = %d, want items plus border", h)
	}

	m.Place(78, 20, 80, 24)
	b := m.Bounds()
	if b.X+b.W > 80 || b.Y+b.H > 24 {
		t.Errorf("menu %+v should be shifted onto an 80x24 screen", b)
	}
	if b.W != w || b.H != h {
		t.Errorf("bounds size %dx%d, want %dx%d", b.W, b.H, w, h)
	}

	if a, ok := m.ActionAt(b.X+2, b.Y+1); !ok || a != ActionReply {
		t.Errorf("first item row = %v,%v want reply", a, ok)
	}
	if a, ok := m.ActionAt(b.X+2, b.Y+len(m.Items())); !ok || a != ActionRecall {
		t.Errorf("last item row = %v,%v want recall", a, ok)
	}
	if _, ok := m.ActionAt(b.X+2, b.Y); ok {
		t.Error("border row should not hit an item")
	}
	if _, ok := m.ActionAt(b.X-1, b.Y+1); ok {
		t.Error("outside the menu should not hit an item")
	}
}

func TestContextMenu_View(t *testing.T) {
	m := NewContextMenu(chat.Message{ID: "m1", SenderID: "u-emma"}, testSelfID, testNow)
	view := ansi.Strip(m.View())
	for _, s := range []string{"Reply", "Copy", "Forward", "Delete"} {
		if !strings.Contains(view, s) {
			t.Errorf("menu should list %q", s)
		}
	}
	if strings.Contains(view, "Recall") {
		t.Error("peer messages cannot be recalled")
	}
}

type dismissed struct{}

func TestDismisser(t *testing.T) {
	d := NewDismisser()
	if d.HandleClick(0, 0) != nil {
		t.Error("nothing registered should dispatch nothing")
	}

	d.Register(Rect{X: 10, Y: 5, W: 10, H: 4}, dismissed{})
	if !d.Active() {
		t.Fatal("Register should activate")
	}

	if d.HandleClick(12, 6) != nil {
		t.Error("click inside the bounds should not dismiss")
	}
	if !d.Active() {
		t.Error("click inside should keep the registration")
	}

	if _, ok := d.HandleClick(30, 6).(dismissed); !ok {
		t.Error("click outside should dispatch the dismissal")
	}
	if d.Active() {
		t.Error("dismissal should unregister")
	}
	if d.HandleClick(30, 6) != nil {
		t.Error("a second outside click should do nothing")
	}
}

func TestDismisser_SingleSlot(t *testing.T) {
	type first struct{}
	type second struct{}

	d := NewDismisser()
	d.Register(Rect{X: 0, Y: 0, W: 5, H: 5}, first{})
	d.Register(Rect{X: 20, Y: 0, W: 5, H: 5}, second{})

	// inside the first popup's old bounds, outside the current one
	if _, ok := d.HandleClick(1, 1).(second); !ok {
		t.Error("re-registering should replace the previous popup")
	}
}

func TestDismisser_Unregister(t *testing.T) {
	d := NewDismisser()
	d.Register(Rect{W: 1, H: 1}, dismissed{})
	d.Unregister()
	if d.HandleClick(50, 50) != nil {
		t.Error("unregistered dismisser should not dispatch")
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 2, Y: 3, W: 4, H: 2}
	tests := []struct {
		x, y int
		want bool
	}{
		{2, 3, true},
		{5, 4, true},
		{6, 4, false},
		{5, 5, false},
		{1, 3, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}
