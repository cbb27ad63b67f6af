package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/gesture"
	"github.com/charmbracelet/x/ansi"
)

func newTestThread(t *testing.T) *Thread {
	t.Helper()
	th := NewThread(testSelfID, gesture.DefaultConfig())
	th.SetClock(func() time.Time { return testNow })
	th.SetSize(60, 24)
	th.SetConversation(testConversations()[1], testMessages(), false)
	return th
}

// pressOn presses inside the bubble of id and returns the press position.
func pressOn(t *testing.T, th *Thread, id string) (int, int) {
	t.Helper()
	x, y, ok := th.BubbleOrigin(id)
	if !ok {
		t.Fatalf("bubble %s is not on screen", id)
	}
	x++
	if th.Press(x, y) == nil {
		t.Fatalf("press on %s should schedule the long-press timer", id)
	}
	return x, y
}

func TestThread_MessageAt(t *testing.T) {
	th := newTestThread(t)

	for _, id := range []string{"m1", "m2", "m3"} {
		x, y, ok := th.BubbleOrigin(id)
		if !ok {
			t.Fatalf("bubble %s should be visible", id)
		}
		if m, ok := th.MessageAt(x, y); !ok || m.ID != id {
			t.Errorf("MessageAt(origin of %s) = %q,%v", id, m.ID, ok)
		}
	}

	// peer bubbles hug the left edge, own bubbles the right
	x1, _, _ := th.BubbleOrigin("m1")
	x2, _, _ := th.BubbleOrigin("m2")
	if x1 >= x2 {
		t.Errorf("own bubble should be right of the peer bubble, got %d vs %d", x2, x1)
	}

	if _, ok := th.MessageAt(0, 0); ok {
		t.Error("the border should not hit a bubble")
	}
}

func TestThread_LongPressOpensMenu(t *testing.T) {
	th := newTestThread(t)
	x, y := pressOn(t, th, "m1")

	tick, ok := th.PendingLongPress()
	if !ok || tick.MessageID != "m1" {
		t.Fatalf("PendingLongPress() = %+v,%v", tick, ok)
	}

	open, ok := th.LongPressFired(tick)
	if !ok {
		t.Fatal("long press should open the menu")
	}
	if open.MessageID != "m1" || open.X != x || open.Y != y {
		t.Errorf("OpenMenuMsg = %+v, want m1 at %d,%d", open, x, y)
	}
	if th.GestureState() != gesture.LongPressed {
		t.Errorf("state = %v, want LongPressed", th.GestureState())
	}

	// releasing after the menu opened is not a tap or a reply
	th.Release()
	if _, ok := th.ReplyTo(); ok {
		t.Error("release after long press should not set a reply")
	}
}

func TestThread_JitterKeepsLongPress(t *testing.T) {
	th := newTestThread(t)
	x, y := pressOn(t, th, "m1")
	tick, _ := th.PendingLongPress()

	// one column is 8px, inside the 10px jitter allowance
	th.Move(x+1, y)

	if _, ok := th.LongPressFired(tick); !ok {
		t.Error("small movement should not cancel the long press")
	}
}

func TestThread_SwipeCancelsLongPress(t *testing.T) {
	th := newTestThread(t)
	x, y := pressOn(t, th, "m1")
	tick, _ := th.PendingLongPress()

	th.Move(x+3, y)
	if _, ok := th.LongPressFired(tick); ok {
		t.Error("a swipe should invalidate the long-press timer")
	}
}

func TestThread_SwipeToReply(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		dx, dy    int
		wantReply bool
	}{
		{"peer swipe right past threshold", "m1", 5, 0, true},
		{"peer swipe right short", "m1", 3, 0, false},
		{"peer swipe wrong way", "m1", -5, 0, false},
		{"own swipe left past threshold", "m2", -5, 0, true},
		{"own swipe right", "m2", 5, 0, false},
		{"clamped far swipe still replies", "m1", 20, 0, true},
		{"vertical drift aborts", "m1", 5, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestThread(t)
			x, y := pressOn(t, th, tt.id)

			th.Move(x+tt.dx, y+tt.dy)
			th.Release()

			reply, ok := th.ReplyTo()
			if ok != tt.wantReply {
				t.Fatalf("reply set = %v, want %v", ok, tt.wantReply)
			}
			if ok && reply.ID != tt.id {
				t.Errorf("reply target = %q, want %q", reply.ID, tt.id)
			}
			if th.GestureState() != gesture.Idle {
				t.Errorf("state after release = %v, want Idle", th.GestureState())
			}
		})
	}
}

func TestThread_SwipeShiftsBubbleAndSnapsBack(t *testing.T) {
	th := newTestThread(t)
	x, y := pressOn(t, th, "m1")
	before := ansi.Strip(th.viewport.View())

	th.Move(x+5, y)
	during := ansi.Strip(th.viewport.View())
	if during == before {
		t.Fatal("swiping should displace the bubble")
	}

	cmd := th.Release()
	if cmd == nil {
		t.Fatal("release after a swipe should schedule the snap back")
	}
	th.FinishSnap(SnapBackDoneMsg{MessageID: "m1"})
	if after := ansi.Strip(th.viewport.View()); after != before {
		t.Error("bubble should be back in place after the snap")
	}
}

func TestThread_SnapBackDrawsIntermediateFrame(t *testing.T) {
	th := newTestThread(t)
	x, y := pressOn(t, th, "m1")
	resting := ansi.Strip(th.viewport.View())

	// 24px: displaced but short of the reply threshold
	th.Move(x+3, y)
	swiped := ansi.Strip(th.viewport.View())
	if swiped == resting {
		t.Fatal("swiping should displace the bubble")
	}

	if cmd := th.Release(); cmd == nil {
		t.Fatal("release after a swipe should schedule the snap back")
	}
	snapping := ansi.Strip(th.viewport.View())
	if snapping == swiped {
		t.Error("snap frame should move the bubble back toward its place")
	}
	if snapping == resting {
		t.Error("snap frame should not already be at rest")
	}
	if _, ok := th.ReplyTo(); ok {
		t.Error("a short swipe should not reply")
	}

	th.FinishSnap(SnapBackDoneMsg{MessageID: "m1"})
	if after := ansi.Strip(th.viewport.View()); after != resting {
		t.Error("bubble should be back in place after the snap")
	}
}

func TestThread_Tap(t *testing.T) {
	th := newTestThread(t)
	pressOn(t, th, "m2")
	if cmd := th.Release(); cmd != nil {
		t.Error("a tap should not schedule anything")
	}
	if _, ok := th.ReplyTo(); ok {
		t.Error("a tap should not reply")
	}
}

func TestThread_PressOutsideBubbles(t *testing.T) {
	th := newTestThread(t)
	if cmd := th.Press(1, 20); cmd != nil {
		t.Error("pressing empty space should not start a gesture")
	}
	if th.Move(10, 20) != nil || th.Release() != nil {
		t.Error("move and release without a gesture should be no-ops")
	}
}

func TestThread_SwitchConversationCancelsGesture(t *testing.T) {
	th := newTestThread(t)
	pressOn(t, th, "m1")
	tick, _ := th.PendingLongPress()

	th.SetConversation(testConversations()[0], nil, false)

	if _, ok := th.LongPressFired(tick); ok {
		t.Error("a timer from the previous conversation must not open a menu")
	}
	if th.GestureState() != gesture.Idle {
		t.Error("gesture should be cancelled on switch")
	}
}

func TestThread_SwitchConversationClearsReply(t *testing.T) {
	th := newTestThread(t)
	th.SetReplyTo(testMessages()[0])
	th.SetConversation(testConversations()[0], nil, false)
	if _, ok := th.ReplyTo(); ok {
		t.Error("reply target should not survive a conversation switch")
	}
}

func TestThread_View(t *testing.T) {
	th := newTestThread(t)
	th.SetReplyTo(testMessages()[0])
	msgs := testMessages()
	msgs[2].Status = chat.StatusFailed
	th.SetMessages(msgs, true)

	view := ansi.Strip(th.View())
	for _, want := range []string{
		"Are you still going to Lisbon?",
		"Yes! Flying out Friday.",
		"✓✓",
		"✕ not sent",
		"typing…",
		"Replying to Emma Wilson",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("thread view should contain %q", want)
		}
	}
}

func TestThread_RecalledAndQuoted(t *testing.T) {
	th := newTestThread(t)
	msgs := testMessages()
	msgs[1].Recalled = true
	msgs[2].ReplyToID = "m1"
	th.SetMessages(msgs, false)

	view := ansi.Strip(th.View())
	if !strings.Contains(view, "You recalled a message") {
		t.Error("recalled message should show a system line")
	}
	if strings.Contains(view, "Flying out Friday") {
		t.Error("recalled content should not be shown")
	}
	if !strings.Contains(view, "Emma Wilson: Are you still") {
		t.Error("reply should quote the original")
	}
	// the recalled line sits two rows above m3
	_, y3, _ := th.BubbleOrigin("m3")
	if th.Press(th.width/2, y3-2) != nil {
		t.Error("recalled messages cannot be pressed")
	}
}

func TestThread_PickMessages(t *testing.T) {
	th := newTestThread(t)

	if _, ok := th.Picked(); ok {
		t.Fatal("nothing should be picked initially")
	}
	th.PickPrevious()
	if m, _ := th.Picked(); m.ID != "m3" {
		t.Errorf("first pick = %q, want newest m3", m.ID)
	}
	th.PickPrevious()
	th.PickPrevious()
	th.PickPrevious()
	if m, _ := th.Picked(); m.ID != "m1" {
		t.Errorf("pick should stop at the oldest, got %q", m.ID)
	}
	th.PickNext()
	if m, _ := th.Picked(); m.ID != "m2" {
		t.Errorf("PickNext = %q, want m2", m.ID)
	}
	th.PickNext()
	th.PickNext()
	if _, ok := th.Picked(); ok {
		t.Error("moving past the newest should clear the pick")
	}
}

func TestThread_EmptyStates(t *testing.T) {
	th := NewThread(testSelfID, gesture.DefaultConfig())
	th.SetSize(60, 24)
	if !strings.Contains(ansi.Strip(th.View()), "Select a conversation") {
		t.Error("no conversation should show a prompt")
	}

	th.SetConversation(testConversations()[2], nil, false)
	if !strings.Contains(ansi.Strip(th.View()), "No messages yet") {
		t.Error("empty conversation should invite a first message")
	}
}
