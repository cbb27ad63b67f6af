package script

import (
	"strings"
	"testing"
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/demo"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/keys"
)

func TestExecutorDefaultConfig(t *testing.T) {
	cfg := DefaultExecutorConfig()

	if cfg.CaptureEveryStep {
		t.Error("CaptureEveryStep should be false by default")
	}
	if cfg.TypeDelay != 50*time.Millisecond {
		t.Errorf("TypeDelay = %v, want 50ms", cfg.TypeDelay)
	}
	if cfg.KeyDelay != 100*time.Millisecond {
		t.Errorf("KeyDelay = %v, want 100ms", cfg.KeyDelay)
	}
	if cfg.CmdTimeout != 20*time.Millisecond {
		t.Errorf("CmdTimeout = %v, want 20ms", cfg.CmdTimeout)
	}
}

func TestExecutorRun_SendAndReply(t *testing.T) {
	scenario := &Scenario{
		Name:   "test",
		Width:  120,
		Height: 36,
		Setup:  &Setup{Conversation: "c-emma"},
		Steps: []Step{
			Type("Lisbon?"),
			Key(keys.Enter),
			Wait(600 * time.Millisecond),
			Wait(1 * time.Second),
		},
	}

	e := NewExecutor(DefaultExecutorConfig())
	frames, err := e.Run(scenario)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// initial frame plus one per wait
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	if frames[0].Delay != 500*time.Millisecond {
		t.Errorf("first frame delay = %v, want 500ms", frames[0].Delay)
	}
	if !strings.Contains(frames[1].Content, "typing…") {
		t.Error("the peer should be typing after 600ms")
	}
	if !strings.Contains(frames[2].Content, demo.Reply(0)) {
		t.Errorf("the reply %q should be on screen", demo.Reply(0))
	}

	msgs := e.Model().Inbox().Thread("c-emma").Messages()
	if last := msgs[len(msgs)-1]; last.SenderID != demo.EmmaWilson.ID {
		t.Errorf("last message from %q, want Emma", last.SenderID)
	}
}

func TestExecutorRun_IncomingAndAnnotations(t *testing.T) {
	scenario := &Scenario{
		Name: "test",
		Steps: []Step{
			Annotate("group chatter"),
			Incoming("c-kyoto", demo.AikoTanaka.ID, "Tea ceremony booked"),
			Capture(),
		},
	}

	e := NewExecutor(DefaultExecutorConfig())
	frames, err := e.Run(scenario)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	if frames[1].Annotation != "group chatter" || frames[2].Annotation != "" {
		t.Error("an annotation should label exactly the next frame")
	}
	if c, _ := e.Model().Inbox().Get("c-kyoto"); c.UnreadCount != 3 {
		t.Errorf("UnreadCount = %d, want 3", c.UnreadCount)
	}
	if !strings.Contains(frames[2].Content, "Tea cer") {
		t.Error("list preview should show the incoming message")
	}
}

func TestExecutorRun_CaptureEveryStep(t *testing.T) {
	scenario := &Scenario{
		Name:  "test",
		Setup: &Setup{Conversation: "c-sofia"},
		Steps: []Step{Type("hey"), Key(keys.Enter)},
	}

	cfg := DefaultExecutorConfig()
	cfg.CaptureEveryStep = true
	frames, err := NewExecutor(cfg).Run(scenario)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// initial, three characters, enter
	if len(frames) != 5 {
		t.Errorf("got %d frames, want 5", len(frames))
	}
}

func TestExecutorRun_Resize(t *testing.T) {
	scenario := &Scenario{
		Name:   "test",
		Width:  120,
		Height: 30,
		Setup:  &Setup{Conversation: "c-emma"},
		Steps:  []Step{Resize(64, 30)},
	}

	e := NewExecutor(DefaultExecutorConfig())
	if _, err := e.Run(scenario); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !e.Model().Mobile() || e.Model().ShowList() {
		t.Error("shrinking with a conversation open should show only the thread")
	}
}

func TestExecutorRun_UnknownConversation(t *testing.T) {
	scenario := &Scenario{Name: "test", Steps: []Step{Open("c-atlantis")}}

	if _, err := NewExecutor(DefaultExecutorConfig()).Run(scenario); err == nil {
		t.Error("opening an unknown conversation should fail the run")
	}

	bad := &Scenario{Name: "test", Setup: &Setup{Conversation: "c-atlantis"}}
	if _, err := NewExecutor(DefaultExecutorConfig()).Run(bad); err == nil {
		t.Error("an unknown setup conversation should fail the run")
	}
}

func TestExecutorRun_Invalid(t *testing.T) {
	if _, err := NewExecutor(DefaultExecutorConfig()).Run(&Scenario{}); err == nil {
		t.Error("a scenario without a name should be rejected")
	}
}
