package script

import (
	"fmt"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/app"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/config"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/keys"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/transport"
)

// maxCmds bounds the commands settled after a single step.
const maxCmds = 256

// Frame represents a captured frame from the demo.
type Frame struct {
	Content    string        // ANSI-encoded terminal content
	Delay      time.Duration // How long the frame stays on screen
	Annotation string        // Optional annotation/caption
	StepIndex  int           // Index of the step that produced this frame
}

// ExecutorConfig configures the demo executor.
type ExecutorConfig struct {
	// CaptureEveryStep captures a frame after every key press (default: false)
	CaptureEveryStep bool

	// TypeDelay is the delay between characters when typing (default: 50ms)
	TypeDelay time.Duration

	// KeyDelay is the delay after key presses (default: 100ms)
	KeyDelay time.Duration

	// CmdTimeout is how long a command may run before it is treated as a
	// timer or listener and dropped (default: 20ms)
	CmdTimeout time.Duration
}

// DefaultExecutorConfig returns the default executor configuration.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		CaptureEveryStep: false, // Don't capture every step by default for cleaner demos
		TypeDelay:        50 * time.Millisecond,
		KeyDelay:         100 * time.Millisecond,
		CmdTimeout:       20 * time.Millisecond,
	}
}

// Executor runs demo scenarios and captures frames.
type Executor struct {
	config ExecutorConfig
	model  *app.Model
	port   *transport.MockPort
	quiet  *quietPort
	clock  *clock.Fake
	frames []Frame

	currentAnnotation string
}

// quietPort hides the mock's event channel from the model. The executor
// reads the real channel itself so listener commands, which it cannot wait
// on, never steal an event.
type quietPort struct {
	*transport.MockPort
	events chan transport.Event
	once   sync.Once
}

func (q *quietPort) Events() <-chan transport.Event { return q.events }

func (q *quietPort) Close() error {
	q.once.Do(func() { close(q.events) })
	return q.MockPort.Close()
}

// NewExecutor creates a new demo executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.CmdTimeout <= 0 {
		cfg.CmdTimeout = DefaultExecutorConfig().CmdTimeout
	}
	return &Executor{
		config: cfg,
		frames: []Frame{},
	}
}

// Cleanup closes the mock backend. Parked listener commands return once
// their channel closes.
func (e *Executor) Cleanup() {
	if e.quiet != nil {
		_ = e.quiet.Close()
	}
}

// Run executes a scenario and returns the captured frames.
func (e *Executor) Run(scenario *Scenario) ([]Frame, error) {
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Initialize the model
	if err := e.setup(scenario); err != nil {
		e.Cleanup()
		return nil, fmt.Errorf("setup failed: %w", err)
	}

	// Ensure cleanup is called when we're done
	defer e.Cleanup()

	// Capture initial frame
	e.captureFrame(0, 500*time.Millisecond)

	// Execute each step
	for i, step := range scenario.Steps {
		if err := e.executeStep(i, step); err != nil {
			return nil, fmt.Errorf("step %d failed: %w", i, err)
		}
	}

	return e.frames, nil
}

// Model returns the model being driven. Nil before Run.
func (e *Executor) Model() *app.Model {
	return e.model
}

// setup initializes the model for the scenario.
func (e *Executor) setup(scenario *Scenario) error {
	cfg := config.Default()
	u := cfg.SelfUser()
	self := chat.Participant{ID: u.ID, Name: u.Name, Avatar: u.Avatar}

	e.clock = clock.NewFake(scenario.Setup.Start)
	e.port = transport.NewMockPort(self, e.clock)
	e.quiet = &quietPort{MockPort: e.port, events: make(chan transport.Event)}
	e.model = app.New(cfg, e.quiet, app.Options{
		Clock:    e.clock,
		Version:  "demo",
		CopyText: func(string) error { return nil },
		Notify:   func(conversation, sender, preview string) error { return nil },
	})

	e.send(tea.WindowSizeMsg{Width: scenario.Width, Height: scenario.Height})
	e.settle(e.model.Init())
	if len(e.model.Inbox().Conversations()) == 0 {
		return fmt.Errorf("mock backend returned no conversations")
	}

	if id := scenario.Setup.Conversation; id != "" {
		e.settle(e.model.OpenConversation(id))
		if e.model.Inbox().ActiveID() != id {
			return fmt.Errorf("unknown conversation %q", id)
		}
	}
	return nil
}

func (e *Executor) executeStep(index int, step Step) error {
	switch step.Type {
	case StepWait:
		e.clock.Advance(step.Duration)
		e.deliverEvents()
		e.captureFrame(index, step.Duration)

	case StepKey:
		e.sendKey(step.Key)
		if e.config.CaptureEveryStep {
			e.captureFrame(index, e.config.KeyDelay)
		}

	case StepTypeText:
		for _, ch := range step.Text {
			e.sendKey(string(ch))
			if e.config.CaptureEveryStep {
				e.captureFrame(index, e.config.TypeDelay)
			}
		}

	case StepClick:
		e.send(tea.MouseClickMsg{X: step.X, Y: step.Y, Button: tea.MouseLeft})
		e.send(tea.MouseReleaseMsg{X: step.X, Y: step.Y, Button: tea.MouseLeft})
		if e.config.CaptureEveryStep {
			e.captureFrame(index, e.config.KeyDelay)
		}

	case StepOpen:
		e.settle(e.model.OpenConversation(step.ConversationID))
		if e.model.Inbox().ActiveID() != step.ConversationID {
			return fmt.Errorf("unknown conversation %q", step.ConversationID)
		}
		e.captureFrame(index, 300*time.Millisecond)

	case StepIncoming:
		if _, err := e.port.Deliver(step.ConversationID, step.SenderID, step.Text); err != nil {
			return err
		}
		e.deliverEvents()
		e.captureFrame(index, 300*time.Millisecond)

	case StepResize:
		e.send(tea.WindowSizeMsg{Width: step.Width, Height: step.Height})
		e.captureFrame(index, 300*time.Millisecond)

	case StepAnnotate:
		e.currentAnnotation = step.Annotation
		// Don't capture, annotation applies to next frame

	case StepCapture:
		e.captureFrame(index, 0)
	}

	return nil
}

// captureFrame captures the current view as a frame.
func (e *Executor) captureFrame(stepIndex int, delay time.Duration) {
	content := e.model.RenderToString()

	frame := Frame{
		Content:    content,
		Delay:      delay,
		Annotation: e.currentAnnotation,
		StepIndex:  stepIndex,
	}
	e.frames = append(e.frames, frame)

	// Clear annotation after use
	e.currentAnnotation = ""
}

// deliverEvents hands every queued backend event to the model.
func (e *Executor) deliverEvents() {
	for {
		select {
		case ev := <-e.port.Events():
			e.send(app.PortEventMsg{Event: ev})
		default:
			return
		}
	}
}

// sendKey sends a key press to the model.
func (e *Executor) sendKey(key string) {
	e.send(keyPress(key))
}

// send delivers msg and settles the commands it produces.
func (e *Executor) send(msg tea.Msg) {
	_, cmd := e.model.Update(msg)
	e.settle(cmd)
}

// settle runs cmd and everything it leads to. Commands that do not return
// within CmdTimeout are timers or listeners and are dropped.
func (e *Executor) settle(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for n := 0; len(queue) > 0 && n < maxCmds; n++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := e.run(c)
		if !ok || msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		_, next := e.model.Update(msg)
		queue = append(queue, next)
	}
}

func (e *Executor) run(cmd tea.Cmd) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	timer := time.NewTimer(e.config.CmdTimeout)
	defer timer.Stop()
	select {
	case msg := <-done:
		return msg, true
	case <-timer.C:
		return nil, false
	}
}

// keyPress converts a key string to a tea.KeyPressMsg.
func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case keys.Enter:
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case keys.Tab:
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case keys.Escape, "escape":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case keys.Backspace:
		return tea.KeyPressMsg{Code: tea.KeyBackspace}
	case keys.Up:
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case keys.Down:
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case keys.CtrlUp:
		return tea.KeyPressMsg{Code: tea.KeyUp, Mod: tea.ModCtrl}
	case keys.CtrlDown:
		return tea.KeyPressMsg{Code: tea.KeyDown, Mod: tea.ModCtrl}
	case keys.CtrlO:
		return tea.KeyPressMsg{Code: 'o', Mod: tea.ModCtrl}
	case keys.CtrlR:
		return tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl}
	case keys.Space:
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	default:
		if r := []rune(key); len(r) == 1 {
			return tea.KeyPressMsg{Code: r[0], Text: key}
		}
		return tea.KeyPressMsg{Text: key}
	}
}
