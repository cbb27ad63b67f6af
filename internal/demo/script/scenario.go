// Package script plays scripted walkthroughs of the chat client against the
// mock backend and captures the rendered frames. The same fakes the tests
// use keep every run deterministic.
package script

import (
	"fmt"
	"time"
)

// StepType represents the type of action in a demo step.
type StepType int

const (
	// StepWait advances the backend clock, letting simulated peers type
	// and reply, then captures a frame held for the duration.
	StepWait StepType = iota
	// StepKey sends a single key press.
	StepKey
	// StepTypeText types a string character by character.
	StepTypeText
	// StepClick sends a left click and release at a screen cell.
	StepClick
	// StepOpen opens a conversation directly.
	StepOpen
	// StepIncoming has a participant write to a conversation.
	StepIncoming
	// StepResize changes the terminal size.
	StepResize
	// StepCapture captures the current frame (for selective capture).
	StepCapture
	// StepAnnotate adds an annotation/caption to the next frame.
	StepAnnotate
)

// Step represents a single action in a demo scenario.
type Step struct {
	Type        StepType
	Description string // Human-readable description of what this step does

	// For StepKey
	Key string

	// For StepTypeText and StepIncoming
	Text string

	// For StepWait
	Duration time.Duration

	// For StepClick (X, Y) and StepResize (Width, Height)
	X, Y          int
	Width, Height int

	// For StepOpen and StepIncoming
	ConversationID string
	SenderID       string

	// For StepAnnotate
	Annotation string
}

// Scenario defines a complete demo scenario.
type Scenario struct {
	Name        string
	Description string
	Width       int // Terminal width (default 120)
	Height      int // Terminal height (default 40)
	Setup       *Setup
	Steps       []Step
}

// Setup defines the initial state for a demo.
type Setup struct {
	// Conversation is opened before the first step when set.
	Conversation string
	// Start is the backend clock's starting time. Zero means DefaultStart.
	Start time.Time
}

// DefaultStart is the wall time demos pretend to run at.
var DefaultStart = time.Date(2024, 5, 1, 18, 30, 0, 0, time.Local)

// Validate checks that the scenario is valid and fills in defaults.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "Name", Message: "scenario name is required"}
	}
	if s.Width <= 0 {
		s.Width = 120
	}
	if s.Height <= 0 {
		s.Height = 40
	}
	if s.Setup == nil {
		s.Setup = &Setup{}
	}
	if s.Setup.Start.IsZero() {
		s.Setup.Start = DefaultStart
	}

	for i, step := range s.Steps {
		field := fmt.Sprintf("Steps[%d]", i)
		switch step.Type {
		case StepOpen:
			if step.ConversationID == "" {
				return &ValidationError{Field: field, Message: "open needs a conversation id"}
			}
		case StepIncoming:
			if step.ConversationID == "" || step.SenderID == "" {
				return &ValidationError{Field: field, Message: "incoming needs a conversation and a sender"}
			}
		case StepResize:
			if step.Width <= 0 || step.Height <= 0 {
				return &ValidationError{Field: field, Message: "resize needs a positive size"}
			}
		case StepWait:
			if step.Duration < 0 {
				return &ValidationError{Field: field, Message: "wait cannot be negative"}
			}
		}
	}
	return nil
}

// ValidationError represents a scenario validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + ": " + e.Message
}

// Step builder functions for fluent scenario construction

// Wait creates a wait step.
func Wait(d time.Duration) Step {
	return Step{
		Type:     StepWait,
		Duration: d,
	}
}

// Key creates a key press step.
func Key(key string) Step {
	return Step{
		Type: StepKey,
		Key:  key,
	}
}

// KeyWithDesc creates a key press step with a description.
func KeyWithDesc(key, description string) Step {
	return Step{
		Type:        StepKey,
		Key:         key,
		Description: description,
	}
}

// Type creates a text typing step.
func Type(text string) Step {
	return Step{
		Type: StepTypeText,
		Text: text,
	}
}

// Click creates a click step at a screen cell.
func Click(x, y int) Step {
	return Step{
		Type: StepClick,
		X:    x,
		Y:    y,
	}
}

// Open creates a step that opens a conversation.
func Open(conversationID string) Step {
	return Step{
		Type:           StepOpen,
		ConversationID: conversationID,
	}
}

// Incoming creates a step in which senderID writes text to a conversation.
func Incoming(conversationID, senderID, text string) Step {
	return Step{
		Type:           StepIncoming,
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
	}
}

// Resize creates a terminal resize step.
func Resize(width, height int) Step {
	return Step{
		Type:   StepResize,
		Width:  width,
		Height: height,
	}
}

// Annotate creates an annotation step.
func Annotate(text string) Step {
	return Step{
		Type:       StepAnnotate,
		Annotation: text,
	}
}

// Capture creates a frame capture step.
func Capture() Step {
	return Step{
		Type: StepCapture,
	}
}
