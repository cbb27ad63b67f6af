// Package gesture recognizes press, long-press and swipe-to-reply on a
// single message bubble.
//
// A Machine never starts timers itself. Press returns a Timer request
// carrying a token; the caller schedules it (a tea.Tick in the UI, a direct
// call in tests) and reports back with TimerFired. Tokens from cancelled or
// superseded presses are ignored, so a late tick can never open a menu.
//
//	Idle ──press──▶ Pressing ──timer──▶ LongPressed ──release──▶ Idle
//	                   │ move > jitter
//	                   ▼
//	             SwipingReply ──release──▶ Idle (reply if offset > threshold)
package gesture

import (
	"math"
	"time"
)

// State is the recognizer state.
type State int

const (
	Idle State = iota
	Pressing
	LongPressed
	SwipingReply
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressing:
		return "pressing"
	case LongPressed:
		return "long-pressed"
	case SwipingReply:
		return "swiping-reply"
	}
	return "unknown"
}

// Direction is the horizontal direction a bubble moves when swiped to reply.
// Bubbles on the right (own messages) swipe left; others swipe right.
type Direction int

const (
	Right Direction = 1
	Left  Direction = -1
)

// DirectionFor returns the swipe direction for a message.
func DirectionFor(own bool) Direction {
	if own {
		return Left
	}
	return Right
}

// Point is a pointer position in logical pixels.
type Point struct {
	X, Y float64
}

// Terminal cells are mapped to logical pixels so thresholds keep the same
// physical meaning they have on a touch screen.
const (
	PxPerColumn = 8
	PxPerRow    = 16
)

// CellPoint converts a terminal cell position to logical pixels.
func CellPoint(col, row int) Point {
	return Point{X: float64(col * PxPerColumn), Y: float64(row * PxPerRow)}
}

// Config holds the recognizer thresholds.
type Config struct {
	LongPressDelay  time.Duration
	SnapBack        time.Duration
	JitterThreshold float64
	MaxSwipe        float64
	ReplyThreshold  float64
	VerticalAbort   float64
}

// DefaultConfig returns the standard touch thresholds.
func DefaultConfig() Config {
	return Config{
		LongPressDelay:  500 * time.Millisecond,
		SnapBack:        200 * time.Millisecond,
		JitterThreshold: 10,
		MaxSwipe:        50,
		ReplyThreshold:  30,
		VerticalAbort:   50,
	}
}

// Timer asks the caller to call TimerFired(Token) after Delay.
type Timer struct {
	Token uint64
	Delay time.Duration
}

// Result lists what the caller must do after feeding an event.
type Result struct {
	StartTimer *Timer
	OpenMenu   bool
	Reply      bool
	Tap        bool
	SnapBack   bool
}

// Machine is the recognizer for one bubble. The zero value is not usable;
// call New.
type Machine struct {
	cfg    Config
	dir    Direction
	state  State
	start  Point
	offset float64
	token  uint64
	issued uint64
}

// New returns an idle Machine.
func New(cfg Config, dir Direction) *Machine {
	if dir != Left {
		dir = Right
	}
	return &Machine{cfg: cfg, dir: dir}
}

func (m *Machine) State() State { return m.state }

// Offset is the current horizontal displacement in [0, MaxSwipe].
func (m *Machine) Offset() float64 { return m.offset }

// Direction returns the swipe direction the machine was created with.
func (m *Machine) Direction() Direction { return m.dir }

// Scale is the visual emphasis of the bubble: 1.05 while long-pressed.
func (m *Machine) Scale() float64 {
	if m.state == LongPressed {
		return 1.05
	}
	return 1
}

// Press starts a gesture at p. A press during an unfinished gesture
// restarts it.
func (m *Machine) Press(p Point) Result {
	m.reset()
	m.state = Pressing
	m.start = p
	m.issued++
	m.token = m.issued
	return Result{StartTimer: &Timer{Token: m.token, Delay: m.cfg.LongPressDelay}}
}

// Move reports a pointer position while pressed.
func (m *Machine) Move(p Point) Result {
	dx, dy := p.X-m.start.X, p.Y-m.start.Y

	switch m.state {
	case Pressing:
		if math.Abs(dx) <= m.cfg.JitterThreshold && math.Abs(dy) <= m.cfg.JitterThreshold {
			return Result{}
		}
		m.token = 0
		m.state = SwipingReply
		return m.swipe(dx, dy)
	case SwipingReply:
		return m.swipe(dx, dy)
	}
	return Result{}
}

func (m *Machine) swipe(dx, dy float64) Result {
	if math.Abs(dy) > m.cfg.VerticalAbort {
		snap := m.offset > 0
		m.reset()
		return Result{SnapBack: snap}
	}
	m.offset = clamp(dx*float64(m.dir), 0, m.cfg.MaxSwipe)
	return Result{}
}

// Release ends the gesture.
func (m *Machine) Release() Result {
	var r Result
	switch m.state {
	case Pressing:
		r.Tap = true
	case SwipingReply:
		r.Reply = m.offset > m.cfg.ReplyThreshold
		r.SnapBack = m.offset > 0
	}
	m.reset()
	return r
}

// TimerFired reports that the long-press timer with token elapsed.
func (m *Machine) TimerFired(token uint64) Result {
	if m.state != Pressing || token == 0 || token != m.token {
		return Result{}
	}
	m.token = 0
	m.state = LongPressed
	return Result{OpenMenu: true}
}

// Cancel abandons the gesture, e.g. when the bubble is torn down or the
// pointer leaves it.
func (m *Machine) Cancel() {
	m.reset()
}

func (m *Machine) reset() {
	m.state = Idle
	m.offset = 0
	m.token = 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
