package ui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/keys"
)

// ModalState is a discriminated union interface for modal-specific state.
// Each modal type implements this interface with its own state struct,
// ensuring type-safe access to modal-specific fields.
type ModalState interface {
	modalState() // marker method to restrict implementations
	Title() string
	Help() string
	Render() string
	Update(msg tea.Msg) (ModalState, tea.Cmd)
}

// Modal represents a popup dialog with type-safe state management.
// The State field is nil when no modal is visible.
type Modal struct {
	State ModalState
	error string
}

// NewModal creates a new modal
func NewModal() *Modal {
	return &Modal{}
}

// Show displays a modal with the given state
func (m *Modal) Show(state ModalState) {
	m.State = state
	m.error = ""
}

// Hide hides the modal
func (m *Modal) Hide() {
	m.State = nil
	m.error = ""
}

// IsVisible returns whether the modal is visible
func (m *Modal) IsVisible() bool {
	return m.State != nil
}

// SetError sets an error message
func (m *Modal) SetError(err string) {
	m.error = err
}

// GetError returns the current error message
func (m *Modal) GetError() string {
	return m.error
}

// Update handles messages by delegating to the current state
func (m *Modal) Update(msg tea.Msg) (*Modal, tea.Cmd) {
	if m.State == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.State, cmd = m.State.Update(msg)
	return m, cmd
}

// View renders the modal
func (m *Modal) View(screenWidth, screenHeight int) string {
	if m.State == nil {
		return ""
	}

	content := m.State.Render()
	if m.error != "" {
		content += "\n" + StatusErrorStyle.Render(m.error)
	}

	return lipgloss.Place(
		screenWidth, screenHeight,
		lipgloss.Center, lipgloss.Center,
		ModalStyle.Render(content),
	)
}

// =============================================================================
// ForwardState - pick the conversation to forward a message to
// =============================================================================

// forwardVisible is how many targets the picker shows at once.
const forwardVisible = 6

type ForwardState struct {
	SourceConversationID string
	MessageID            string
	Preview              string

	Filter  textinput.Model
	targets []chat.Conversation
	shown   []chat.Conversation
	selfID  string
	cursor  int
}

func (*ForwardState) modalState() {}

func (s *ForwardState) Title() string { return "Forward message" }

func (s *ForwardState) Help() string {
	return "Type to filter, ↑/↓ to choose, Enter to forward, Esc to cancel"
}

// NewForwardState offers every conversation except the one the message
// came from.
func NewForwardState(msg chat.Message, convs []chat.Conversation, selfID string) *ForwardState {
	ti := textinput.New()
	ti.Placeholder = "Search"
	ti.CharLimit = ModalInputCharLimit
	ti.SetWidth(ModalWidth - 8)
	ti.Focus()

	var targets []chat.Conversation
	for _, c := range convs {
		if c.ID != msg.ConversationID {
			targets = append(targets, c)
		}
	}
	return &ForwardState{
		SourceConversationID: msg.ConversationID,
		MessageID:            msg.ID,
		Preview:              msg.Preview(),
		Filter:               ti,
		targets:              targets,
		shown:                targets,
		selfID:               selfID,
	}
}

// Selected returns the highlighted target conversation.
func (s *ForwardState) Selected() (chat.Conversation, bool) {
	if s.cursor < 0 || s.cursor >= len(s.shown) {
		return chat.Conversation{}, false
	}
	return s.shown[s.cursor], true
}

// Targets returns the conversations currently listed.
func (s *ForwardState) Targets() []chat.Conversation {
	return s.shown
}

func (s *ForwardState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	quote := QuoteStyle.Render(truncate(s.Preview, ModalWidth-10))

	var rows []string
	start := max(0, s.cursor-forwardVisible+1)
	end := min(len(s.shown), start+forwardVisible)
	for i := start; i < end; i++ {
		name := truncate(s.shown[i].DisplayName(s.selfID), ModalWidth-10)
		if i == s.cursor {
			rows = append(rows, MenuSelectedStyle.Render("> "+name))
		} else {
			rows = append(rows, MenuItemStyle.Render("  "+name))
		}
	}
	if len(rows) == 0 {
		rows = append(rows, EmptyStateStyle.UnsetPadding().Render("No other conversations."))
	}

	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, quote, "", s.Filter.View(), strings.Join(rows, "\n"), help)
}

func (s *ForwardState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case keys.Up, keys.CtrlP:
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil
		case keys.Down, keys.CtrlN:
			if s.cursor < len(s.shown)-1 {
				s.cursor++
			}
			return s, nil
		}
	}

	before := s.Filter.Value()
	var cmd tea.Cmd
	s.Filter, cmd = s.Filter.Update(msg)
	if q := s.Filter.Value(); q != before {
		s.shown = chat.Filter(s.targets, q, s.selfID)
		s.cursor = 0
	}
	return s, cmd
}

// =============================================================================
// HelpState - keyboard and mouse reference
// =============================================================================

type HelpState struct{}

func (*HelpState) modalState() {}

func (s *HelpState) Title() string { return "Shortcuts" }

func (s *HelpState) Help() string { return "Esc to close" }

// NewHelpState creates the shortcut reference.
func NewHelpState() *HelpState {
	return &HelpState{}
}

var helpRows = []KeyBinding{
	{Key: "/", Desc: "search conversations"},
	{Key: "enter", Desc: "open / send"},
	{Key: "tab", Desc: "switch pane"},
	{Key: "esc", Desc: "back, cancel reply"},
	{Key: "ctrl+↑/↓", Desc: "pick a message"},
	{Key: "ctrl+o", Desc: "message actions"},
	{Key: "ctrl+r", Desc: "retry failed send or reload"},
	{Key: "n", Desc: "toggle notifications"},
	{Key: "hold click", Desc: "message actions"},
	{Key: "drag bubble", Desc: "swipe to reply"},
	{Key: "q", Desc: "quit"},
}

func (s *HelpState) Render() string {
	var rows []string
	for _, b := range helpRows {
		rows = append(rows, FooterKeyStyle.Render(padRight(b.Key, 12))+FooterDescStyle.Render(b.Desc))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		ModalTitleStyle.Render(s.Title()),
		strings.Join(rows, "\n"),
		ModalHelpStyle.Render(s.Help()),
	)
}

func (s *HelpState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	return s, nil
}
