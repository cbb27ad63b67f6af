package ui

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key  string
	Desc string
}

// FooterMode selects which bindings the footer shows.
type FooterMode int

const (
	FooterList FooterMode = iota
	FooterSearch
	FooterThread
	FooterMenu
	FooterModal
)

// FlashType is the severity of a flash message.
type FlashType int

const (
	FlashInfo FlashType = iota
	FlashSuccess
	FlashWarning
	FlashError
)

// DefaultFlashDuration is how long a flash stays visible.
const DefaultFlashDuration = 4 * time.Second

// flashTickInterval is how often expired flashes are checked.
const flashTickInterval = time.Second

// FlashMessage is a transient footer message.
type FlashMessage struct {
	Text      string
	Type      FlashType
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired reports whether the message has outlived its duration.
func (f *FlashMessage) IsExpired() bool {
	return time.Since(f.CreatedAt) > f.Duration
}

// FlashTickMsg drives flash expiry.
type FlashTickMsg time.Time

// FlashTick schedules the next expiry check.
func FlashTick() tea.Cmd {
	return tea.Tick(flashTickInterval, func(t time.Time) tea.Msg {
		return FlashTickMsg(t)
	})
}

// Footer represents the bottom footer bar with keybindings
type Footer struct {
	width        int
	bindings     []KeyBinding
	mode         FooterMode
	mobile       bool // Whether only one pane is visible
	hasFailed    bool // Whether the open thread has a failed message
	replying     bool // Whether a reply target is set
	flashMessage *FlashMessage
}

// NewFooter creates a new footer
func NewFooter() *Footer {
	return &Footer{
		bindings: []KeyBinding{
			{Key: "↑/↓", Desc: "navigate"},
			{Key: "enter", Desc: "open"},
			{Key: "/", Desc: "search"},
			{Key: "tab", Desc: "switch pane"},
			{Key: "q", Desc: "quit"},
		},
	}
}

// SetContext updates the footer's context for conditional bindings
func (f *Footer) SetContext(mode FooterMode, mobile, hasFailed, replying bool) {
	f.mode = mode
	f.mobile = mobile
	f.hasFailed = hasFailed
	f.replying = replying
}

// SetWidth sets the footer width
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetFlash shows a flash message for DefaultFlashDuration.
func (f *Footer) SetFlash(text string, flashType FlashType) {
	f.SetFlashWithDuration(text, flashType, DefaultFlashDuration)
}

// SetFlashWithDuration shows a flash message for d.
func (f *Footer) SetFlashWithDuration(text string, flashType FlashType, d time.Duration) {
	f.flashMessage = &FlashMessage{
		Text:      text,
		Type:      flashType,
		CreatedAt: time.Now(),
		Duration:  d,
	}
}

// ClearFlash removes the flash message.
func (f *Footer) ClearFlash() {
	f.flashMessage = nil
}

// HasFlash reports whether a flash message is showing.
func (f *Footer) HasFlash() bool {
	return f.flashMessage != nil
}

// ClearIfExpired removes an expired flash and reports whether it did.
func (f *Footer) ClearIfExpired() bool {
	if f.flashMessage != nil && f.flashMessage.IsExpired() {
		f.flashMessage = nil
		return true
	}
	return false
}

func (f *Footer) contextBindings() []KeyBinding {
	switch f.mode {
	case FooterSearch:
		return []KeyBinding{
			{Key: "type", Desc: "filter"},
			{Key: "↑/↓", Desc: "navigate"},
			{Key: "enter", Desc: "open"},
			{Key: "esc", Desc: "clear"},
		}
	case FooterMenu:
		return []KeyBinding{
			{Key: "↑/↓", Desc: "choose"},
			{Key: "enter", Desc: "apply"},
			{Key: "esc", Desc: "close"},
		}
	case FooterModal:
		return []KeyBinding{
			{Key: "↑/↓", Desc: "choose"},
			{Key: "enter", Desc: "confirm"},
			{Key: "esc", Desc: "cancel"},
		}
	case FooterThread:
		b := []KeyBinding{{Key: "enter", Desc: "send"}}
		if f.replying {
			b = append(b, KeyBinding{Key: "esc", Desc: "cancel reply"})
		} else if f.mobile {
			b = append(b, KeyBinding{Key: "esc", Desc: "back"})
		}
		b = append(b,
			KeyBinding{Key: "ctrl+↑/↓", Desc: "pick message"},
			KeyBinding{Key: "ctrl+o", Desc: "actions"},
		)
		if f.hasFailed {
			b = append(b, KeyBinding{Key: "ctrl+r", Desc: "retry"})
		}
		if !f.mobile {
			b = append(b, KeyBinding{Key: "tab", Desc: "switch pane"})
		}
		return b
	}
	if f.mobile {
		out := make([]KeyBinding, 0, len(f.bindings))
		for _, b := range f.bindings {
			if b.Key != "tab" {
				out = append(out, b)
			}
		}
		return out
	}
	return f.bindings
}

// View renders the footer
func (f *Footer) View() string {
	if f.flashMessage != nil {
		return f.renderFlash()
	}

	var parts []string
	for _, b := range f.contextBindings() {
		key := FooterKeyStyle.Render(b.Key)
		desc := FooterDescStyle.Render(": " + b.Desc)
		parts = append(parts, key+desc)
	}
	content := strings.Join(parts, "  "+lipgloss.NewStyle().Foreground(ColorBorder).Render("|")+"  ")
	return FooterStyle.Width(f.width).MaxHeight(FooterHeight).Render(content)
}

func (f *Footer) renderFlash() string {
	var icon string
	var color = ColorInfo
	switch f.flashMessage.Type {
	case FlashError:
		icon, color = "✕", ColorError
	case FlashWarning:
		icon, color = "⚠", ColorWarning
	case FlashSuccess:
		icon, color = "✓", ColorSuccess
	default:
		icon = "ℹ"
	}
	style := lipgloss.NewStyle().Foreground(color).Bold(true)
	return FooterStyle.Width(f.width).MaxHeight(FooterHeight).Render(style.Render(icon + " " + f.flashMessage.Text))
}
