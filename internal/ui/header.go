package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

// Header represents the top header bar
type Header struct {
	width    int
	title    string
	presence string
	back     bool
	unread   int
}

// NewHeader creates a new header
func NewHeader() *Header {
	return &Header{}
}

// SetWidth sets the header width
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetConversation sets the open conversation's name and presence line
// ("online", "typing…", "last seen 3h ago"). An empty title clears it.
func (h *Header) SetConversation(title, presence string) {
	h.title = title
	h.presence = presence
}

// SetBack shows a back affordance, used when the thread covers the list.
func (h *Header) SetBack(back bool) {
	h.back = back
}

// SetUnread sets the unread total shown next to the app name.
func (h *Header) SetUnread(n int) {
	h.unread = n
}

// View renders the header
func (h *Header) View() string {
	left := " ✈ LumaTrip"
	if h.back {
		left = " ← LumaTrip"
	}
	if h.unread > 0 {
		left += fmt.Sprintf(" (%d)", h.unread)
	}

	var right string
	if h.title != "" {
		right = h.title
		if h.presence != "" {
			right += " · " + h.presence
		}
		right += " "
	}

	// display widths, names may be CJK
	leftW := runewidth.StringWidth(left)
	maxRight := h.width - leftW - 1
	if maxRight < 0 {
		maxRight = 0
	}
	right = runewidth.Truncate(right, maxRight, "…")
	paddingLen := h.width - leftW - runewidth.StringWidth(right)
	if paddingLen < 0 {
		paddingLen = 0
	}

	fullContent := left + strings.Repeat(" ", paddingLen) + right
	return h.renderGradient(fullContent, len([]rune(left)), h.presence)
}

// parseHexColor parses a hex color string (e.g., "#F97360") into RGB components
func parseHexColor(hex string) (r, g, b int) {
	if len(hex) == 7 && hex[0] == '#' {
		fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	}
	return
}

// renderGradient renders content over a coral-to-background gradient. The
// first boldRunes runes are bold and the presence suffix is muted.
func (h *Header) renderGradient(content string, boldRunes int, presence string) string {
	if len(content) == 0 {
		return ""
	}

	startR, startG, startB := parseHexColor(headerGradientStart)
	endR, endG, endB := parseHexColor(headerGradientEnd)

	runes := []rune(content)
	mutedFrom := len(runes)
	if presence != "" {
		if idx := strings.LastIndex(content, " · "+presence); idx >= 0 {
			mutedFrom = len([]rune(content[:idx]))
		}
	}

	width := len(runes)
	var result strings.Builder
	for i, r := range runes {
		t := float64(i) / float64(width)
		cr := int(float64(startR)*(1-t) + float64(endR)*t)
		cg := int(float64(startG)*(1-t) + float64(endG)*t)
		cb := int(float64(startB)*(1-t) + float64(endB)*t)

		style := lipgloss.NewStyle().
			Background(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", cr, cg, cb))).
			Bold(i < boldRunes)
		if i >= mutedFrom {
			style = style.Foreground(ColorTextMuted)
		} else {
			style = style.Foreground(ColorText)
		}
		result.WriteString(style.Render(string(r)))
	}
	return result.String()
}
