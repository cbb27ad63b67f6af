package ui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/keys"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// SearchCharLimit bounds the conversation search query.
const SearchCharLimit = 64

// SearchChangedMsg is emitted when the search query changes so the owner
// can refilter.
type SearchChangedMsg struct {
	Query string
}

// ConversationList is the left pane: a search box over the conversation rows.
type ConversationList struct {
	convs       []chat.Conversation
	selfID      string
	activeID    string
	selectedIdx int
	scrollOff   int
	width       int
	height      int
	focused     bool
	typing      map[string]bool
	now         func() time.Time
	loadErr     string

	searchMode  bool
	searchInput textinput.Model

	view *ViewContext
}

// NewConversationList creates an empty list.
func NewConversationList(selfID string) *ConversationList {
	ti := textinput.New()
	ti.Placeholder = "Search conversations"
	ti.CharLimit = SearchCharLimit

	return &ConversationList{
		selfID:      selfID,
		typing:      make(map[string]bool),
		now:         time.Now,
		searchInput: ti,
		view:        NewViewContext(DefaultBreakpoint),
	}
}

// SetViewContext shares the app's layout with the list.
func (l *ConversationList) SetViewContext(v *ViewContext) {
	l.view = v
}

// SetClock replaces the time source used for row timestamps.
func (l *ConversationList) SetClock(now func() time.Time) {
	l.now = now
}

// SetSize sets the outer pane dimensions, borders included.
func (l *ConversationList) SetSize(width, height int) {
	l.width = width
	l.height = height
	ctx := l.view
	ctx.Log("ConversationList.SetSize", "width", width, "height", height, "rows", l.visibleRows())
	l.searchInput.SetWidth(max(ctx.InnerWidth(width)-4, 1))
	l.clampScroll()
}

// SetFocused sets the focus state
func (l *ConversationList) SetFocused(focused bool) {
	l.focused = focused
	if !focused && l.searchMode {
		l.searchMode = false
		l.searchInput.Blur()
	}
}

// IsFocused returns the focus state
func (l *ConversationList) IsFocused() bool {
	return l.focused
}

// SetConversations replaces the rows, keeping the selection on the same
// conversation when it is still present.
func (l *ConversationList) SetConversations(convs []chat.Conversation) {
	var keep string
	if c, ok := l.Selected(); ok {
		keep = c.ID
	}
	l.convs = convs
	l.selectedIdx = 0
	for i, c := range convs {
		if c.ID == keep {
			l.selectedIdx = i
			break
		}
	}
	l.clampScroll()
}

// SetActive marks the conversation currently open in the thread pane.
func (l *ConversationList) SetActive(id string) {
	l.activeID = id
	for i, c := range l.convs {
		if c.ID == id {
			l.selectedIdx = i
			l.clampScroll()
			return
		}
	}
}

// SetTyping shows or hides the typing hint on a row.
func (l *ConversationList) SetTyping(convID string, typing bool) {
	if typing {
		l.typing[convID] = true
	} else {
		delete(l.typing, convID)
	}
}

// SetError shows a load failure in place of the rows.
func (l *ConversationList) SetError(msg string) {
	l.loadErr = msg
}

// LoadFailed reports whether the rows are replaced by a load error.
func (l *ConversationList) LoadFailed() bool {
	return l.loadErr != ""
}

// Len returns the number of rows shown.
func (l *ConversationList) Len() int {
	return len(l.convs)
}

// Selected returns the highlighted conversation.
func (l *ConversationList) Selected() (chat.Conversation, bool) {
	if l.selectedIdx < 0 || l.selectedIdx >= len(l.convs) {
		return chat.Conversation{}, false
	}
	return l.convs[l.selectedIdx], true
}

// MoveUp moves the highlight up one row.
func (l *ConversationList) MoveUp() {
	if l.selectedIdx > 0 {
		l.selectedIdx--
		l.clampScroll()
	}
}

// MoveDown moves the highlight down one row.
func (l *ConversationList) MoveDown() {
	if l.selectedIdx < len(l.convs)-1 {
		l.selectedIdx++
		l.clampScroll()
	}
}

// EnterSearchMode focuses the search box.
func (l *ConversationList) EnterSearchMode() tea.Cmd {
	l.searchMode = true
	return l.searchInput.Focus()
}

// ExitSearchMode clears the query and leaves search mode.
func (l *ConversationList) ExitSearchMode() {
	l.searchMode = false
	l.searchInput.Blur()
	l.searchInput.SetValue("")
}

// IsSearchMode reports whether the search box has focus.
func (l *ConversationList) IsSearchMode() bool {
	return l.searchMode
}

// Query returns the current search text.
func (l *ConversationList) Query() string {
	return l.searchInput.Value()
}

// Update handles keys while the list is focused. Enter is left to the
// owner, which opens the selected conversation.
func (l *ConversationList) Update(msg tea.Msg) (*ConversationList, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok || !l.focused {
		return l, nil
	}

	switch key.String() {
	case keys.Up, keys.CtrlP:
		l.MoveUp()
		return l, nil
	case keys.Down, keys.CtrlN:
		l.MoveDown()
		return l, nil
	}

	if !l.searchMode {
		switch key.String() {
		case "k":
			l.MoveUp()
		case "j":
			l.MoveDown()
		case "/":
			return l, l.EnterSearchMode()
		}
		return l, nil
	}

	if key.String() == keys.Escape {
		had := l.Query() != ""
		l.ExitSearchMode()
		if had {
			return l, searchChanged("")
		}
		return l, nil
	}

	before := l.Query()
	var cmd tea.Cmd
	l.searchInput, cmd = l.searchInput.Update(msg)
	if q := l.Query(); q != before {
		return l, tea.Batch(cmd, searchChanged(q))
	}
	return l, cmd
}

func searchChanged(q string) tea.Cmd {
	return func() tea.Msg { return SearchChangedMsg{Query: q} }
}

// ConversationAt maps a line inside the pane's border (0 is the first
// line under the top border) to the conversation drawn there.
func (l *ConversationList) ConversationAt(innerY int) (chat.Conversation, bool) {
	row := innerY - SearchHeight
	if row < 0 {
		return chat.Conversation{}, false
	}
	idx := l.scrollOff + row/ConversationRowHeight
	if idx >= len(l.convs) || row/ConversationRowHeight >= l.visibleRows() {
		return chat.Conversation{}, false
	}
	return l.convs[idx], true
}

func (l *ConversationList) visibleRows() int {
	inner := l.height - BorderSize - SearchHeight
	return max(inner/ConversationRowHeight, 0)
}

func (l *ConversationList) clampScroll() {
	rows := l.visibleRows()
	if rows == 0 {
		l.scrollOff = 0
		return
	}
	if l.selectedIdx < l.scrollOff {
		l.scrollOff = l.selectedIdx
	}
	if l.selectedIdx >= l.scrollOff+rows {
		l.scrollOff = l.selectedIdx - rows + 1
	}
	l.scrollOff = max(min(l.scrollOff, len(l.convs)-rows), 0)
}

// View renders the list
func (l *ConversationList) View() string {
	ctx := l.view
	style := PanelStyle
	if l.focused {
		style = PanelFocusedStyle
	}
	innerW := ctx.InnerWidth(l.width)
	innerH := ctx.InnerHeight(l.height)

	var b strings.Builder
	b.WriteString(l.renderSearch(innerW))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorBorder).Render(strings.Repeat("─", max(innerW, 0))))

	switch {
	case l.loadErr != "":
		b.WriteString("\n" + StatusErrorStyle.Render(truncate(l.loadErr, innerW)))
	case len(l.convs) == 0 && l.Query() != "":
		b.WriteString("\n" + EmptyStateStyle.Render("No matches."))
	case len(l.convs) == 0:
		b.WriteString("\n" + EmptyStateStyle.Render("No conversations yet."))
	default:
		end := min(l.scrollOff+l.visibleRows(), len(l.convs))
		for i := l.scrollOff; i < end; i++ {
			b.WriteString("\n")
			b.WriteString(l.renderRow(l.convs[i], i == l.selectedIdx, innerW))
		}
	}

	return style.Width(l.width).Height(l.height).MaxHeight(l.height).Render(
		lipgloss.NewStyle().MaxHeight(innerH).Render(b.String()))
}

func (l *ConversationList) renderSearch(width int) string {
	icon := lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true).Render("/")
	if l.searchMode {
		return icon + " " + l.searchInput.View()
	}
	if q := l.Query(); q != "" {
		return icon + " " + SearchStyle.Render(truncate(q, width-3))
	}
	return icon + " " + ListPreviewStyle.Render(truncate("Search conversations", width-3))
}

// renderRow draws two lines: avatar, name and time, then the preview and
// unread badge.
func (l *ConversationList) renderRow(c chat.Conversation, selected bool, width int) string {
	itemStyle := ListItemStyle
	if selected {
		itemStyle = ListSelectedStyle
	}
	w := width - itemStyle.GetHorizontalPadding()

	name := c.DisplayName(l.selfID)
	avatar := initial(name)
	if c.Type == chat.Group {
		avatar = "#"
	}
	dot := " "
	if c.Online(l.selfID) {
		dot = OnlineDotStyle.Render("●")
	}

	var ts string
	if c.LastMessage != nil {
		ts = relativeTime(c.LastMessage.Timestamp, l.now())
	}
	head := avatar + dot + " "
	nameW := w - ansi.StringWidth(head) - runewidth.StringWidth(ts) - 1
	nameStyle := ListNameStyle
	if c.ID == l.activeID {
		nameStyle = nameStyle.Foreground(ColorPrimary)
	}
	line1 := head + nameStyle.Render(padRight(truncate(name, nameW), max(nameW, 0))) + " " + ListTimeStyle.Render(ts)

	preview := ""
	switch {
	case l.typing[c.ID]:
		preview = TypingStyle.Render("typing…")
	case c.LastMessage != nil:
		p := c.LastMessage.Preview()
		if c.Type == chat.Group && !c.LastMessage.IsOwn(l.selfID) && !c.LastMessage.Recalled && c.LastMessage.SenderName != "" {
			p = c.LastMessage.SenderName + ": " + p
		} else if c.LastMessage.IsOwn(l.selfID) && !c.LastMessage.Recalled {
			p = "You: " + p
		}
		preview = p
	}

	var badge string
	if c.UnreadCount > 0 {
		n := fmt.Sprintf("%d", c.UnreadCount)
		if c.UnreadCount > 99 {
			n = "99+"
		}
		badge = UnreadBadgeStyle.Render(n)
	}
	indent := strings.Repeat(" ", ansi.StringWidth(head))
	prevW := w - len(indent) - lipgloss.Width(badge)
	if badge != "" {
		prevW--
	}
	if !l.typing[c.ID] {
		preview = ListPreviewStyle.Render(truncate(preview, prevW))
	}
	line2 := indent + padRight(preview, max(prevW, 0))
	if badge != "" {
		line2 += " " + badge
	}

	return itemStyle.Width(width).Render(line1 + "\n" + line2)
}
