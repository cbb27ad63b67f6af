package app

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/ui"
	"github.com/charmbracelet/x/ansi"
)

// View renders the app. This is the core Bubble Tea view function.
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.SetContent(m.RenderToString())
	return v
}

// RenderToString renders the current view as a string.
// This is useful for demos and testing.
func (m *Model) RenderToString() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Update footer context for conditional bindings
	m.updateFooterContext()

	var panels string
	switch {
	case !m.Mobile():
		panels = lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.thread.View())
	case m.showList:
		panels = m.list.View()
	default:
		panels = m.thread.View()
	}

	view := lipgloss.JoinVertical(
		lipgloss.Left,
		m.header.View(),
		panels,
		m.footer.View(),
	)

	if m.modal.IsVisible() {
		return m.modal.View(m.view.TerminalWidth, m.view.TerminalHeight)
	}
	if m.menu != nil {
		b := m.menu.Bounds()
		view = overlay(view, m.menu.View(), b.X, b.Y)
	}
	return view
}

// overlay draws fg over bg with its top-left corner at (x, y).
func overlay(bg, fg string, x, y int) string {
	lines := strings.Split(bg, "\n")
	for i, fl := range strings.Split(fg, "\n") {
		row := y + i
		if row < 0 || row >= len(lines) {
			continue
		}
		line := lines[row]
		left := ansi.Truncate(line, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(line, x+ansi.StringWidth(fl), "")
		lines[row] = left + fl + right
	}
	return strings.Join(lines, "\n")
}

// updateFooterContext updates the footer with current context for conditional bindings
func (m *Model) updateFooterContext() {
	mode := ui.FooterList
	switch {
	case m.modal.IsVisible():
		mode = ui.FooterModal
	case m.menu != nil:
		mode = ui.FooterMenu
	case m.focus == FocusList && m.list.IsSearchMode():
		mode = ui.FooterSearch
	case m.focus == FocusThread:
		mode = ui.FooterThread
	}
	_, hasFailed := m.inbox.FindFailed(m.inbox.ActiveID())
	hasFailed = hasFailed || m.thread.LoadFailed()
	_, replying := m.thread.ReplyTo()
	m.footer.SetContext(mode, m.Mobile(), hasFailed, replying)
}

// updateSizes recalculates and applies dimensions to all UI components.
// Crossing the breakpoint keeps an open thread on screen.
func (m *Model) updateSizes() {
	wasMobile := m.view.Mobile()
	m.view.UpdateTerminalSize(m.width, m.height)
	mobile := m.view.Mobile()
	if mobile != wasMobile {
		if mobile {
			m.showList = !m.thread.HasConversation()
			if m.showList {
				m.setFocus(FocusList)
			} else {
				m.setFocus(FocusThread)
			}
		} else {
			m.showList = true
		}
		m.view.Log("breakpoint crossed", "mobile", mobile, "showList", m.showList)
	}
	// the menu is anchored to cells that just moved
	m.closeMenu()

	m.header.SetWidth(m.view.TerminalWidth)
	m.footer.SetWidth(m.view.TerminalWidth)
	m.list.SetSize(m.view.ListWidth, m.view.ContentHeight)
	m.thread.SetSize(m.view.ThreadWidth, m.view.ContentHeight)
	m.refreshHeader()
}

// =============================================================================
// Syncing panes with the inbox
// =============================================================================

// refresh pushes the inbox state to every pane.
func (m *Model) refresh() {
	m.refreshList()
	m.refreshThread()
	m.refreshHeader()
}

func (m *Model) refreshList() {
	m.list.SetConversations(m.inbox.Filter(m.list.Query()))
	m.list.SetActive(m.inbox.ActiveID())
}

func (m *Model) refreshThread() {
	id := m.inbox.ActiveID()
	if id == "" {
		if m.thread.HasConversation() {
			m.thread.ClearConversation()
		}
		return
	}
	conv, ok := m.inbox.Get(id)
	if !ok {
		return
	}
	msgs := m.inbox.Thread(id).Messages()
	typing := m.inbox.Typing(id)
	if m.thread.ConversationID() != id {
		m.thread.SetConversation(conv, msgs, typing)
		return
	}
	m.thread.SetMessages(msgs, typing)
}

func (m *Model) refreshHeader() {
	m.header.SetUnread(m.inbox.UnreadTotal())
	m.header.SetBack(m.Mobile() && !m.showList)

	conv, ok := m.inbox.Active()
	if !ok {
		m.header.SetConversation("", "")
		return
	}
	selfID := m.inbox.Self().ID
	m.header.SetConversation(conv.DisplayName(selfID), presence(conv, selfID, m.inbox.Typing(conv.ID), m.clock.Now()))
}

// presence is the header's status line for a conversation.
func presence(c chat.Conversation, selfID string, typing bool, now time.Time) string {
	switch {
	case typing:
		return "typing…"
	case c.Type == chat.Group:
		return fmt.Sprintf("%d members", len(c.Participants))
	case c.Online(selfID):
		return "online"
	}
	peer, ok := c.Peer(selfID)
	if !ok || peer.LastSeen == nil {
		return ""
	}
	return "last seen " + ago(now.Sub(*peer.LastSeen))
}

func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
