package app

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
)

// threadOrigin returns the screen position of the thread pane's top-left
// corner.
func (m *Model) threadOrigin() (int, int) {
	if m.Mobile() {
		return 0, m.view.HeaderHeight
	}
	return m.view.ListWidth, m.view.HeaderHeight
}

func (m *Model) screenToThread(x, y int) (int, int) {
	ox, oy := m.threadOrigin()
	return x - ox, y - oy
}

func (m *Model) threadToScreen(x, y int) (int, int) {
	ox, oy := m.threadOrigin()
	return x + ox, y + oy
}

// listVisible and threadVisible report which panes are on screen.
func (m *Model) listVisible() bool {
	return !m.Mobile() || m.showList
}

func (m *Model) threadVisible() bool {
	return !m.Mobile() || !m.showList
}

// inContent reports whether y falls between the header and the footer.
func (m *Model) inContent(y int) bool {
	return y >= m.view.HeaderHeight && y < m.view.HeaderHeight+m.view.ContentHeight
}

// inList reports whether the screen cell (x, y) belongs to the list pane.
func (m *Model) inList(x, y int) bool {
	if !m.listVisible() || !m.inContent(y) {
		return false
	}
	return m.Mobile() || x < m.view.ListWidth
}

func (m *Model) inThread(x, y int) bool {
	if !m.threadVisible() || !m.inContent(y) {
		return false
	}
	return m.Mobile() || x >= m.view.ListWidth
}

// handleMouseClick processes a button press. An open menu takes the click
// first: inside it picks an action, anywhere else it only dismisses.
func (m *Model) handleMouseClick(msg tea.MouseClickMsg) tea.Cmd {
	if msg.Button != tea.MouseLeft {
		return nil
	}

	if m.menu != nil {
		if action, ok := m.menu.ActionAt(msg.X, msg.Y); ok {
			return m.applyMenuAction(action)
		}
		if m.menu.Bounds().Contains(msg.X, msg.Y) {
			return nil
		}
	}
	if dismissed := m.dismisser.HandleClick(msg.X, msg.Y); dismissed != nil {
		_, cmd := m.Update(dismissed)
		return cmd
	}
	if m.modal.IsVisible() {
		return nil
	}

	switch {
	case msg.Y < m.view.HeaderHeight:
		// the back arrow in the header
		if m.Mobile() && !m.showList && msg.X < 3 {
			m.goBack()
		}
		return nil

	case m.inList(msg.X, msg.Y):
		m.setFocus(FocusList)
		innerY := msg.Y - m.view.HeaderHeight - 1
		c, ok := m.list.ConversationAt(innerY)
		if !ok {
			return nil
		}
		return m.openConversation(c.ID)

	case m.inThread(msg.X, msg.Y):
		if !m.thread.HasConversation() {
			return nil
		}
		m.setFocus(FocusThread)
		x, y := m.screenToThread(msg.X, msg.Y)
		return m.thread.Press(x, y)
	}
	return nil
}

// handleMouseMotion drives the swipe of a pressed bubble.
func (m *Model) handleMouseMotion(msg tea.MouseMotionMsg) tea.Cmd {
	if m.menu != nil || m.modal.IsVisible() {
		return nil
	}
	x, y := m.screenToThread(msg.X, msg.Y)
	return m.thread.Move(x, y)
}

func (m *Model) handleMouseRelease(msg tea.MouseReleaseMsg) tea.Cmd {
	_, hadReply := m.thread.ReplyTo()
	cmd := m.thread.Release()
	if r, ok := m.thread.ReplyTo(); ok && !hadReply {
		logger.WithConversation(m.thread.ConversationID()).Debug("swipe to reply", "messageID", r.ID)
		m.setFocus(FocusThread)
	}
	return cmd
}

// handleMouseWheel scrolls whichever pane is under the pointer.
func (m *Model) handleMouseWheel(msg tea.MouseWheelMsg) tea.Cmd {
	if m.menu != nil || m.modal.IsVisible() {
		return nil
	}
	switch {
	case m.inThread(msg.X, msg.Y):
		var cmd tea.Cmd
		m.thread, cmd = m.thread.Update(msg)
		return cmd
	case m.inList(msg.X, msg.Y):
		switch msg.Button {
		case tea.MouseWheelUp:
			m.list.MoveUp()
		case tea.MouseWheelDown:
			m.list.MoveDown()
		}
	}
	return nil
}
