package app

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/keys"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/ui"
)

// handleKeyPress routes a key to the topmost layer: modal, context menu,
// then the focused pane.
func (m *Model) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == keys.CtrlC {
		return m, tea.Quit
	}

	if m.modal.IsVisible() {
		return m, m.handleModalKey(msg)
	}
	if m.menu != nil {
		return m, m.handleMenuKey(key)
	}

	if m.focus == FocusList {
		return m, m.handleListKey(msg)
	}
	return m, m.handleThreadKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()

	if m.list.IsSearchMode() {
		switch key {
		case keys.Enter:
			if c, ok := m.list.Selected(); ok {
				return m.openConversation(c.ID)
			}
			return nil
		case keys.Tab:
			m.toggleFocus()
			return nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}

	switch key {
	case "q":
		return tea.Quit
	case "?":
		m.modal.Show(ui.NewHelpState())
		return nil
	case "n":
		return m.toggleNotifications()
	case keys.CtrlR:
		logger.WithComponent("app").Info("reloading conversations")
		return m.loadConversations()
	case keys.Tab:
		m.toggleFocus()
		return nil
	case keys.Enter, keys.Right, "l":
		if c, ok := m.list.Selected(); ok {
			return m.openConversation(c.ID)
		}
		return nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model) handleThreadKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case keys.Enter:
		return m.sendMessage()
	case keys.Escape:
		m.goBack()
		return nil
	case keys.Tab:
		m.toggleFocus()
		return nil
	case keys.CtrlUp:
		m.thread.PickPrevious()
		return nil
	case keys.CtrlDown:
		m.thread.PickNext()
		return nil
	case keys.CtrlO:
		return m.openMenuForPick()
	case keys.CtrlR:
		if id := m.thread.ConversationID(); m.thread.LoadFailed() && id != "" {
			logger.WithConversation(id).Info("reloading messages")
			return m.loadMessages(id)
		}
		return m.retryFailed()
	}

	var cmd tea.Cmd
	m.thread, cmd = m.thread.Update(msg)
	return cmd
}

// goBack unwinds one level of thread state: the reply target, then the
// keyboard pick, then the thread itself.
func (m *Model) goBack() {
	if _, ok := m.thread.ReplyTo(); ok {
		m.thread.ClearReply()
		return
	}
	if _, ok := m.thread.Picked(); ok {
		m.thread.ClearPick()
		return
	}
	m.setFocus(FocusList)
	if m.Mobile() {
		m.showList = true
	}
	m.refreshHeader()
}

func (m *Model) handleMenuKey(key string) tea.Cmd {
	switch key {
	case keys.Up, "k":
		m.menu.MoveUp()
	case keys.Down, "j":
		m.menu.MoveDown()
	case keys.Enter:
		return m.applyMenuAction(m.menu.Selected())
	case keys.Escape:
		m.closeMenu()
	}
	return nil
}

func (m *Model) handleModalKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case keys.Escape:
		m.modal.Hide()
		return nil
	case keys.Enter:
		if state, ok := m.modal.State.(*ui.ForwardState); ok {
			return m.confirmForward(state)
		}
		m.modal.Hide()
		return nil
	}
	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return cmd
}

func (m *Model) toggleNotifications() tea.Cmd {
	enabled := !m.config.GetNotificationsEnabled()
	m.config.SetNotificationsEnabled(enabled)
	if cmd := m.saveConfigOrFlash(); cmd != nil {
		return cmd
	}
	if enabled {
		return m.ShowFlashInfo("Desktop notifications on")
	}
	return m.ShowFlashInfo("Desktop notifications off")
}
