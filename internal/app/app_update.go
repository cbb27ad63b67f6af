package app

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/ui"
)

// Update handles messages. This is the core Bubble Tea update function that routes
// all messages to appropriate handlers.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKeyPress(msg)

	case tea.MouseClickMsg:
		return m, m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m, m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m, m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m, m.handleMouseWheel(msg)

	case ConversationsLoadedMsg:
		return m, m.handleConversationsLoaded(msg)

	case MessagesLoadedMsg:
		return m, m.handleMessagesLoaded(msg)

	case SendResultMsg:
		return m, m.handleSendResult(msg)

	case PortEventMsg:
		return m, tea.Batch(m.handlePortEvent(msg.Event), m.listenForEvents())

	case PortClosedMsg:
		logger.WithComponent("app").Info("event channel closed")
		return m, nil

	case ClipboardErrorMsg:
		logger.WithComponent("app").Error("failed to copy to clipboard", "error", msg.Error)
		return m, m.ShowFlashError("Failed to copy to clipboard")

	case clipboardCopiedMsg:
		return m, m.ShowFlashSuccess("Copied to clipboard")

	case MenuDismissedMsg:
		m.closeMenu()
		return m, nil

	case ui.LongPressTickMsg:
		return m, m.handleLongPress(msg)

	case ui.SnapBackDoneMsg:
		m.thread.FinishSnap(msg)
		return m, nil

	case ui.SearchChangedMsg:
		m.refreshList()
		return m, nil

	case ui.FlashTickMsg:
		if m.footer.ClearIfExpired() || !m.footer.HasFlash() {
			return m, nil
		}
		return m, ui.FlashTick()
	}

	// everything else (cursor blink, etc.) goes to the focused pane
	var cmd tea.Cmd
	if m.modal.IsVisible() {
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}
	if m.focus == FocusList {
		m.list, cmd = m.list.Update(msg)
	} else {
		m.thread, cmd = m.thread.Update(msg)
	}
	return m, cmd
}

// handleConversationsLoaded fills the inbox and reopens the conversation
// that was open last time when both panes fit.
func (m *Model) handleConversationsLoaded(msg ConversationsLoadedMsg) tea.Cmd {
	log := logger.WithComponent("app")
	if msg.Err != nil {
		log.Error("failed to load conversations", "error", msg.Err)
		m.list.SetError("Could not load conversations. Press ctrl+r to reload")
		return m.ShowFlashError("Could not load conversations")
	}
	m.list.SetError("")
	m.inbox.Load(msg.Conversations)
	log.Info("conversations loaded", "count", len(msg.Conversations))
	m.refresh()

	last := m.config.LastConversation()
	if last == "" || m.Mobile() || m.inbox.ActiveID() != "" {
		return nil
	}
	if _, ok := m.inbox.Get(last); !ok {
		return nil
	}
	cmd := m.openConversation(last)
	m.setFocus(FocusList)
	return cmd
}

// handleMessagesLoaded installs a fetched history. Local messages the
// fetch does not know about yet (optimistic sends) are kept at the end.
func (m *Model) handleMessagesLoaded(msg MessagesLoadedMsg) tea.Cmd {
	log := logger.WithConversation(msg.ConversationID)
	if msg.Err != nil {
		log.Error("failed to load messages", "error", msg.Err)
		if m.thread.ConversationID() == msg.ConversationID {
			m.thread.SetError("Could not load messages. Press ctrl+r to reload")
		}
		return m.ShowFlashError("Could not load messages")
	}

	known := make(map[string]bool, len(msg.Messages)*2)
	for _, mm := range msg.Messages {
		known[mm.ID] = true
		if mm.CorrelationID != "" {
			known[mm.CorrelationID] = true
		}
	}
	merged := append([]chat.Message(nil), msg.Messages...)
	for _, local := range m.inbox.Thread(msg.ConversationID).Messages() {
		if !known[local.ID] && (local.CorrelationID == "" || !known[local.CorrelationID]) {
			merged = append(merged, local)
		}
	}

	if err := m.inbox.LoadMessages(msg.ConversationID, merged); err != nil {
		log.Warn("dropping history for unknown conversation", "error", err)
		return nil
	}
	m.loaded[msg.ConversationID] = true
	if m.thread.ConversationID() == msg.ConversationID && m.thread.LoadFailed() {
		m.thread.SetError("")
	}
	if m.inbox.ActiveID() == msg.ConversationID {
		// marks the fetched messages read
		_ = m.inbox.Select(msg.ConversationID)
	}
	log.Debug("messages loaded", "count", len(msg.Messages))
	m.refresh()
	return nil
}
