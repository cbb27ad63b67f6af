package app

import (
	"context"

	tea "charm.land/bubbletea/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/transport"
)

// loadConversations fetches the conversation list.
func (m *Model) loadConversations() tea.Cmd {
	port, ctx := m.port, m.ctx
	return func() tea.Msg {
		convs, err := port.LoadConversations(ctx)
		return ConversationsLoadedMsg{Conversations: convs, Err: err}
	}
}

// loadMessages fetches one conversation's history.
func (m *Model) loadMessages(convID string) tea.Cmd {
	port, ctx := m.port, m.ctx
	return func() tea.Msg {
		msgs, err := port.LoadMessages(ctx, convID)
		return MessagesLoadedMsg{ConversationID: convID, Messages: msgs, Err: err}
	}
}

// sendCmd runs Send under a deadline that leaves room for every retry. The
// configured send timeout bounds each attempt inside the port.
func (m *Model) sendCmd(req transport.SendRequest) tea.Cmd {
	port, parent := m.port, m.ctx
	timeout := transport.SendBudget(m.config.SendTimeout(), m.config.Retries(), 0)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		stored, err := port.Send(ctx, req)
		return SendResultMsg{
			ConversationID: req.ConversationID,
			CorrelationID:  req.CorrelationID,
			Message:        stored,
			Err:            err,
		}
	}
}

// markRead tells the backend the conversation was read. Failures are only
// logged; the local unread count is already zero.
func (m *Model) markRead(convID string) tea.Cmd {
	port, ctx := m.port, m.ctx
	return func() tea.Msg {
		if err := port.MarkRead(ctx, convID); err != nil {
			logger.WithConversation(convID).Warn("mark read failed", "error", err)
		}
		return nil
	}
}

// listenForEvents waits for the next backend event. It is re-issued after
// every PortEventMsg.
func (m *Model) listenForEvents() tea.Cmd {
	ch := m.port.Events()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return PortClosedMsg{}
		}
		return PortEventMsg{Event: ev}
	}
}

// handlePortEvent applies one pushed event to the inbox.
func (m *Model) handlePortEvent(ev transport.Event) tea.Cmd {
	log := logger.WithConversation(ev.ConversationID)

	switch ev.Kind {
	case transport.EventMessage:
		unread := m.inbox.AppendIncoming(ev.Message)
		// a message ends the sender's typing
		m.inbox.SetTyping(ev.ConversationID, false)
		m.list.SetTyping(ev.ConversationID, false)
		m.refresh()
		log.Debug("message received", "messageID", ev.Message.ID, "unread", unread)

		if ev.ConversationID == m.inbox.ActiveID() {
			return m.markRead(ev.ConversationID)
		}
		if unread && m.config.GetNotificationsEnabled() {
			return m.notifyIncoming(ev)
		}
		return nil

	case transport.EventTyping:
		m.inbox.SetTyping(ev.ConversationID, ev.Typing)
		m.list.SetTyping(ev.ConversationID, ev.Typing)
		m.refresh()
		return nil

	case transport.EventStatus:
		if err := m.inbox.UpdateStatus(ev.ConversationID, ev.MessageID, ev.Status); err != nil {
			// a stale status for a message that already moved on
			log.Debug("status update ignored", "messageID", ev.MessageID, "status", ev.Status, "error", err)
			return nil
		}
		m.refresh()
		return nil

	case transport.EventAck:
		if _, err := m.inbox.Reconcile(ev.ConversationID, ev.Message.CorrelationID, ev.Message); err != nil {
			log.Warn("late ack dropped", "correlationID", ev.Message.CorrelationID, "error", err)
			return nil
		}
		m.refresh()
		return nil

	case transport.EventConnection:
		if ev.Err != nil {
			log.Warn("connection lost", "error", ev.Err)
			return m.ShowFlashWarning("Connection lost. Reconnecting…")
		}
		logger.WithComponent("app").Info("connected")
		return m.ShowFlashInfo("Connected")
	}
	return nil
}

func (m *Model) notifyIncoming(ev transport.Event) tea.Cmd {
	conv, ok := m.inbox.Get(ev.ConversationID)
	if !ok {
		return nil
	}
	notify := m.notify
	title := conv.DisplayName(m.inbox.Self().ID)
	sender, preview := ev.Message.SenderName, ev.Message.Preview()
	return func() tea.Msg {
		if err := notify(title, sender, preview); err != nil {
			logger.WithComponent("app").Debug("notification failed", "error", err)
		}
		return nil
	}
}
