package app

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/transport"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/ui"
)

type clipboardCopiedMsg struct{}

// openConversation makes id the active conversation. The typing indicator
// of both the previous and the new conversation is reset, the unread count
// is cleared and, below the breakpoint, the thread replaces the list.
func (m *Model) openConversation(id string) tea.Cmd {
	prev := m.inbox.ActiveID()
	if err := m.inbox.Select(id); err != nil {
		logger.WithComponent("app").Warn("cannot open conversation", "error", err)
		return m.ShowFlashError("Conversation not found")
	}
	m.closeMenu()
	if prev != "" && prev != id {
		m.list.SetTyping(prev, false)
	}
	m.list.SetTyping(id, false)
	m.list.SetActive(id)

	conv, _ := m.inbox.Get(id)
	m.thread.SetConversation(conv, m.inbox.Thread(id).Messages(), m.inbox.Typing(id))
	if m.Mobile() {
		m.showList = false
	}
	m.setFocus(FocusThread)
	m.config.SetLastConversation(id)
	m.refresh()

	logger.WithConversation(id).Debug("conversation opened", "previous", prev)

	cmds := []tea.Cmd{m.markRead(id)}
	if !m.loaded[id] {
		cmds = append(cmds, m.loadMessages(id))
	}
	return tea.Batch(cmds...)
}

// sendMessage appends the composer text optimistically and hands it to
// the port.
func (m *Model) sendMessage() tea.Cmd {
	convID := m.inbox.ActiveID()
	content := m.thread.GetInput()
	if convID == "" || content == "" {
		return nil
	}

	var replyTo string
	if r, ok := m.thread.ReplyTo(); ok {
		replyTo = r.ID
	}
	msg, err := m.inbox.AppendOutgoing(convID, content, chat.TypeText, replyTo, m.port.OptimisticStatus())
	if err != nil {
		logger.WithConversation(convID).Warn("cannot send", "error", err)
		return m.ShowFlashError("Message could not be sent")
	}
	m.thread.ClearInput()
	m.thread.ClearReply()
	m.thread.ClearPick()
	m.refresh()

	return m.sendCmd(transport.SendRequest{
		ConversationID: convID,
		CorrelationID:  msg.CorrelationID,
		Content:        msg.Content,
		Type:           msg.Type,
		ReplyToID:      msg.ReplyToID,
	})
}

// retryFailed resends the newest failed message of the open conversation
// under its original correlation id.
func (m *Model) retryFailed() tea.Cmd {
	convID := m.inbox.ActiveID()
	failed, ok := m.inbox.FindFailed(convID)
	if !ok {
		return nil
	}
	if err := m.inbox.MarkSending(convID, failed.CorrelationID); err != nil {
		logger.WithConversation(convID).Warn("cannot retry", "error", err)
		return nil
	}
	m.refresh()
	return m.sendCmd(transport.SendRequest{
		ConversationID: convID,
		CorrelationID:  failed.CorrelationID,
		Content:        failed.Content,
		Type:           failed.Type,
		ReplyToID:      failed.ReplyToID,
	})
}

func (m *Model) handleSendResult(msg SendResultMsg) tea.Cmd {
	log := logger.WithConversation(msg.ConversationID)
	if msg.Err != nil {
		log.Warn("send failed", "correlationID", msg.CorrelationID, "error", msg.Err)
		if err := m.inbox.MarkFailed(msg.ConversationID, msg.CorrelationID); err != nil {
			log.Debug("failed message is gone", "error", err)
		}
		m.refresh()
		return m.ShowFlashError(sendErrorText(msg.Err))
	}

	if _, err := m.inbox.Reconcile(msg.ConversationID, msg.CorrelationID, msg.Message); err != nil {
		log.Warn("cannot reconcile send", "error", err)
	}
	m.refresh()
	return nil
}

func sendErrorText(err error) string {
	switch {
	case pkgerrors.Is(err, pkgerrors.KindTimeout):
		return "Message timed out. Press ctrl+r to retry"
	case pkgerrors.Is(err, pkgerrors.KindInvalid):
		return "Message rejected"
	}
	return "Message not sent. Press ctrl+r to retry"
}

// =============================================================================
// Context menu
// =============================================================================

// handleLongPress opens the menu when the long-press timer belongs to the
// press still in progress.
func (m *Model) handleLongPress(msg ui.LongPressTickMsg) tea.Cmd {
	open, ok := m.thread.LongPressFired(msg)
	if !ok {
		return nil
	}
	x, y := m.threadToScreen(open.X, open.Y)
	m.openMenu(open.MessageID, x, y)
	return nil
}

// openMenuForPick opens the menu for the keyboard-picked message, or the
// newest message when nothing is picked.
func (m *Model) openMenuForPick() tea.Cmd {
	picked, ok := m.thread.Picked()
	if !ok {
		m.thread.PickPrevious()
		if picked, ok = m.thread.Picked(); !ok {
			return nil
		}
	}
	x, y, visible := m.thread.BubbleOrigin(picked.ID)
	if !visible {
		x, y = 1, 1
	}
	sx, sy := m.threadToScreen(x, y)
	m.openMenu(picked.ID, sx, sy)
	return nil
}

func (m *Model) openMenu(msgID string, x, y int) {
	convID := m.inbox.ActiveID()
	msg, ok := m.inbox.Thread(convID).Find(msgID)
	if !ok {
		return
	}
	m.menu = ui.NewContextMenu(msg, m.inbox.Self().ID, m.clock.Now())
	m.menu.Place(x, y, m.view.TerminalWidth, m.view.TerminalHeight)
	m.dismisser.Register(m.menu.Bounds(), MenuDismissedMsg{})
	m.thread.SetMenuTarget(msgID)
	logger.WithConversation(convID).Debug("context menu opened", "messageID", msgID, "items", len(m.menu.Items()))
}

func (m *Model) closeMenu() {
	if m.menu == nil {
		return
	}
	m.menu = nil
	m.dismisser.Unregister()
	m.thread.SetMenuTarget("")
}

// applyMenuAction runs action on the menu's message and closes the menu.
func (m *Model) applyMenuAction(action ui.MenuAction) tea.Cmd {
	convID, msgID := m.menu.ConversationID, m.menu.MessageID
	m.closeMenu()
	m.thread.ClearPick()

	msg, ok := m.inbox.Thread(convID).Find(msgID)
	if !ok {
		return nil
	}
	log := logger.WithConversation(convID)
	log.Debug("menu action", "action", action, "messageID", msgID)

	switch action {
	case ui.ActionReply:
		m.thread.SetReplyTo(msg)
		m.setFocus(FocusThread)
		return nil

	case ui.ActionCopy:
		return m.copyMessage(msg)

	case ui.ActionForward:
		m.modal.Show(ui.NewForwardState(msg, m.inbox.Conversations(), m.inbox.Self().ID))
		return nil

	case ui.ActionDelete:
		if err := m.inbox.Delete(convID, msgID); err != nil {
			log.Warn("delete failed", "error", err)
			return nil
		}
		m.refresh()
		return nil

	case ui.ActionRecall:
		if _, err := m.inbox.Recall(convID, msgID); err != nil {
			log.Info("recall refused", "error", err)
			if pkgerrors.Is(err, pkgerrors.KindInvalid) {
				return m.ShowFlashWarning("Messages can only be recalled within 2 minutes")
			}
			return nil
		}
		m.refresh()
		return nil
	}
	return nil
}

// copyMessage writes the message text through OSC 52 and the native
// clipboard. Only a native failure is reported.
func (m *Model) copyMessage(msg chat.Message) tea.Cmd {
	text := msg.Content
	if msg.Type != chat.TypeText {
		text = msg.Preview()
	}
	write := m.copyText
	return tea.Batch(
		tea.SetClipboard(text),
		func() tea.Msg {
			if err := write(text); err != nil {
				return ClipboardErrorMsg{Error: err}
			}
			return clipboardCopiedMsg{}
		},
	)
}

// confirmForward copies the modal's message into the chosen conversation
// and sends it.
func (m *Model) confirmForward(state *ui.ForwardState) tea.Cmd {
	target, ok := state.Selected()
	if !ok {
		return nil
	}
	m.modal.Hide()

	fwd, err := m.inbox.Forward(state.SourceConversationID, state.MessageID, target.ID, m.port.OptimisticStatus())
	if err != nil {
		logger.WithConversation(state.SourceConversationID).Warn("forward failed", "error", err)
		if pkgerrors.Is(err, pkgerrors.KindInvalid) {
			return m.ShowFlashError("Nothing to forward")
		}
		return m.ShowFlashError("Could not forward message")
	}
	m.refresh()

	return tea.Batch(
		m.sendCmd(transport.SendRequest{
			ConversationID: target.ID,
			CorrelationID:  fwd.CorrelationID,
			Content:        fwd.Content,
			Type:           fwd.Type,
		}),
		m.ShowFlashSuccess("Forwarded to "+target.DisplayName(m.inbox.Self().ID)),
	)
}
