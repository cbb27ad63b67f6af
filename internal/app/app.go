// Package app is the Bubble Tea shell of the chat client: it owns the
// Inbox, routes input to the panes and talks to the transport Port.
package app

import (
	"context"

	tea "charm.land/bubbletea/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/clipboard"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/config"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/gesture"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/notification"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/transport"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/ui"
)

// Focus represents which panel is focused
type Focus int

const (
	FocusList Focus = iota
	FocusThread
)

func (f Focus) String() string {
	if f == FocusThread {
		return "Thread"
	}
	return "List"
}

// Model is the main Bubble Tea model
type Model struct {
	config  *config.Config
	version string
	port    transport.Port
	clock   clock.Clock
	inbox   *chat.Inbox

	header    *ui.Header
	footer    *ui.Footer
	list      *ui.ConversationList
	thread    *ui.Thread
	modal     *ui.Modal
	menu      *ui.ContextMenu
	dismisser *ui.Dismisser
	view      *ui.ViewContext

	width  int
	height int
	focus  Focus

	// showList is the single-pane toggle: below the breakpoint either the
	// list or the thread is on screen, never both.
	showList bool

	loaded map[string]bool // conversations whose history has been fetched

	ctx    context.Context
	cancel context.CancelFunc

	copyText func(string) error
	notify   func(conversation, sender, preview string) error
}

// Options configures a Model. Zero fields take production defaults.
type Options struct {
	Clock    clock.Clock
	Gestures *gesture.Config
	Version  string

	// CopyText writes to the native clipboard.
	CopyText func(string) error
	// Notify raises a desktop notification for an incoming message.
	Notify func(conversation, sender, preview string) error
}

// ConversationsLoadedMsg carries the result of the initial list fetch.
type ConversationsLoadedMsg struct {
	Conversations []chat.Conversation
	Err           error
}

// MessagesLoadedMsg carries a conversation's history.
type MessagesLoadedMsg struct {
	ConversationID string
	Messages       []chat.Message
	Err            error
}

// SendResultMsg reports the outcome of one Send call.
type SendResultMsg struct {
	ConversationID string
	CorrelationID  string
	Message        chat.Message
	Err            error
}

// PortEventMsg wraps an event pushed by the backend.
type PortEventMsg struct {
	Event transport.Event
}

// PortClosedMsg is sent once the backend's event channel closes.
type PortClosedMsg struct{}

// ClipboardErrorMsg reports a failed native clipboard write.
type ClipboardErrorMsg struct {
	Error error
}

// MenuDismissedMsg closes the context menu after an outside click.
type MenuDismissedMsg struct{}

// New creates a new app model
func New(cfg *config.Config, port transport.Port, opts Options) *Model {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	gcfg := gesture.DefaultConfig()
	if d := cfg.LongPressDelay(); d > 0 {
		gcfg.LongPressDelay = d
	}
	if opts.Gestures != nil {
		gcfg = *opts.Gestures
	}
	if opts.CopyText == nil {
		opts.CopyText = clipboard.WriteText
	}
	if opts.Notify == nil {
		opts.Notify = notification.IncomingMessage
	}

	u := cfg.SelfUser()
	self := chat.Participant{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Model{
		config:    cfg,
		version:   opts.Version,
		port:      port,
		clock:     opts.Clock,
		inbox:     chat.NewInbox(self, opts.Clock),
		header:    ui.NewHeader(),
		footer:    ui.NewFooter(),
		list:      ui.NewConversationList(self.ID),
		thread:    ui.NewThread(self.ID, gcfg),
		modal:     ui.NewModal(),
		dismisser: ui.NewDismisser(),
		view:      ui.NewViewContext(cfg.Breakpoint()),
		focus:     FocusList,
		showList:  true,
		loaded:    make(map[string]bool),
		ctx:       ctx,
		cancel:    cancel,
		copyText:  opts.CopyText,
		notify:    opts.Notify,
	}
	m.list.SetViewContext(m.view)
	m.thread.SetViewContext(m.view)
	m.list.SetClock(opts.Clock.Now)
	m.thread.SetClock(opts.Clock.Now)
	m.list.SetFocused(true)
	return m
}

// Init starts loading conversations and listening for backend events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadConversations(), m.listenForEvents())
}

// Close tears the shell down: gestures are abandoned, the outside-click
// registration is dropped, the last conversation is remembered and the
// port is closed.
func (m *Model) Close() error {
	m.thread.CancelGesture()
	m.closeMenu()
	m.dismisser.Unregister()
	m.cancel()

	m.config.SetLastConversation(m.inbox.ActiveID())
	if err := m.config.Save(); err != nil {
		logger.WithComponent("app").Warn("failed to save config", "error", err)
	}
	return m.port.Close()
}

// Inbox exposes the state container, mainly for tests and demos.
func (m *Model) Inbox() *chat.Inbox {
	return m.inbox
}

// OpenConversation opens a conversation as if it were picked from the list.
func (m *Model) OpenConversation(id string) tea.Cmd {
	return m.openConversation(id)
}

// Focus returns the focused pane.
func (m *Model) Focus() Focus {
	return m.focus
}

// ShowList reports whether the list pane is shown in single-pane mode.
func (m *Model) ShowList() bool {
	return m.showList
}

// Mobile reports whether the terminal is below the breakpoint.
func (m *Model) Mobile() bool {
	return m.view.Mobile()
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.list.SetFocused(f == FocusList)
	m.thread.SetFocused(f == FocusThread)
}

// toggleFocus switches panes. In single-pane mode it also flips which pane
// is visible.
func (m *Model) toggleFocus() {
	if m.focus == FocusList {
		if !m.thread.HasConversation() {
			return
		}
		m.setFocus(FocusThread)
		if m.Mobile() {
			m.showList = false
		}
	} else {
		m.setFocus(FocusList)
		if m.Mobile() {
			m.showList = true
		}
	}
	m.refreshHeader()
}
