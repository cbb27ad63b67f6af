package ui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/gesture"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/keys"
)

// LongPressTickMsg fires when a bubble has been held for the long-press
// delay. Token identifies the press it was scheduled for.
type LongPressTickMsg struct {
	MessageID string
	Token     uint64
}

// SnapBackDoneMsg ends the snap-back animation of a swiped bubble.
type SnapBackDoneMsg struct {
	MessageID string
}

// OpenMenuMsg asks the owner to open the context menu for a message at a
// position local to the thread pane.
type OpenMenuMsg struct {
	MessageID string
	X, Y      int
}

// bubbleSpan records where a message was drawn in the viewport content.
type bubbleSpan struct {
	id     string
	top    int
	height int
	left   int
	width  int
}

type snapState struct {
	id     string
	offset float64
}

// Thread is the right pane: message history over the composer.
type Thread struct {
	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	focused  bool
	selfID   string
	now      func() time.Time

	conv     chat.Conversation
	hasConv  bool
	messages []chat.Message
	typing   bool
	loadErr  string

	replyTo    *chat.Message
	cursorID   string // message picked with the keyboard
	menuTarget string // message whose context menu is open

	gestureCfg gesture.Config
	machine    *gesture.Machine
	pressID    string
	pressAt    [2]int
	pending    *LongPressTickMsg
	snap       *snapState

	spans []bubbleSpan
	view  *ViewContext
}

// NewThread creates an empty thread pane.
func NewThread(selfID string, cfg gesture.Config) *Thread {
	ti := textarea.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = ComposerCharLimit
	ti.SetHeight(TextareaHeight)
	ti.ShowLineNumbers = false
	ti.Prompt = ""

	vp := viewport.New()
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	t := &Thread{
		viewport:   vp,
		input:      ti,
		selfID:     selfID,
		now:        time.Now,
		gestureCfg: cfg,
		view:       NewViewContext(DefaultBreakpoint),
	}
	t.updateContent()
	return t
}

// SetViewContext shares the app's layout with the thread.
func (t *Thread) SetViewContext(v *ViewContext) {
	t.view = v
}

// SetClock replaces the time source used for timestamps.
func (t *Thread) SetClock(now func() time.Time) {
	t.now = now
}

// SetSize sets the outer pane dimensions, borders included.
func (t *Thread) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.resizeViewport()
	t.input.SetWidth(max(t.view.InnerWidth(width)-2, 1))
	t.updateContent()
}

func (t *Thread) resizeViewport() {
	ctx := t.view
	panel := t.height - InputTotalHeight
	vh := ctx.InnerHeight(panel)
	if t.replyTo != nil {
		vh--
	}
	t.viewport.SetWidth(max(ctx.InnerWidth(t.width), 1))
	t.viewport.SetHeight(max(vh, 1))
	ctx.Log("Thread.SetSize", "width", t.width, "height", t.height, "viewportHeight", t.viewport.Height())
}

// SetFocused sets the focus state
func (t *Thread) SetFocused(focused bool) {
	t.focused = focused
	if focused {
		t.input.Focus()
	} else {
		t.input.Blur()
	}
}

// IsFocused returns the focus state
func (t *Thread) IsFocused() bool {
	return t.focused
}

// SetConversation switches the pane to conv. Any gesture, reply target
// and keyboard pick belonging to the previous conversation is dropped.
func (t *Thread) SetConversation(conv chat.Conversation, msgs []chat.Message, typing bool) {
	switched := !t.hasConv || t.conv.ID != conv.ID
	t.conv = conv
	t.hasConv = true
	t.loadErr = ""
	if switched {
		t.CancelGesture()
		t.cursorID = ""
		t.menuTarget = ""
		t.snap = nil
		t.input.Reset()
		if t.replyTo != nil {
			t.replyTo = nil
			t.resizeViewport()
		}
	}
	t.messages = msgs
	t.typing = typing
	t.updateContent()
	if switched {
		t.viewport.GotoBottom()
	}
}

// SetMessages refreshes the history of the open conversation.
func (t *Thread) SetMessages(msgs []chat.Message, typing bool) {
	atBottom := t.viewport.AtBottom()
	grew := len(msgs) > len(t.messages) || typing != t.typing
	t.messages = msgs
	t.typing = typing
	if t.replyTo != nil {
		if m, ok := t.find(t.replyTo.ID); !ok || m.Recalled {
			t.ClearReply()
		}
	}
	if t.cursorID != "" {
		if _, ok := t.find(t.cursorID); !ok {
			t.cursorID = ""
		}
	}
	t.updateContent()
	if atBottom || grew {
		t.viewport.GotoBottom()
	}
}

// ClearConversation empties the pane.
func (t *Thread) ClearConversation() {
	t.CancelGesture()
	t.conv = chat.Conversation{}
	t.hasConv = false
	t.messages = nil
	t.typing = false
	t.cursorID = ""
	t.menuTarget = ""
	t.ClearReply()
	t.updateContent()
}

// HasConversation reports whether a conversation is open.
func (t *Thread) HasConversation() bool {
	return t.hasConv
}

// ConversationID returns the open conversation's id.
func (t *Thread) ConversationID() string {
	return t.conv.ID
}

// SetError shows a load failure in place of the history.
func (t *Thread) SetError(msg string) {
	t.loadErr = msg
	t.updateContent()
}

// LoadFailed reports whether the history failed to load.
func (t *Thread) LoadFailed() bool {
	return t.loadErr != ""
}

// GetInput returns the trimmed composer text.
func (t *Thread) GetInput() string {
	return strings.TrimSpace(t.input.Value())
}

// ClearInput empties the composer.
func (t *Thread) ClearInput() {
	t.input.Reset()
}

// SetReplyTo quotes msg in the next outgoing message.
func (t *Thread) SetReplyTo(msg chat.Message) {
	had := t.replyTo != nil
	t.replyTo = &msg
	if !had {
		t.resizeViewport()
	}
	t.updateContent()
}

// ReplyTo returns the message being replied to.
func (t *Thread) ReplyTo() (chat.Message, bool) {
	if t.replyTo == nil {
		return chat.Message{}, false
	}
	return *t.replyTo, true
}

// ClearReply drops the reply target.
func (t *Thread) ClearReply() {
	if t.replyTo == nil {
		return
	}
	t.replyTo = nil
	t.resizeViewport()
	t.updateContent()
}

// SetMenuTarget highlights the bubble whose menu is open; "" clears it.
func (t *Thread) SetMenuTarget(id string) {
	t.menuTarget = id
	t.updateContent()
}

// =============================================================================
// Keyboard message picking
// =============================================================================

func (t *Thread) pickable() []chat.Message {
	out := make([]chat.Message, 0, len(t.messages))
	for _, m := range t.messages {
		if m.Type != chat.TypeSystem {
			out = append(out, m)
		}
	}
	return out
}

// PickPrevious moves the keyboard pick to the previous message, starting
// from the newest.
func (t *Thread) PickPrevious() {
	msgs := t.pickable()
	if len(msgs) == 0 {
		return
	}
	idx := len(msgs) - 1
	for i, m := range msgs {
		if m.ID == t.cursorID && i > 0 {
			idx = i - 1
			break
		} else if m.ID == t.cursorID {
			idx = 0
			break
		}
	}
	t.cursorID = msgs[idx].ID
	t.updateContent()
	t.scrollTo(t.cursorID)
}

// PickNext moves the keyboard pick to the next message, clearing it past
// the newest.
func (t *Thread) PickNext() {
	msgs := t.pickable()
	for i, m := range msgs {
		if m.ID == t.cursorID {
			if i+1 < len(msgs) {
				t.cursorID = msgs[i+1].ID
			} else {
				t.cursorID = ""
			}
			t.updateContent()
			t.scrollTo(t.cursorID)
			return
		}
	}
}

// Picked returns the keyboard-picked message.
func (t *Thread) Picked() (chat.Message, bool) {
	if t.cursorID == "" {
		return chat.Message{}, false
	}
	return t.find(t.cursorID)
}

// ClearPick drops the keyboard pick.
func (t *Thread) ClearPick() {
	if t.cursorID != "" {
		t.cursorID = ""
		t.updateContent()
	}
}

func (t *Thread) scrollTo(id string) {
	for _, s := range t.spans {
		if s.id != id {
			continue
		}
		top := t.viewport.YOffset()
		if s.top < top {
			t.viewport.SetYOffset(s.top)
		} else if s.top+s.height > top+t.viewport.Height() {
			t.viewport.SetYOffset(s.top + s.height - t.viewport.Height())
		}
		return
	}
}

// BubbleOrigin returns the pane-local position of a bubble's top-left
// corner, if it is on screen.
func (t *Thread) BubbleOrigin(id string) (int, int, bool) {
	for _, s := range t.spans {
		if s.id != id {
			continue
		}
		y := s.top - t.viewport.YOffset()
		if y < 0 || y >= t.viewport.Height() {
			return 0, 0, false
		}
		// one cell of panel border
		return s.left + 1, y + 1, true
	}
	return 0, 0, false
}

// MessageAt returns the message whose bubble covers the pane-local cell
// (x, y).
func (t *Thread) MessageAt(x, y int) (chat.Message, bool) {
	col, row := x-1, y-1
	if row < 0 || row >= t.viewport.Height() || col < 0 {
		return chat.Message{}, false
	}
	line := row + t.viewport.YOffset()
	for _, s := range t.spans {
		if line >= s.top && line < s.top+s.height && col >= s.left && col < s.left+s.width {
			return t.find(s.id)
		}
	}
	return chat.Message{}, false
}

func (t *Thread) find(id string) (chat.Message, bool) {
	for _, m := range t.messages {
		if m.ID == id {
			return m, true
		}
	}
	return chat.Message{}, false
}

// =============================================================================
// Gestures
// =============================================================================

// Press starts a gesture on the bubble at pane-local (x, y). It returns
// the long-press timer, or nil when nothing pressable is there.
func (t *Thread) Press(x, y int) tea.Cmd {
	msg, ok := t.MessageAt(x, y)
	if !ok || msg.Type == chat.TypeSystem || msg.Recalled {
		t.CancelGesture()
		return nil
	}
	if t.snap != nil && t.snap.id == msg.ID {
		t.snap = nil
	}
	t.machine = gesture.New(t.gestureCfg, gesture.DirectionFor(msg.IsOwn(t.selfID)))
	t.pressID = msg.ID
	t.pressAt = [2]int{x, y}
	res := t.machine.Press(gesture.CellPoint(x, y))
	return t.apply(res)
}

// Move feeds a drag position to the active gesture.
func (t *Thread) Move(x, y int) tea.Cmd {
	if t.machine == nil {
		return nil
	}
	before := t.machine.Offset()
	res := t.machine.Move(gesture.CellPoint(x, y))
	if res.SnapBack {
		t.snap = &snapState{id: t.pressID, offset: before}
	}
	cmd := t.apply(res)
	t.updateContent()
	return cmd
}

// Release ends the active gesture. A swipe past the reply threshold sets
// the reply target.
func (t *Thread) Release() tea.Cmd {
	if t.machine == nil {
		return nil
	}
	before := t.machine.Offset()
	res := t.machine.Release()
	if res.SnapBack {
		t.snap = &snapState{id: t.pressID, offset: before}
	}
	if res.Reply {
		if msg, ok := t.find(t.pressID); ok {
			t.SetReplyTo(msg)
		}
	}
	cmd := t.apply(res)
	t.pending = nil
	t.updateContent()
	return cmd
}

// LongPressFired delivers the long-press timer. It reports the menu to
// open when the press it belongs to is still held in place.
func (t *Thread) LongPressFired(msg LongPressTickMsg) (OpenMenuMsg, bool) {
	if t.machine == nil || msg.MessageID != t.pressID {
		return OpenMenuMsg{}, false
	}
	res := t.machine.TimerFired(msg.Token)
	t.pending = nil
	if !res.OpenMenu {
		return OpenMenuMsg{}, false
	}
	t.updateContent()
	return OpenMenuMsg{MessageID: t.pressID, X: t.pressAt[0], Y: t.pressAt[1]}, true
}

// PendingLongPress returns the timer message scheduled by the last press.
func (t *Thread) PendingLongPress() (LongPressTickMsg, bool) {
	if t.pending == nil {
		return LongPressTickMsg{}, false
	}
	return *t.pending, true
}

// FinishSnap ends a snap-back animation.
func (t *Thread) FinishSnap(msg SnapBackDoneMsg) {
	if t.snap != nil && t.snap.id == msg.MessageID {
		t.snap = nil
		t.updateContent()
	}
}

// GestureState returns the state of the active gesture.
func (t *Thread) GestureState() gesture.State {
	if t.machine == nil {
		return gesture.Idle
	}
	return t.machine.State()
}

// CancelGesture abandons any gesture in progress. Timers already scheduled
// are ignored when they fire.
func (t *Thread) CancelGesture() {
	if t.machine != nil {
		t.machine.Cancel()
	}
	t.machine = nil
	t.pressID = ""
	t.pending = nil
}

func (t *Thread) apply(res gesture.Result) tea.Cmd {
	var cmds []tea.Cmd
	if res.StartTimer != nil {
		tick := LongPressTickMsg{MessageID: t.pressID, Token: res.StartTimer.Token}
		t.pending = &tick
		cmds = append(cmds, tea.Tick(res.StartTimer.Delay, func(time.Time) tea.Msg { return tick }))
	}
	if res.SnapBack && t.snap != nil {
		done := SnapBackDoneMsg{MessageID: t.snap.id}
		cmds = append(cmds, tea.Tick(t.gestureCfg.SnapBack, func(time.Time) tea.Msg { return done }))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// shift returns how many columns the bubble id is displaced by a swipe.
func (t *Thread) shift(id string, own bool) int {
	var px float64
	switch {
	case t.snap != nil && t.snap.id == id:
		// halfway back while the snap animation runs
		px = t.snap.offset / 2
	case t.machine != nil && t.pressID == id:
		px = t.machine.Offset()
	}
	cols := int(px / gesture.PxPerColumn)
	if own {
		return -cols
	}
	return cols
}

// =============================================================================
// Update and rendering
// =============================================================================

// Update handles composer input and scrolling.
func (t *Thread) Update(msg tea.Msg) (*Thread, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		if !t.focused || !t.hasConv {
			return t, nil
		}
		switch key.String() {
		case keys.PgUp, keys.PgDown, keys.Home, keys.End:
			var cmd tea.Cmd
			t.viewport, cmd = t.viewport.Update(msg)
			return t, cmd
		}
		var cmd tea.Cmd
		t.input, cmd = t.input.Update(msg)
		return t, cmd
	}

	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

func (t *Thread) updateContent() {
	width := t.viewport.Width()
	if !t.hasConv {
		t.spans = nil
		t.viewport.SetContent("")
		return
	}
	if t.loadErr != "" {
		t.spans = nil
		t.viewport.SetContent(StatusErrorStyle.Render(t.loadErr))
		return
	}

	var lines []string
	var spans []bubbleSpan
	isGroup := t.conv.Type == chat.Group

	for i, m := range t.messages {
		if i > 0 {
			lines = append(lines, "")
		}
		if m.Type == chat.TypeSystem || m.Recalled {
			lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, SystemMessageStyle.Render(t.systemText(m))))
			continue
		}

		own := m.IsOwn(t.selfID)
		if isGroup && !own && m.SenderName != "" {
			lines = append(lines, " "+SenderNameStyle.Render(truncate(m.SenderName, width-2)))
		}

		bubble := t.renderBubble(m, own, width)
		bw, bh := lipgloss.Size(bubble)
		left := 0
		if own {
			left = max(width-bw, 0)
		}
		shifted := max(left+t.shift(m.ID, own), 0)
		spans = append(spans, bubbleSpan{id: m.ID, top: len(lines), height: bh, left: left, width: bw})
		pad := strings.Repeat(" ", shifted)
		for _, l := range strings.Split(bubble, "\n") {
			lines = append(lines, pad+l)
		}
	}

	if t.typing {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, " "+TypingStyle.Render("typing…"))
	}

	if len(t.messages) == 0 && !t.typing {
		lines = append(lines, EmptyStateStyle.Render("No messages yet. Say hello!"))
	}

	t.spans = spans
	t.viewport.SetContent(strings.Join(lines, "\n"))
}

func (t *Thread) systemText(m chat.Message) string {
	if !m.Recalled {
		return m.Content
	}
	if m.IsOwn(t.selfID) {
		return "You recalled a message"
	}
	return m.SenderName + " recalled a message"
}

func (t *Thread) bubbleBody(m chat.Message) string {
	switch m.Type {
	case chat.TypeImage:
		return "🖼 Photo"
	case chat.TypeVoice:
		return "🎤 Voice message"
	case chat.TypeLocation:
		return "📍 " + m.Content
	}
	return m.Content
}

func (t *Thread) renderBubble(m chat.Message, own bool, width int) string {
	style := PeerBubbleStyle
	if own {
		style = OwnBubbleStyle
	}
	maxW := max(width*BubbleWidthRatio/100-style.GetHorizontalPadding(), 8)

	var body []string
	if m.ReplyToID != "" {
		quoted := "Original message unavailable"
		if q, ok := t.find(m.ReplyToID); ok {
			quoted = q.SenderName + ": " + q.Preview()
		}
		body = append(body, QuoteStyle.Render(truncate(quoted, maxW-2)))
	}
	body = append(body, wrap(t.bubbleBody(m), maxW)...)
	body = append(body, t.meta(m, own))

	inner := 0
	for _, l := range body {
		inner = max(inner, lipgloss.Width(l))
	}
	for i, l := range body {
		body[i] = padRight(l, inner)
	}
	// the meta line hugs the right edge
	last := t.meta(m, own)
	body[len(body)-1] = strings.Repeat(" ", inner-lipgloss.Width(last)) + last

	bubble := style.Render(strings.Join(body, "\n"))
	if m.ID == t.menuTarget || m.ID == t.cursorID || (t.machine != nil && t.pressID == m.ID && t.machine.State() == gesture.LongPressed) {
		bubble = PressedBubbleStyle.Render(bubble)
	}
	return bubble
}

func (t *Thread) meta(m chat.Message, own bool) string {
	ts := MetaStyle.Render(m.Timestamp.Local().Format("15:04"))
	if !own {
		return ts
	}
	return ts + " " + statusGlyph(m.Status)
}

// statusGlyph is the delivery indicator shown on the user's own bubbles.
func statusGlyph(s chat.Status) string {
	switch s {
	case chat.StatusSending:
		return MetaStyle.Render("…")
	case chat.StatusSent:
		return MetaStyle.Render("✓")
	case chat.StatusDelivered:
		return MetaStyle.Render("✓✓")
	case chat.StatusRead:
		return ReadGlyphStyle.Render("✓✓")
	case chat.StatusFailed:
		return FailedGlyphStyle.Render("✕ not sent")
	}
	return ""
}

// View renders the thread pane
func (t *Thread) View() string {
	panelStyle := PanelStyle
	if t.focused {
		panelStyle = PanelFocusedStyle
	}

	if !t.hasConv {
		placeholder := EmptyStateStyle.Render("Select a conversation to start chatting")
		return panelStyle.Width(t.width).Height(t.height).Render(placeholder)
	}

	panelHeight := t.height - InputTotalHeight
	content := t.viewport.View()
	if t.replyTo != nil {
		w := t.view.InnerWidth(t.width)
		banner := "Replying to " + t.replyTo.SenderName + ": " + t.replyTo.Preview()
		content += "\n" + ReplyBannerStyle.Render(truncate(banner, w-2))
	}
	panel := panelStyle.Width(t.width).Height(panelHeight).Render(content)

	inputStyle := ComposerStyle
	if t.focused {
		inputStyle = ComposerFocusedStyle
	}
	inputArea := inputStyle.Width(t.width).Render(t.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, panel, inputArea)
}
