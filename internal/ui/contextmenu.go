package ui

import (
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
)

// MenuAction is one entry of the message context menu.
type MenuAction string

const (
	ActionReply   MenuAction = "reply"
	ActionCopy    MenuAction = "copy"
	ActionForward MenuAction = "forward"
	ActionDelete  MenuAction = "delete"
	ActionRecall  MenuAction = "recall"
)

var menuLabels = map[MenuAction]string{
	ActionReply:   "↩ Reply",
	ActionCopy:    "⧉ Copy",
	ActionForward: "↪ Forward",
	ActionDelete:  "✕ Delete",
	ActionRecall:  "⟲ Recall",
}

// MenuItems lists the actions offered for msg. Recall is only offered on
// the user's own messages inside the recall window.
func MenuItems(msg chat.Message, selfID string, now time.Time) []MenuAction {
	if msg.Recalled {
		return []MenuAction{ActionDelete}
	}
	items := []MenuAction{ActionReply, ActionCopy, ActionForward, ActionDelete}
	if chat.CanRecall(msg, selfID, now) {
		items = append(items, ActionRecall)
	}
	return items
}

// Rect is a screen region in cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// ContextMenu is the popup opened by a long press on a bubble.
type ContextMenu struct {
	MessageID      string
	ConversationID string
	items          []MenuAction
	cursor         int
	bounds         Rect
}

// NewContextMenu builds the menu for msg.
func NewContextMenu(msg chat.Message, selfID string, now time.Time) *ContextMenu {
	return &ContextMenu{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		items:          MenuItems(msg, selfID, now),
	}
}

// Items returns the offered actions in display order.
func (m *ContextMenu) Items() []MenuAction {
	return m.items
}

func (m *ContextMenu) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *ContextMenu) MoveDown() {
	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
}

// Selected returns the action under the cursor.
func (m *ContextMenu) Selected() MenuAction {
	return m.items[m.cursor]
}

// Size returns the rendered width and height in cells.
func (m *ContextMenu) Size() (int, int) {
	return lipgloss.Size(m.render())
}

// Place anchors the menu at (x, y), shifting it left or up so it stays on
// a screen of the given size.
func (m *ContextMenu) Place(x, y, screenW, screenH int) {
	w, h := m.Size()
	if x+w > screenW {
		x = screenW - w
	}
	if y+h > screenH {
		y = screenH - h
	}
	m.bounds = Rect{X: max(x, 0), Y: max(y, 0), W: w, H: h}
}

// Bounds is the screen region the menu occupies after Place.
func (m *ContextMenu) Bounds() Rect {
	return m.bounds
}

// ActionAt returns the action drawn at screen cell (x, y).
func (m *ContextMenu) ActionAt(x, y int) (MenuAction, bool) {
	if !m.bounds.Contains(x, y) {
		return "", false
	}
	// one border row above the items
	row := y - m.bounds.Y - 1
	if row < 0 || row >= len(m.items) {
		return "", false
	}
	return m.items[row], true
}

// View renders the menu
func (m *ContextMenu) View() string {
	return m.render()
}

func (m *ContextMenu) render() string {
	width := 0
	for _, a := range m.items {
		width = max(width, lipgloss.Width(menuLabels[a]))
	}
	lines := make([]string, len(m.items))
	for i, a := range m.items {
		label := padRight(menuLabels[a], width)
		switch {
		case i == m.cursor:
			lines[i] = MenuSelectedStyle.Render(label)
		case a == ActionDelete || a == ActionRecall:
			lines[i] = MenuDangerStyle.Render(label)
		default:
			lines[i] = MenuItemStyle.Render(label)
		}
	}
	return MenuStyle.Render(strings.Join(lines, "\n"))
}
