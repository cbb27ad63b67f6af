package ui

import tea "charm.land/bubbletea/v2"

// Dismisser closes a popup when the user clicks outside it. It holds a
// single registration: registering again replaces the previous one.
type Dismisser struct {
	bounds    Rect
	onDismiss tea.Msg
	active    bool
}

// NewDismisser creates an empty dismisser.
func NewDismisser() *Dismisser {
	return &Dismisser{}
}

// Register watches for clicks outside bounds. msg is handed back by
// HandleClick when one happens.
func (d *Dismisser) Register(bounds Rect, msg tea.Msg) {
	d.bounds = bounds
	d.onDismiss = msg
	d.active = true
}

// Unregister drops the registration without dispatching.
func (d *Dismisser) Unregister() {
	d.bounds = Rect{}
	d.onDismiss = nil
	d.active = false
}

// Active reports whether a popup is registered.
func (d *Dismisser) Active() bool {
	return d.active
}

// HandleClick checks a click at (x, y). A click outside the registered
// bounds unregisters and returns the dismissal message; a click inside,
// or with nothing registered, returns nil.
func (d *Dismisser) HandleClick(x, y int) tea.Msg {
	if !d.active || d.bounds.Contains(x, y) {
		return nil
	}
	msg := d.onDismiss
	d.Unregister()
	return msg
}
