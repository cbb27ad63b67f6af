package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// truncate cuts s to at most width display columns, ending with an ellipsis
// when anything was dropped. Wide (CJK) runes count as two columns.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, width, "…")
}

// padRight pads s with spaces to width display columns.
func padRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// wrap hard-wraps s to width columns, breaking on spaces where it can.
func wrap(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	return strings.Split(ansi.Wrap(s, width, ""), "\n")
}

// initial returns the first user-perceived character of name, so a
// flag or family emoji is never split.
func initial(name string) string {
	g := uniseg.NewGraphemes(strings.TrimSpace(name))
	if g.Next() {
		return strings.ToUpper(g.Str())
	}
	return "?"
}

// relativeTime formats ts for a list row: a clock time today, "Yesterday",
// a weekday within the week, then a date.
func relativeTime(ts, now time.Time) string {
	if ts.IsZero() {
		return ""
	}
	ts, now = ts.Local(), now.Local()
	y1, m1, d1 := ts.Date()
	y2, m2, d2 := now.Date()
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, now.Location())
	day := time.Date(y1, m1, d1, 0, 0, 0, 0, ts.Location())

	switch days := int(today.Sub(day).Hours() / 24); {
	case days <= 0:
		return ts.Format("15:04")
	case days == 1:
		return "Yesterday"
	case days < 7:
		return ts.Format("Mon")
	case y1 == y2:
		return ts.Format("Jan 2")
	default:
		return ts.Format("2006-01-02")
	}
}
