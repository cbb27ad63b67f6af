package ui

import (
	"sync"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
)

// ViewContext holds centralized layout calculations and provides debug logging.
// All size calculations should go through this to avoid duplication.
type ViewContext struct {
	// Terminal dimensions
	TerminalWidth  int
	TerminalHeight int

	// Breakpoint is the width in columns below which a single pane is shown
	Breakpoint int

	// Calculated dimensions
	HeaderHeight  int
	FooterHeight  int
	ContentHeight int
	ListWidth     int
	ThreadWidth   int

	mobile bool

	mu sync.Mutex
}

// NewViewContext returns a layout for the given single-pane threshold. The
// app owns one and shares it with the panes.
func NewViewContext(breakpoint int) *ViewContext {
	if breakpoint <= 0 {
		breakpoint = DefaultBreakpoint
	}
	return &ViewContext{
		HeaderHeight: HeaderHeight,
		FooterHeight: FooterHeight,
		Breakpoint:   breakpoint,
	}
}

// UpdateTerminalSize recalculates all dimensions when terminal size changes.
// This method is thread-safe and should be called from the main event loop
// when the terminal is resized.
func (v *ViewContext) UpdateTerminalSize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// the breakpoint is judged on the real width, before clamping
	v.mobile = width < v.Breakpoint

	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if height < MinTerminalHeight {
		height = MinTerminalHeight
	}

	v.TerminalWidth = width
	v.TerminalHeight = height
	v.HeaderHeight = HeaderHeight
	v.FooterHeight = FooterHeight
	v.ContentHeight = height - v.HeaderHeight - v.FooterHeight

	if v.mobile {
		// one pane at a time, each gets the full width
		v.ListWidth = width
		v.ThreadWidth = width
	} else {
		v.ListWidth = max(width/ListWidthRatio, MinListWidth)
		v.ThreadWidth = width - v.ListWidth
	}

	logger.WithComponent("ui").Debug("Terminal size updated",
		"width", width,
		"height", height,
		"mobile", v.mobile,
		"contentHeight", v.ContentHeight,
		"listWidth", v.ListWidth,
		"threadWidth", v.ThreadWidth,
	)
}

// Mobile reports whether the terminal is narrower than the breakpoint.
func (v *ViewContext) Mobile() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mobile
}

// InnerWidth returns the usable width inside a panel with borders
func (v *ViewContext) InnerWidth(panelWidth int) int {
	return panelWidth - BorderSize
}

// InnerHeight returns the usable height inside a panel with borders
func (v *ViewContext) InnerHeight(panelHeight int) int {
	return panelHeight - BorderSize
}

// Log writes a layout debug line with structured attributes.
func (v *ViewContext) Log(msg string, args ...any) {
	logger.WithComponent("ui").Debug(msg, args...)
}
