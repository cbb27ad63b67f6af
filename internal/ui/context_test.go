package ui

import (
	"sync"
	"testing"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/gesture"
)

func TestViewContext_UpdateTerminalSize(t *testing.T) {
	ctx := NewViewContext(DefaultBreakpoint)

	ctx.UpdateTerminalSize(120, 40)

	if ctx.TerminalWidth != 120 {
		t.Errorf("Expected TerminalWidth 120, got %d", ctx.TerminalWidth)
	}
	if ctx.TerminalHeight != 40 {
		t.Errorf("Expected TerminalHeight 40, got %d", ctx.TerminalHeight)
	}

	expectedContent := 40 - HeaderHeight - FooterHeight
	if ctx.ContentHeight != expectedContent {
		t.Errorf("Expected ContentHeight %d, got %d", expectedContent, ctx.ContentHeight)
	}

	expectedList := 120 / ListWidthRatio
	if ctx.ListWidth != expectedList {
		t.Errorf("Expected ListWidth %d, got %d", expectedList, ctx.ListWidth)
	}
	if ctx.ThreadWidth != 120-expectedList {
		t.Errorf("Expected ThreadWidth %d, got %d", 120-expectedList, ctx.ThreadWidth)
	}
	if ctx.Mobile() {
		t.Error("120 columns should show both panes")
	}
}

func TestViewContext_Breakpoint(t *testing.T) {
	tests := []struct {
		name       string
		breakpoint int
		width      int
		wantMobile bool
	}{
		{"well above", DefaultBreakpoint, 128, false},
		{"exactly at breakpoint", DefaultBreakpoint, 96, false},
		{"one below", DefaultBreakpoint, 95, true},
		{"phone sized", DefaultBreakpoint, 62, true},
		{"below minimum width", DefaultBreakpoint, 20, true},
		{"custom breakpoint", 60, 62, false},
		{"zero falls back to default", 0, 90, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewViewContext(tt.breakpoint)
			ctx.UpdateTerminalSize(tt.width, 30)
			if got := ctx.Mobile(); got != tt.wantMobile {
				t.Errorf("Mobile() = %v, want %v", got, tt.wantMobile)
			}
			if tt.wantMobile && (ctx.ListWidth != ctx.TerminalWidth || ctx.ThreadWidth != ctx.TerminalWidth) {
				t.Errorf("single pane should span the terminal, got list=%d thread=%d", ctx.ListWidth, ctx.ThreadWidth)
			}
		})
	}
}

func TestViewContext_MinListWidth(t *testing.T) {
	ctx := NewViewContext(DefaultBreakpoint)
	ctx.UpdateTerminalSize(96, 30)

	if ctx.ListWidth < MinListWidth {
		t.Errorf("ListWidth %d is below the minimum %d", ctx.ListWidth, MinListWidth)
	}
	if ctx.ListWidth+ctx.ThreadWidth != 96 {
		t.Errorf("panes should fill the width, got %d+%d", ctx.ListWidth, ctx.ThreadWidth)
	}
}

func TestViewContext_InnerDimensions(t *testing.T) {
	ctx := NewViewContext(DefaultBreakpoint)

	tests := []struct {
		panel int
		want  int
	}{
		{40, 38},
		{10, 8},
		{2, 0},
	}
	for _, tt := range tests {
		if got := ctx.InnerWidth(tt.panel); got != tt.want {
			t.Errorf("InnerWidth(%d) = %d, want %d", tt.panel, got, tt.want)
		}
		if got := ctx.InnerHeight(tt.panel); got != tt.want {
			t.Errorf("InnerHeight(%d) = %d, want %d", tt.panel, got, tt.want)
		}
	}
}

func TestViewContext_ConcurrentAccess(t *testing.T) {
	ctx := NewViewContext(DefaultBreakpoint)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ctx.UpdateTerminalSize(60+w*10, 30)
			_ = ctx.Mobile()
		}(i)
	}
	wg.Wait()
}

func TestPanes_ShareViewContext(t *testing.T) {
	v := NewViewContext(DefaultBreakpoint)
	l := NewConversationList(testSelfID)
	th := NewThread(testSelfID, gesture.DefaultConfig())
	if l.view == nil || th.view == nil {
		t.Fatal("panes should start with a layout")
	}

	l.SetViewContext(v)
	th.SetViewContext(v)
	if l.view != v || th.view != v {
		t.Error("panes should use the shared layout")
	}
}
