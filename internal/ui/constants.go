package ui

// Layout constants for panel sizing
const (
	// HeaderHeight is the height of the header in lines
	HeaderHeight = 1

	// FooterHeight is the height of the footer in lines
	FooterHeight = 1

	// BorderSize is the total border width (1 on each side)
	BorderSize = 2

	// ListWidthRatio is the denominator for the conversation list width in
	// two-pane mode (1/3 of total width)
	ListWidthRatio = 3

	// MinListWidth keeps names and previews readable on mid-sized terminals
	MinListWidth = 30

	// TextareaHeight is the number of lines for the composer
	TextareaHeight = 2

	// TextareaBorderHeight is the border size around the composer
	TextareaBorderHeight = 2

	// InputTotalHeight is the total height of the composer (textarea + borders)
	InputTotalHeight = TextareaHeight + TextareaBorderHeight

	// SearchHeight is the search box plus its separator in the list pane
	SearchHeight = 2

	// ConversationRowHeight is the number of lines per conversation in the list
	ConversationRowHeight = 2

	// MinTerminalWidth and MinTerminalHeight bound layout math on tiny terminals
	MinTerminalWidth  = 40
	MinTerminalHeight = 12

	// DefaultBreakpoint is the two-pane threshold in columns: 768px at
	// 8px per column.
	DefaultBreakpoint = 96

	// BubbleWidthRatio caps a bubble at this fraction (percent) of the thread width
	BubbleWidthRatio = 75
)

// Modal dimensions
const (
	// ModalWidth is the default width of modals
	ModalWidth = 44

	// ModalInputCharLimit is the character limit for modal text inputs
	ModalInputCharLimit = 256

	// ComposerCharLimit is the maximum message length
	ComposerCharLimit = 2000
)
