package ui

import "charm.land/lipgloss/v2"

// Color palette - LumaTrip coral + ocean teal
var (
	ColorPrimary     = lipgloss.Color("#F97360") // Coral
	ColorSecondary   = lipgloss.Color("#14B8A6") // Teal
	ColorMuted       = lipgloss.Color("#6B7280") // Gray
	ColorBorder      = lipgloss.Color("#374151") // Dark gray
	ColorBorderFocus = lipgloss.Color("#F97360") // Coral when focused
	ColorBg          = lipgloss.Color("#111827") // Dark background
	ColorText        = lipgloss.Color("#F9FAFB") // Light text
	ColorTextMuted   = lipgloss.Color("#B0B8C4") // Muted text
	ColorTextInverse = lipgloss.Color("#111827") // Dark text for light backgrounds
	ColorOwnBubble   = lipgloss.Color("#0F766E") // Deep teal for own messages
	ColorPeerBubble  = lipgloss.Color("#1F2937") // Slate for others
	ColorSelectedBg  = lipgloss.Color("#312E81") // Indigo selection
	ColorOnline      = lipgloss.Color("#22C55E") // Green presence dot
	ColorWarning     = lipgloss.Color("#F59E0B") // Amber
	ColorInfo        = lipgloss.Color("#38BDF8") // Sky
	ColorError       = lipgloss.Color("#EF4444") // Red
	ColorSuccess     = lipgloss.Color("#10B981") // Green
)

// hex values the header gradient interpolates between
const (
	headerGradientStart = "#F97360"
	headerGradientEnd   = "#111827"
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1)
)

// Footer styles
var (
	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	FooterKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	PanelFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderFocus)
)

// Conversation list styles
var (
	ListItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	ListSelectedStyle = lipgloss.NewStyle().
				Background(ColorSelectedBg).
				Foreground(ColorText).
				Padding(0, 1)

	ListNameStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	ListPreviewStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted)

	ListTimeStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	UnreadBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorTextInverse).
				Background(ColorPrimary).
				Bold(true).
				Padding(0, 1)

	OnlineDotStyle = lipgloss.NewStyle().
			Foreground(ColorOnline)

	SearchStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)

	EmptyStateStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true).
			Padding(1, 2)
)

// Thread styles
var (
	OwnBubbleStyle = lipgloss.NewStyle().
			Background(ColorOwnBubble).
			Foreground(ColorText).
			Padding(0, 1)

	PeerBubbleStyle = lipgloss.NewStyle().
			Background(ColorPeerBubble).
			Foreground(ColorText).
			Padding(0, 1)

	// PressedBubbleStyle marks a long-pressed bubble; a terminal cannot
	// scale a cell so the emphasis is a border instead.
	PressedBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)

	SenderNameStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	MetaStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ReadGlyphStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	FailedGlyphStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	SystemMessageStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Italic(true)

	QuoteStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(ColorSecondary).
			PaddingLeft(1)

	TypingStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Italic(true)

	ReplyBannerStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted).
				BorderLeft(true).
				BorderStyle(lipgloss.ThickBorder()).
				BorderForeground(ColorPrimary).
				PaddingLeft(1)

	ComposerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	ComposerFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderFocus).
				Padding(0, 1)
)

// Menu and modal styles
var (
	MenuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	MenuItemStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	MenuSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorTextInverse).
				Background(ColorSecondary).
				Bold(true)

	MenuDangerStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2).
			Width(ModalWidth)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	ModalHelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			MarginTop(1)
)

// Status styles
var (
	StatusLoadingStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Italic(true)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)
)
