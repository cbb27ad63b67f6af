// Package ui provides the user interface components for the LumaTrip chat
// client.
//
// # Layout System
//
// At or above the breakpoint (96 columns by default) both panes share the
// screen:
//
//	┌─────────────────────────────────────────────────────┐
//	│ Header (1 line)                                     │
//	├─────────────────┬───────────────────────────────────┤
//	│  Search         │  Messages                         │
//	│  Conversation   │                                   │
//	│  list           ├───────────────────────────────────┤
//	│  (1/3 width)    │  Composer                         │
//	├─────────────────┴───────────────────────────────────┤
//	│ Footer (1 line)                                     │
//	└─────────────────────────────────────────────────────┘
//
// Below it only one pane is drawn at a time and the header grows a back
// arrow while the thread is shown.
//
// # Components
//
// ViewContext owns every size calculation, including the breakpoint.
//
// ConversationList draws the search box and two-line conversation rows with
// unread badges and typing previews. It maps clicked lines back to rows.
//
// Thread draws message bubbles, the reply preview and the composer. Mouse
// presses, moves and releases are fed to a gesture.Machine so a long
// press opens the context menu and a horizontal drag sets the reply target.
//
// ContextMenu lists the actions for one message and is placed so it stays
// on screen. Dismisser turns a click outside a registered rectangle into a
// message, which is how the menu closes.
//
// Header, Footer and Modal are the chrome: presence, key hints with flash
// messages, and the forward and help dialogs.
//
// # Styles
//
// All styles are defined in styles.go using Lipgloss. The palette is coral
// (ColorPrimary) and teal (ColorSecondary) on a dark background, with own
// bubbles in deep teal and peer bubbles in slate.
package ui
