// Package scenarios contains built-in demo scenarios for LumaTrip.
package scenarios

import (
	"time"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/demo"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/demo/script"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/keys"
)

// Basic walks through a direct conversation:
// - finding Emma with the search box
// - sending a message and watching her type and answer
// - replying to her answer from the context menu
var Basic = &script.Scenario{
	Name:        "basic",
	Description: "Search, send, watch the reply arrive, reply from the menu",
	Width:       120,
	Height:      36,
	Steps: []script.Step{
		script.Annotate("Your travel conversations"),
		script.Wait(1500 * time.Millisecond),

		script.Annotate("Search for a friend"),
		script.Key("/"),
		script.Type("emma"),
		script.Wait(800 * time.Millisecond),
		script.KeyWithDesc(keys.Enter, "Open the conversation"),
		script.Wait(1 * time.Second),

		script.Annotate("Messages appear instantly"),
		script.Type("Landing in Lisbon at 9am, coffee at Time Out Market?"),
		script.Key(keys.Enter),
		script.Wait(600 * time.Millisecond),

		script.Annotate("Emma is typing…"),
		script.Capture(),
		script.Wait(1 * time.Second),

		script.Annotate("Pick her answer and open the menu"),
		script.Key(keys.CtrlUp),
		script.Key(keys.CtrlO),
		script.Wait(1200 * time.Millisecond),
		script.KeyWithDesc(keys.Enter, "Reply"),
		script.Type("Perfect, I'll bring the pastéis de nata"),
		script.Key(keys.Enter),
		script.Wait(2 * time.Second),

		// Final pause
		script.Wait(2 * time.Second),
	},
}

// Groups shows background activity: a busy group chat updates the list
// while another conversation is open.
var Groups = &script.Scenario{
	Name:        "groups",
	Description: "Incoming group messages while chatting elsewhere",
	Width:       120,
	Height:      36,
	Setup:       &script.Setup{Conversation: "c-sofia"},
	Steps: []script.Step{
		script.Annotate("An empty conversation with Sofia"),
		script.Wait(1 * time.Second),
		script.Type("Ciao! Rome in October?"),
		script.Key(keys.Enter),

		script.Annotate("Meanwhile the Kyoto group keeps planning"),
		script.Incoming("c-kyoto", demo.KenjiSato.ID, "Rail passes arrived 🚄"),
		script.Wait(400 * time.Millisecond),
		script.Incoming("c-kyoto", demo.AikoTanaka.ID, "Let's do Arashiyama on day two"),
		script.Wait(1500 * time.Millisecond),

		script.Annotate("Catch up with the group"),
		script.Open("c-kyoto"),
		script.Wait(2 * time.Second),
	},
}

// Mobile shows the single-pane layout below the breakpoint.
var Mobile = &script.Scenario{
	Name:        "mobile",
	Description: "Narrow terminal: list and thread take turns",
	Width:       64,
	Height:      30,
	Steps: []script.Step{
		script.Annotate("Below 96 columns only one pane fits"),
		script.Wait(1 * time.Second),
		script.Key(keys.Enter),
		script.Wait(1 * time.Second),
		script.Type("Still on for Patagonia?"),
		script.Key(keys.Enter),
		script.Wait(1600 * time.Millisecond),

		script.Annotate("Back to the list"),
		script.Key(keys.Escape),
		script.Wait(1 * time.Second),

		script.Annotate("Widen the terminal to see both panes"),
		script.Resize(120, 30),
		script.Wait(2 * time.Second),
	},
}

// All returns all built-in scenarios.
func All() []*script.Scenario {
	return []*script.Scenario{
		Basic,
		Groups,
		Mobile,
	}
}

// Get returns a scenario by name, or nil if not found.
func Get(name string) *script.Scenario {
	for _, s := range All() {
		if s.Name == name {
			return s
		}
	}
	return nil
}
