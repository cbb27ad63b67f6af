package chat

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the conversations matching query, keeping their order.
// A conversation matches when the query is a case-insensitive substring of
// any other participant's name, the group name, or the last message's
// content or list preview. An empty or blank query matches everything.
func Filter(convs []Conversation, query, selfID string) []Conversation {
	// A Caser carries state, so each call gets its own.
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return convs
	}

	var out []Conversation
	for _, c := range convs {
		if matches(fold, c, q, selfID) {
			out = append(out, c)
		}
	}
	return out
}

func matches(fold cases.Caser, c Conversation, q, selfID string) bool {
	contains := func(s string) bool {
		return s != "" && strings.Contains(fold.String(s), q)
	}
	for _, p := range c.Participants {
		if p.ID != selfID && contains(p.Name) {
			return true
		}
	}
	if contains(c.GroupName) {
		return true
	}
	if c.LastMessage == nil {
		return false
	}
	return contains(c.LastMessage.Content) || contains(c.LastMessage.Preview())
}
