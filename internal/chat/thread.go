package chat

// Thread is the ordered message history of one conversation. It is
// mutated only through the owning Inbox.
type Thread struct {
	msgs []Message
}

// Messages returns a copy of the thread in chronological order.
func (t *Thread) Messages() []Message {
	return append([]Message(nil), t.msgs...)
}

func (t *Thread) Len() int { return len(t.msgs) }

// Last returns the newest message.
func (t *Thread) Last() (Message, bool) {
	if len(t.msgs) == 0 {
		return Message{}, false
	}
	return t.msgs[len(t.msgs)-1], true
}

// Find returns the message with the given id.
func (t *Thread) Find(id string) (Message, bool) {
	if idx := t.indexOf(id); idx >= 0 {
		return t.msgs[idx], true
	}
	return Message{}, false
}

func (t *Thread) indexOf(id string) int {
	for idx := len(t.msgs) - 1; idx >= 0; idx-- {
		if t.msgs[idx].ID == id {
			return idx
		}
	}
	return -1
}

func (t *Thread) indexOfCorrelation(correlationID string) int {
	if correlationID == "" {
		return -1
	}
	for idx := len(t.msgs) - 1; idx >= 0; idx-- {
		if t.msgs[idx].CorrelationID == correlationID {
			return idx
		}
	}
	return -1
}
