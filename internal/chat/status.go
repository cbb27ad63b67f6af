package chat

import pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"

// Status is the delivery state of a message. Normal progression is
// sending → sent → delivered → read and never moves backwards. A send
// that could not be completed is failed; a retry moves it back to sending.
// Only sending or sent messages can fail.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

func (s Status) rank() int {
	switch s {
	case StatusSending:
		return 0
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return -1
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusFailed || s.rank() >= 0
}

// CanAdvance reports whether a message in status s may move to next.
func (s Status) CanAdvance(next Status) bool {
	if !next.Valid() {
		return false
	}
	switch {
	case s == StatusFailed:
		// retry, or an acknowledgement that arrived after we gave up
		return next == StatusSending || next == StatusSent
	case next == StatusFailed:
		// an optimistic sent is still unconfirmed until Send returns
		return s == StatusSending || s == StatusSent
	}
	return next.rank() > s.rank()
}

// Advance returns next if the transition is allowed. Moving to the current
// status is a no-op.
func (s Status) Advance(next Status) (Status, error) {
	if s == next {
		return s, nil
	}
	if !s.CanAdvance(next) {
		return s, pkgerrors.StatusRegression(string(s), string(next))
	}
	return next, nil
}

// Max returns whichever of a and b is further along. Failed loses to
// every other status.
func Max(a, b Status) Status {
	if a.rank() >= b.rank() {
		return a
	}
	return b
}
