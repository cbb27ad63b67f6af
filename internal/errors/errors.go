// Package errors provides the structured error type used across LumaTrip.
// An Error records the operation that failed and a Kind the UI can switch
// on (a timeout and a rejected send are shown differently).
package errors

import (
	"errors"
	"fmt"
)

// Op describes an operation, usually as "package.Function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalid
	KindIO
	KindNetwork
	KindConfig
	KindTimeout
	KindClipboard
	KindProtocol
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	case KindIO:
		return "I/O error"
	case KindNetwork:
		return "network error"
	case KindConfig:
		return "configuration error"
	case KindTimeout:
		return "timeout"
	case KindClipboard:
		return "clipboard error"
	case KindProtocol:
		return "protocol error"
	case KindConflict:
		return "conflict"
	default:
		return "unknown error"
	}
}

// Error is the structured error type.
type Error struct {
	Op      Op
	Kind    Kind
	Err     error
	Context string
}

func (e *Error) Error() string {
	switch {
	case e.Context != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an Error from any mix of Op, Kind, string (context) and error.
// With no error argument the context string becomes the error text.
func E(args ...any) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether any Error in err's chain has the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind returns the Kind of the outermost Error in err's chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Retryable reports whether a failed send is worth another attempt.
func Retryable(err error) bool {
	switch GetKind(err) {
	case KindNetwork, KindTimeout:
		return true
	}
	return false
}

func ConversationNotFound(id string) error {
	return E(Op("chat.Select"), KindNotFound, fmt.Sprintf("conversation %s not found", id))
}

func MessageNotFound(conversationID, messageID string) error {
	return E(Op("chat.Find"), KindNotFound, fmt.Sprintf("message %s not found in conversation %s", messageID, conversationID))
}

func EmptyMessage() error {
	return E(Op("chat.AppendOutgoing"), KindInvalid, "message content is empty")
}

func StatusRegression(from, to string) error {
	return E(Op("chat.UpdateStatus"), KindConflict, fmt.Sprintf("status cannot move from %s to %s", from, to))
}

func RecallExpired(messageID string) error {
	return E(Op("chat.Recall"), KindInvalid, fmt.Sprintf("message %s can no longer be recalled", messageID))
}

// Transport errors
func SendFailed(conversationID string, err error) error {
	return E(Op("transport.Send"), KindNetwork, fmt.Sprintf("failed to send to conversation %s", conversationID), err)
}

func SendTimeout(correlationID string) error {
	return E(Op("transport.Send"), KindTimeout, fmt.Sprintf("no acknowledgement for %s", correlationID))
}

func LoadFailed(what string, err error) error {
	return E(Op("transport.Load"), KindNetwork, fmt.Sprintf("failed to load %s", what), err)
}

func ProtocolViolation(reason string) error {
	return E(Op("transport.Decode"), KindProtocol, reason)
}

func ClipboardWriteFailed(err error) error {
	return E(Op("clipboard.WriteText"), KindClipboard, err)
}

// Config errors
func ConfigLoadFailed(path string, err error) error {
	return E(Op("config.Load"), KindConfig, fmt.Sprintf("failed to load config from %s", path), err)
}

func ConfigSaveFailed(path string, err error) error {
	return E(Op("config.Save"), KindConfig, fmt.Sprintf("failed to save config to %s", path), err)
}

func ConfigInvalid(reason string) error {
	return E(Op("config.Validate"), KindInvalid, reason)
}
