// Package clipboard writes message text to the system clipboard.
//
// The terminal clipboard (OSC 52) is driven by Bubble Tea; this package
// covers terminals that ignore OSC 52 by also writing through the native
// clipboard. A failure here is reported to the user as a flash message.
package clipboard

import (
	"sync"

	"golang.design/x/clipboard"

	pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
)

var (
	mu          sync.Mutex
	initialized bool

	// swapped in tests; the native clipboard needs a display server
	initFn  = clipboard.Init
	writeFn = func(b []byte) { clipboard.Write(clipboard.FmtText, b) }
)

// Init initializes the native clipboard. It is safe to call repeatedly.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	return initLocked()
}

func initLocked() error {
	if initialized {
		return nil
	}
	if err := initFn(); err != nil {
		logger.Warn("Clipboard: failed to initialize: %v", err)
		return pkgerrors.ClipboardWriteFailed(err)
	}
	initialized = true
	logger.Debug("Clipboard: initialized")
	return nil
}

// WriteText places text on the clipboard.
func WriteText(text string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := initLocked(); err != nil {
		return err
	}
	writeFn([]byte(text))
	logger.Debug("Clipboard: wrote %d bytes of text", len(text))
	return nil
}
