// Package logger is the process-wide structured logger. The TUI logs to a
// file (the terminal belongs to Bubble Tea); the relay server logs to stderr.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// DefaultLogPath is where the TUI writes its log when no path is given.
const DefaultLogPath = "/tmp/lumatrip-debug.log"

var (
	mu       sync.Mutex
	once     sync.Once
	base     *slog.Logger
	levelVar = new(slog.LevelVar)
	out      io.Closer
	initDone bool
)

// SetDebug switches between debug and info level.
func SetDebug(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// SetQuiet restricts output to warnings and errors.
func SetQuiet() {
	levelVar.Set(slog.LevelWarn)
}

// Init opens path for appending and routes all logging there. Calling Init
// after the logger is already set up is a no-op.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if initDone {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	install(f)
	out = f
	base.Info("Logger initialized", "path", path)
	return nil
}

// InitWriter routes logging to w. Used by the relay server with os.Stderr.
func InitWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if initDone {
		return
	}
	install(w)
}

// install must be called with mu held.
func install(w io.Writer) {
	base = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar}))
	initDone = true
}

func ensureInit() {
	if initDone {
		return
	}
	once.Do(func() {
		f, err := os.OpenFile(DefaultLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to open log file %s: %v\n", DefaultLogPath, err)
			return
		}
		install(f)
		out = f
	})
}

func logf(level slog.Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	ensureInit()
	if base == nil || !base.Enabled(context.Background(), level) {
		return
	}
	base.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Debug logs a printf-style message at debug level.
func Debug(format string, args ...any) { logf(slog.LevelDebug, format, args...) }

// Info logs a printf-style message at info level.
func Info(format string, args ...any) { logf(slog.LevelInfo, format, args...) }

// Warn logs a printf-style message at warn level.
func Warn(format string, args ...any) { logf(slog.LevelWarn, format, args...) }

// Error logs a printf-style message at error level.
func Error(format string, args ...any) { logf(slog.LevelError, format, args...) }

// Close flushes and closes the log file, if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if out != nil {
		out.Close()
		out = nil
	}
	base = nil
}

// Reset returns the package to its initial state. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	if out != nil {
		out.Close()
		out = nil
	}
	base = nil
	initDone = false
	once = sync.Once{}
	levelVar = new(slog.LevelVar)
}

// WithComponent returns a logger tagged with the component name.
//
//	log := logger.WithComponent("transport")
//	log.Info("connected", "url", u)
func WithComponent(component string) *slog.Logger {
	return with(slog.String("component", component))
}

// WithConversation returns a logger tagged with a conversation id.
func WithConversation(id string) *slog.Logger {
	return with(slog.String("conversationID", id))
}

func with(attr slog.Attr) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	ensureInit()
	if base == nil {
		return slog.Default().With(attr)
	}
	return base.With(attr)
}
