package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	pkgerrors "github.com/Jerry20030925/LumaTrip-sub001/internal/errors"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
)

// Backend selects which transport the client talks to.
const (
	BackendMock   = "mock"
	BackendRemote = "remote"
)

const (
	DefaultServerURL        = "http://localhost:8080"
	DefaultSendTimeout      = 5 * time.Second
	DefaultSendRetries      = 1
	DefaultBreakpointColumn = 96 // 768 logical px at 8px per column
	minBreakpointColumn     = 20
)

// User identifies the person running the client.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Config holds the client configuration persisted in ~/.lumatrip/config.json.
// Environment variables (optionally from a .env file) override the file.
type Config struct {
	User                 User   `json:"user"`
	Backend              string `json:"backend"`
	ServerURL            string `json:"server_url,omitempty"`
	SendTimeoutMS        int    `json:"send_timeout_ms,omitempty"`
	SendRetries          *int   `json:"send_retries,omitempty"`
	BreakpointColumns    int    `json:"breakpoint_columns,omitempty"`
	LongPressMS          int    `json:"long_press_ms,omitempty"`
	NotificationsEnabled bool   `json:"notifications_enabled,omitempty"`
	LastConversationID   string `json:"last_conversation_id,omitempty"`

	mu       sync.RWMutex
	filePath string
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".lumatrip"), nil
}

// Default returns a config for the built-in demo account on the mock backend.
func Default() *Config {
	c := &Config{}
	c.ensureInitialized()
	return c
}

// Load reads ~/.lumatrip/config.json, applies .env and LUMATRIP_* overrides,
// and validates the result. A missing file yields the defaults.
func Load() (*Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, pkgerrors.ConfigLoadFailed("~/.lumatrip", err)
	}
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded: %v", err)
	}
	return LoadFrom(filepath.Join(dir, "config.json"))
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{filePath: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, pkgerrors.ConfigLoadFailed(path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, pkgerrors.ConfigLoadFailed(path, err)
		}
	}

	cfg.applyEnv()
	cfg.ensureInitialized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv must run before ensureInitialized so env values win over defaults.
func (c *Config) applyEnv() {
	if v := os.Getenv("LUMATRIP_USER_ID"); v != "" {
		c.User.ID = v
	}
	if v := os.Getenv("LUMATRIP_USER_NAME"); v != "" {
		c.User.Name = v
	}
	if v := os.Getenv("LUMATRIP_BACKEND"); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("LUMATRIP_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("LUMATRIP_SEND_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.SendTimeoutMS = ms
		} else {
			logger.Warn("Ignoring LUMATRIP_SEND_TIMEOUT_MS=%q: %v", v, err)
		}
	}
	if v := os.Getenv("LUMATRIP_NOTIFICATIONS"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.NotificationsEnabled = on
		}
	}
}

// ensureInitialized fills zero values with defaults. Not safe for
// concurrent use; it only runs while the Config is being constructed.
func (c *Config) ensureInitialized() {
	if c.User.ID == "" {
		c.User.ID = "current-user"
	}
	if c.User.Name == "" {
		c.User.Name = "Me"
	}
	if c.Backend == "" {
		c.Backend = BackendMock
	}
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.SendTimeoutMS == 0 {
		c.SendTimeoutMS = int(DefaultSendTimeout / time.Millisecond)
	}
	if c.BreakpointColumns == 0 {
		c.BreakpointColumns = DefaultBreakpointColumn
	}
}

// Validate checks that the config is internally consistent.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if strings.TrimSpace(c.User.ID) == "" {
		return pkgerrors.ConfigInvalid("user id is empty")
	}
	switch c.Backend {
	case BackendMock, BackendRemote:
	default:
		return pkgerrors.ConfigInvalid(fmt.Sprintf("unknown backend %q (want %q or %q)", c.Backend, BackendMock, BackendRemote))
	}
	if c.Backend == BackendRemote {
		u, err := url.Parse(c.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return pkgerrors.ConfigInvalid(fmt.Sprintf("server url %q must be an absolute http(s) url", c.ServerURL))
		}
	}
	if c.SendTimeoutMS < 0 {
		return pkgerrors.ConfigInvalid("send timeout must be positive")
	}
	if c.SendRetries != nil && *c.SendRetries < 0 {
		return pkgerrors.ConfigInvalid("send retries cannot be negative")
	}
	if c.LongPressMS < 0 {
		return pkgerrors.ConfigInvalid("long press delay cannot be negative")
	}
	if c.BreakpointColumns < minBreakpointColumn {
		return pkgerrors.ConfigInvalid(fmt.Sprintf("breakpoint must be at least %d columns", minBreakpointColumn))
	}
	return nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path := c.filePath
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return pkgerrors.ConfigSaveFailed("~/.lumatrip", err)
		}
		path = filepath.Join(dir, "config.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return pkgerrors.ConfigSaveFailed(path, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return pkgerrors.ConfigSaveFailed(path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return pkgerrors.ConfigSaveFailed(path, err)
	}
	return nil
}

// SelfUser returns the configured current user.
func (c *Config) SelfUser() User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.User
}

func (c *Config) GetBackend() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Backend
}

// SetBackend overrides the backend, e.g. from a command line flag.
func (c *Config) SetBackend(backend string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Backend = strings.ToLower(backend)
}

func (c *Config) GetServerURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ServerURL
}

func (c *Config) SetServerURL(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ServerURL = u
}

// SendTimeout is the per-attempt deadline for a send acknowledgement.
func (c *Config) SendTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.SendTimeoutMS) * time.Millisecond
}

// Retries is how many times the remote backend re-attempts a failed send.
func (c *Config) Retries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.SendRetries == nil {
		return DefaultSendRetries
	}
	return *c.SendRetries
}

// LongPressDelay overrides the gesture hold time. Zero keeps the default.
func (c *Config) LongPressDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.LongPressMS) * time.Millisecond
}

// Breakpoint is the terminal width, in columns, below which the shell
// shows a single pane.
func (c *Config) Breakpoint() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.BreakpointColumns
}

func (c *Config) GetNotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.NotificationsEnabled
}

func (c *Config) SetNotificationsEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NotificationsEnabled = enabled
}

// LastConversation is the conversation that was open when the client last exited.
func (c *Config) LastConversation() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LastConversationID
}

func (c *Config) SetLastConversation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastConversationID = id
}
