package cmd

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/app"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/clock"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/config"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/transport"
)

// dialTimeout bounds the first connection to a relay.
const dialTimeout = 5 * time.Second

var (
	debugMode             bool
	quietMode             bool
	backendFlag           string
	serverFlag            string
	logFile               string
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "lumatrip",
	Short: "Terminal chat client for the LumaTrip travel network",
	Long: `LumaTrip is a terminal chat client for the LumaTrip social travel network.
Browse your conversations, message fellow travellers, reply with a swipe and
long-press a message for more actions.

By default it runs against a built-in mock backend with simulated replies.
Use --backend remote with a relay started by 'lumatrip serve' to chat for real.`,
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", true, "Enable debug logging (on by default)")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Reduce logging to warnings and errors")
	rootCmd.Flags().StringVar(&backendFlag, "backend", "", "Backend to use: mock or remote (overrides config)")
	rootCmd.Flags().StringVar(&serverFlag, "server", "", "Relay URL for the remote backend (overrides config)")
	rootCmd.Flags().StringVar(&logFile, "log-file", logger.DefaultLogPath, "Where to write the debug log")
}

func initConfig() {
	if quietMode {
		logger.SetQuiet()
	} else {
		logger.SetDebug(debugMode)
	}
}

// Execute runs the root command
func Execute() error {
	// Set version dynamically
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("lumatrip %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("lumatrip %s\n", version)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if err := logger.Init(logFile); err != nil {
		return err
	}
	// Ensure logger is closed on exit
	defer logger.Close()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), dialTimeout)
	port, err := newPort(ctx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("error connecting to %s: %w", cfg.GetServerURL(), err)
	}

	// Create and run the app
	m := app.New(cfg, port, app.Options{Version: version})
	defer m.Close()
	p := tea.NewProgram(m)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

// applyFlags layers command-line overrides on top of the loaded config.
func applyFlags(cfg *config.Config) error {
	if backendFlag != "" {
		cfg.SetBackend(backendFlag)
	}
	if serverFlag != "" {
		cfg.SetServerURL(serverFlag)
	}
	return cfg.Validate()
}

// newPort builds the transport the config asks for.
func newPort(ctx context.Context, cfg *config.Config) (transport.Port, error) {
	u := cfg.SelfUser()
	self := chat.Participant{ID: u.ID, Name: u.Name, Avatar: u.Avatar}

	if cfg.GetBackend() != config.BackendRemote {
		logger.Info("Using mock backend as %s", self.ID)
		return transport.NewMockPort(self, clock.Real{}), nil
	}
	logger.Info("Dialing relay %s as %s", cfg.GetServerURL(), self.ID)
	return transport.DialRemote(ctx, transport.RemoteConfig{
		BaseURL:     cfg.GetServerURL(),
		Self:        self,
		SendTimeout: cfg.SendTimeout(),
		Retries:     cfg.Retries(),
	})
}
