package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/chat"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/config"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
	"github.com/Jerry20030925/LumaTrip-sub001/internal/relay"
)

var (
	serveAddr     string
	serveOrigins  string
	simulatePeers bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the LumaTrip relay server",
	Long: `Runs an in-memory relay that the remote backend talks to.

The relay is seeded with the demo travel network around the configured user,
serves conversation history over REST and routes messages, acknowledgements
and typing indicators over a WebSocket at /ws.

Allowed browser origins come from --cors-origins, or the CORS_ORIGINS
environment variable, as a comma-separated list.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().StringVar(&serveOrigins, "cors-origins", "", "Comma-separated allowed CORS origins")
	serveCmd.Flags().BoolVar(&simulatePeers, "simulate-peers", true, "Have offline demo users answer messages")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.InitWriter(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	u := cfg.SelfUser()

	srv := relay.NewServer(relay.Options{
		Self:          chat.Participant{ID: u.ID, Name: u.Name, Avatar: u.Avatar},
		CORSOrigins:   corsOrigins(serveOrigins, os.Getenv("CORS_ORIGINS")),
		SimulatePeers: simulatePeers,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, serveAddr)
}

// corsOrigins prefers the flag over the environment. An empty result means
// the relay's defaults.
func corsOrigins(flagValue, envValue string) []string {
	raw := flagValue
	if raw == "" {
		raw = envValue
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
