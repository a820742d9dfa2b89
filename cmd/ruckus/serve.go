package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	flagAddr    string
	flagBotless bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a table over HTTP",
	Long: `Start the game server. Robots register and report finished moves over
HTTP, players and the game master use the /player and /admin endpoints
and spectators follow the game on the /ws websocket.

With --botless no robot is contacted: moves are only shown, and the
simulated robots named in the config are put in the pen.

Examples:
  ruckus serve                   # Listen on the configured address
  ruckus serve --addr :9000      # Listen on port 9000
  ruckus serve --botless         # Play without robots`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides server.address)")
	serveCmd.Flags().BoolVar(&flagBotless, "botless", false, "Play without robots")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Address = flagAddr
	}
	if flagBotless {
		cfg.Robots.Botless = true
	}

	logger, err := newLogger(cfg.Log.Level, "ruckus")
	if err != nil {
		return err
	}

	t, err := openTable(cfg, logger)
	if err != nil {
		return err
	}
	defer t.Close()

	if cfg.Robots.Botless {
		t.simulate(cfg.Robots.Simulated...)
		logger.Info("playing without robots", "simulated", len(cfg.Robots.Simulated))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return t.server.ListenAndServe(ctx, cfg.Server.Address)
}
