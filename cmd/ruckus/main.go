// ruckus runs the game server for a table of physical robots.
//
// Usage:
//
//	ruckus serve             - Serve a table over HTTP
//	ruckus boards            - List the boards found in the boards directory
//	ruckus games [id]        - List logged games, or the events of one game
//	ruckus replay <id>       - Play a logged game again
//
// Global flags:
//
//	--config <path>     - Config file (default: search ~/.ruckus and ./configs)
//	--db <path>         - Game log database (overrides game.db_path)
//	--log-level <level> - debug, info, warn or error (overrides log.level)
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ruckusbots/ruckus/internal/config"
	"github.com/ruckusbots/ruckus/internal/device"
	"github.com/ruckusbots/ruckus/internal/engine"
)

var (
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ruckus",
	Short: "Ruckus - run a board game played by real robots",
	Long: `Ruckus runs the rounds of a programming board game whose pieces are
small robots driving around a physical board. Players pick cards, the
server works out every move and tells the robots where to go.

Available commands:
  serve    - Serve a table over HTTP
  boards   - List available boards
  games    - Show the game log
  replay   - Play a logged game again

Examples:
  ruckus serve --botless
  ruckus boards
  ruckus games
  ruckus replay 4b6f0c1e-...`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to game log database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(boardsCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(replayCmd)
}

// loadConfig reads the config and applies the global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.Game.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

func newLogger(level, prefix string) (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

func pacingFrom(p config.PacingConfig) engine.Pacing {
	return engine.Pacing{
		Phase:        p.Phase,
		LaserFire:    p.LaserFire,
		LaserHit:     p.LaserHit,
		Wrench:       p.Wrench,
		Flag:         p.Flag,
		Register:     p.Register,
		Winner:       p.Winner,
		OffBoard:     p.OffBoard,
		BotlessMove:  p.BotlessMove,
		RoundEnd:     p.RoundEnd,
		AllShutdown:  p.AllShutdown,
		SetupSettle:  p.SetupSettle,
		AssignSettle: p.AssignSettle,
		AssignWindow: p.AssignWindow,
	}
}

func timingFrom(d config.DispatchConfig) device.Timing {
	return device.Timing{
		AckTimeout:        d.AckTimeout,
		CompletionTimeout: d.CompletionTimeout,
		Settle:            d.Settle,
		PollInterval:      d.PollInterval,
	}
}

func tableFrom(g config.GameConfig) engine.Table {
	return engine.Table{
		Players:      g.Players,
		ShowRegister: g.ShowRegister,
		EdgeControl:  g.EdgeControl,
	}
}
