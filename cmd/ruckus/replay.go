package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruckusbots/ruckus/internal/replay"
	"github.com/ruckusbots/ruckus/internal/storage"
)

var (
	flagStep time.Duration
	flagWait time.Duration
)

var replayCmd = &cobra.Command{
	Use:   "replay <id>",
	Short: "Play a logged game again",
	Long: `Replays a logged game on a fresh table. The server is started as with
'ruckus serve' so robots can register and spectators can watch; after
--wait the logged programs are played round by round.

A logged robot that is not in the pen is replaced by another one. Press
Ctrl+C to stop the replay after the current step.

Examples:
  ruckus replay 4b6f0c1e-...
  ruckus replay 4b6f0c1e-... --botless --step 1s`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().DurationVar(&flagStep, "step", 250*time.Millisecond, "Pause between logged events")
	replayCmd.Flags().DurationVar(&flagWait, "wait", 5*time.Second, "Time robots get to register before the replay starts")
	replayCmd.Flags().BoolVar(&flagBotless, "botless", false, "Replay without robots")
	replayCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides server.address)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	gameID := args[0]

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
	logger, err := newLogger(cfg.Log.Level, "ruckus-replay")
	if err != nil {
		return err
	}

	t, err := openTable(cfg, logger)
	if err != nil {
		return err
	}
	defer t.Close()

	events, err := t.store.Events(gameID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return storage.ErrGameNotFound
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveCtx, stopServing := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- t.server.ListenAndServe(serveCtx, cfg.Server.Address)
	}()
	defer func() {
		stopServing()
		if err := <-served; err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	if cfg.Robots.Botless {
		names := make([]string, len(events[0].Players))
		for i, p := range events[0].Players {
			names[i] = p.Robot
		}
		t.simulate(names...)
	} else {
		logger.Info("waiting for robots", "for", flagWait)
		select {
		case <-time.After(flagWait):
		case <-ctx.Done():
			return nil
		}
	}

	runner := replay.New(t.store, t.boards, t.game, logger.WithPrefix("replay"))
	runner.Step = flagStep
	runner.OnEvent = func(evt storage.EventRecord) {
		logger.Info("replaying", "seq", evt.Seq, "event", evt.Kind)
	}

	go func() {
		<-ctx.Done()
		runner.Abort()
	}()

	err = runner.Run(ctx, gameID)
	if errors.Is(err, replay.ErrAborted) {
		logger.Warn("replay stopped")
		return nil
	}
	return err
}
