package main

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ruckusbots/ruckus/internal/board"
	"github.com/ruckusbots/ruckus/internal/config"
	"github.com/ruckusbots/ruckus/internal/device"
	"github.com/ruckusbots/ruckus/internal/engine"
	"github.com/ruckusbots/ruckus/internal/notify"
	"github.com/ruckusbots/ruckus/internal/server"
	"github.com/ruckusbots/ruckus/internal/storage"
)

// table is everything one served game needs, wired from the config.
type table struct {
	cfg    config.Config
	logger *log.Logger
	store  *storage.Store
	hub    *notify.Hub
	game   *engine.Game
	boards *board.Loader
	server *server.Server
}

func openTable(cfg config.Config, logger *log.Logger) (*table, error) {
	store, err := storage.Open(cfg.Game.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening game log: %w", err)
	}

	hub := notify.NewHub(cfg.Server.EventBuffer, logger.WithPrefix("events"))

	var link device.Link
	if !cfg.Robots.Botless {
		link = device.NewHTTPLink(cfg.Robots.Timeout, logger.WithPrefix("robots"))
	}

	g := engine.New(engine.Options{
		Link:            link,
		Timing:          timingFrom(cfg.Dispatch),
		Notifier:        notify.New(hub),
		Log:             storage.NewJournal(store, logger.WithPrefix("journal")),
		Logger:          logger.WithPrefix("game"),
		Pacing:          pacingFrom(cfg.Pacing),
		Seed:            cfg.Game.Seed,
		Botless:         cfg.Robots.Botless,
		ShowRegister:    cfg.Game.ShowRegister,
		EdgeControl:     cfg.Game.EdgeControl,
		PlayerTimer:     cfg.Game.PlayerTimer,
		SetupAttempts:   cfg.Dispatch.SetupAttempts,
		SetupRetryDelay: cfg.Dispatch.SetupRetryDelay,
	})

	boards := board.NewLoader(cfg.Game.BoardsDir)
	srv := server.New(g, boards, hub, logger.WithPrefix("http"))
	srv.Defaults = tableFrom(cfg.Game)

	return &table{
		cfg:    cfg,
		logger: logger,
		store:  store,
		hub:    hub,
		game:   g,
		boards: boards,
		server: srv,
	}, nil
}

// simulate puts a simulated robot in the pen for each name. Only used
// without real robots.
func (t *table) simulate(names ...string) {
	for i, name := range names {
		t.game.RegisterRobot(name, fmt.Sprintf("127.0.0.%d", i+1))
	}
}

func (t *table) Close() error {
	return t.store.Close()
}
