package engine

import (
	"context"
	"fmt"

	"github.com/ruckusbots/ruckus/internal/device"
	"github.com/ruckusbots/ruckus/internal/game"
)

// TuningRobot identifies a robot on the tuning bench.
type TuningRobot struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// EnterTuning takes every known robot onto the tuning bench, numbered in
// order. Calling it again while tuning lists the bench.
func (g *Game) EnterTuning() ([]TuningRobot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	if g.botless {
		return nil, ErrBotless
	}
	if g.state.Started {
		return nil, ErrGameStarted
	}

	if !g.state.Tuning {
		g.state.ReturnAllToPen()
		for _, r := range append([]*game.Robot(nil), g.state.Pen...) {
			g.state.TakeFromPen(r)
		}
		g.state.Tuning = true
		g.logger.Info("tuning started", "robots", len(g.state.Robots))
		g.refreshStatus()
	}

	bench := make([]TuningRobot, len(g.state.Robots))
	for i, r := range g.state.Robots {
		bench[i] = TuningRobot{Number: r.Number, Name: r.Name}
	}
	return bench, nil
}

// benchRobot returns the tuning robot in slot number. Called with both
// locks held.
func (g *Game) benchRobot(number int) (*game.Robot, error) {
	if !g.state.Tuning {
		return nil, ErrNotTuning
	}
	r := g.state.InPlay(number)
	if r == nil {
		return nil, ErrUnknownRobot
	}
	return r, nil
}

// EnterSetup puts a robot into its setup mode.
func (g *Game) EnterSetup(number int) error {
	return g.ConfigureRobot(number, device.SetupEnter, "", "")
}

// ConfigureRobot sends a setup instruction, retrying on failure. Saving
// renames the robot to name when given.
func (g *Game) ConfigureRobot(number int, opt device.SetupOption, value, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	r, err := g.benchRobot(number)
	if err != nil {
		return err
	}

	_, err = device.Retry(g.ctx, g.setupAttempts, g.setupRetryDelay, func(ctx context.Context) (device.Reply, error) {
		return g.link.SetupInstruction(ctx, r, opt, value)
	})
	if err != nil {
		g.logger.Warn("setup instruction failed", "robot", r.Name, "option", opt, "error", err)
		return fmt.Errorf("robot %s: %s: %w", r.Name, opt, err)
	}

	switch opt {
	case device.SetupEnter, device.SetupSpeedTest:
		g.pause(g.pacing.SetupSettle)
	case device.SetupSave:
		if name != "" && name != r.Name {
			g.logger.Info("robot renamed", "from", r.Name, "to", name)
			r.Name = name
		}
	}
	g.logger.Debug("setup instruction sent", "robot", r.Name, "option", opt)
	g.refreshStatus()
	return nil
}

// RobotSettings fetches a tuning robot's settings.
func (g *Game) RobotSettings(number int) (map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	r, err := g.benchRobot(number)
	if err != nil {
		return nil, err
	}
	reply, err := g.link.Settings(g.ctx, r)
	if err != nil {
		return nil, fmt.Errorf("robot %s: %w", r.Name, err)
	}
	settings, err := device.ParseSettings(reply)
	g.pause(g.pacing.SetupSettle)
	if err != nil {
		return nil, fmt.Errorf("robot %s: %w", r.Name, err)
	}
	return settings, nil
}

// FinishTuning returns every robot to the pen.
func (g *Game) FinishTuning() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	if !g.state.Tuning {
		return
	}
	g.state.ReturnAllToPen()
	g.state.Tuning = false
	g.logger.Info("tuning finished", "robots", len(g.state.Pen))
	g.refreshStatus()
}
