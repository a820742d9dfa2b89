package engine

import (
	"fmt"
	"time"

	"github.com/ruckusbots/ruckus/internal/board"
	"github.com/ruckusbots/ruckus/internal/core"
	"github.com/ruckusbots/ruckus/internal/device"
	"github.com/ruckusbots/ruckus/internal/game"
	"github.com/ruckusbots/ruckus/internal/notify"
)

// Table holds the per-game settings chosen at setup.
type Table struct {
	Players      int
	ShowRegister bool
	EdgeControl  bool
	// Flags overrides the board's flags when not empty, in touch order.
	Flags []core.Coord
}

// SetupGame prepares a new game on b for the given number of players.
func (g *Game) SetupGame(b *board.Board, t Table) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	switch {
	case g.state.Started:
		return ErrGameStarted
	case g.state.Tuning:
		return ErrRobotUnavailable
	case b == nil:
		return ErrNoBoard
	case t.Players < 1:
		return fmt.Errorf("%w: need at least one player", ErrNotEnoughRobots)
	case t.Players*game.HandSize > len(g.state.Deck):
		return fmt.Errorf("%w: %d players need %d cards", game.ErrDeckExhausted, t.Players, t.Players*game.HandSize)
	}

	if len(t.Flags) > 0 {
		custom := *b
		custom.Flags = t.Flags
		b = &custom
	}
	g.board = b
	g.effects = board.NewEffects(b, floor{g: g})
	g.state.NumPlayers = t.Players
	g.state.Players = nil
	g.showRegister = t.ShowRegister
	g.edgeControl = t.EdgeControl
	g.ready = true

	g.logger.Info("game set up", "board", b.Name, "players", t.Players, "flags", len(b.Flags))
	g.refreshStatus()
	return nil
}

// AddPlayer seats a new player and returns its zero based number.
func (g *Game) AddPlayer() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	if !g.ready {
		return 0, ErrNoBoard
	}
	if len(g.state.Players) >= g.state.NumPlayers {
		return 0, ErrGameFull
	}
	p := game.NewPlayer(len(g.state.Players))
	g.state.Players = append(g.state.Players, p)
	g.refreshStatus()
	return p.Number, nil
}

// AssignRobot gives a pen robot to a player and tells the robot.
func (g *Game) AssignRobot(player int, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	p, err := g.player(player)
	if err != nil {
		return err
	}
	return g.assign(p, name)
}

func (g *Game) assign(p *game.Player, name string) error {
	if p.Robot != nil && p.Robot.Name == name {
		return nil
	}
	if p.Robot != nil || g.state.Tuning {
		return ErrRobotUnavailable
	}
	r := g.penRobot(name)
	if r == nil || !g.state.TakeFromPen(r) {
		return fmt.Errorf("%w: %q", ErrRobotUnavailable, name)
	}
	r.Player = p
	p.Robot = r
	g.sendAssignment(r, p.Number)
	g.logger.Info("robot assigned", "player", p.Number, "robot", r.Name, "slot", r.Number)
	g.refreshStatus()
	return nil
}

func (g *Game) penRobot(name string) *game.Robot {
	for _, r := range g.state.Pen {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// PenRobots returns the names of robots waiting in the pen.
func (g *Game) PenRobots() []string {
	g.setupMu.Lock()
	defer g.setupMu.Unlock()
	names := make([]string, len(g.state.Pen))
	for i, r := range g.state.Pen {
		names[i] = r.Name
	}
	return names
}

// PlaceRobot puts a player's robot on its starting cell.
func (g *Game) PlaceRobot(player int, at core.Coord, facing core.Orientation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	p, err := g.player(player)
	if err != nil {
		return err
	}
	if p.Robot == nil {
		return fmt.Errorf("%w: player %d has no robot", ErrRobotUnavailable, player)
	}
	if err := g.checkCell(p.Robot, at); err != nil {
		return err
	}
	p.Robot.Place(at, facing)
	g.refreshStatus()
	return nil
}

// SetCheckpoint moves a player's checkpoint without moving the robot.
func (g *Game) SetCheckpoint(player int, at core.Coord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	p, err := g.player(player)
	if err != nil {
		return err
	}
	if p.Robot == nil {
		return fmt.Errorf("%w: player %d has no robot", ErrRobotUnavailable, player)
	}
	if g.board == nil {
		return ErrNoBoard
	}
	if !g.board.InBounds(at) {
		return ErrInvalidPosition
	}
	p.Robot.LastLocation = at
	g.refreshStatus()
	return nil
}

// SetupPlayer assigns a robot and places it in one step.
func (g *Game) SetupPlayer(player int, name string, at core.Coord, facing core.Orientation) error {
	if err := g.AssignRobot(player, name); err != nil {
		return err
	}
	return g.PlaceRobot(player, at, facing)
}

func (g *Game) checkCell(r *game.Robot, at core.Coord) error {
	if g.board == nil {
		return ErrNoBoard
	}
	if !g.board.InBounds(at) {
		return ErrInvalidPosition
	}
	if other := g.state.RobotAt(at); other != nil && other != r {
		return ErrPositionTaken
	}
	return nil
}

// StartGame begins play once every seat has a robot.
func (g *Game) StartGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ready {
		return ErrNoBoard
	}
	if g.state.Started {
		return ErrGameStarted
	}
	if len(g.state.Players) < g.state.NumPlayers {
		return fmt.Errorf("%w: %d of %d players joined", ErrNotEnoughRobots, len(g.state.Players), g.state.NumPlayers)
	}
	for _, p := range g.state.Players {
		if p.Robot == nil {
			return fmt.Errorf("%w: player %d has no robot", ErrNotEnoughRobots, p.Number)
		}
	}

	g.state.Started = true
	g.notifier.DealPlayers(notify.AllPlayers)
	g.gameLog().LogGameStart(g.board.Name, g.state.Players)
	g.logger.Info("game started", "board", g.board.Name, "players", g.state.NumPlayers)
	g.refreshStatus()
	return nil
}

// DealPlayer returns the player's hand for this round, drawing it first
// if needed.
func (g *Game) DealPlayer(player int) ([]game.Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.player(player)
	if err != nil {
		return nil, err
	}
	if !g.state.Started {
		return nil, nil
	}
	return g.state.Deal(p)
}

// RedealPlayer returns a player's hand to the deck and asks the player
// to request a new one.
func (g *Game) RedealPlayer(player int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.player(player)
	if err != nil {
		return err
	}
	if !g.state.Started {
		return ErrGameNotStarted
	}
	g.state.ReturnHand(p)
	g.notifier.DealPlayers(player)
	return nil
}

// Entry puts a dead player's robot back on the floor.
type Entry struct {
	Player int
	At     core.Coord
	Facing core.Orientation
}

// EnterPlayers returns dead robots to the floor and deals everyone in.
func (g *Game) EnterPlayers(entries []Entry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	for _, e := range entries {
		p, err := g.player(e.Player)
		if err != nil {
			return err
		}
		if p.Robot == nil {
			return fmt.Errorf("%w: player %d has no robot", ErrRobotUnavailable, e.Player)
		}
		if err := g.checkCell(p.Robot, e.At); err != nil {
			return err
		}
		g.enterPlayer(p, e.At, e.Facing)
	}
	g.notifier.DealPlayers(notify.AllPlayers)
	g.state.PlayersNeedEntering = false
	g.refreshStatus()
	return nil
}

func (g *Game) enterPlayer(p *game.Player, at core.Coord, facing core.Orientation) {
	r := p.Robot
	r.Pos = at
	r.Facing = facing
	g.setDamage(r, 0)
	g.gameLog().LogPlayerEntering(p)
	p.Dead = false
	g.logger.Info("robot re-entered", "player", p.Number, "robot", r.Name, "at", at)
}

// PlayerUpdate is a game master correction to a player.
type PlayerUpdate struct {
	Lives  int
	Damage int
	At     core.Coord
	Facing core.Orientation
	Flags  int
	// Robot swaps the player onto another pen robot when set.
	Robot string
}

// UpdatePlayer applies a game master correction.
func (g *Game) UpdatePlayer(player int, u PlayerUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.setupMu.Lock()
	p, err := g.player(player)
	if err == nil && p.Robot == nil {
		err = fmt.Errorf("%w: player %d has no robot", ErrRobotUnavailable, player)
	}
	if err != nil {
		g.setupMu.Unlock()
		return err
	}

	if u.At != p.Robot.Pos {
		if err := g.checkCell(p.Robot, u.At); err != nil {
			g.setupMu.Unlock()
			return err
		}
	}

	if u.Robot != "" && u.Robot != p.Robot.Name {
		if err := g.swapRobot(p, u.Robot); err != nil {
			g.setupMu.Unlock()
			return err
		}
	}
	p.Lives = max(0, u.Lives)

	r := p.Robot
	r.Pos = u.At
	r.Facing = u.Facing
	g.setDamage(r, u.Damage)
	if p.Dead {
		r.Pos = core.OffBoard
	}
	r.Flags = max(0, u.Flags)
	g.gameLog().LogPlayerUpdate(p)
	g.setupMu.Unlock()

	g.logger.Info("player updated", "player", p.Number, "robot", r.Name, "lives", p.Lives, "damage", r.Damage)
	g.updateHealth()
	return nil
}

func (g *Game) swapRobot(p *game.Player, name string) error {
	in := g.penRobot(name)
	if in == nil {
		return fmt.Errorf("%w: %q", ErrRobotUnavailable, name)
	}
	out := p.Robot
	checkpoint := out.LastLocation
	if !g.state.SwapRobot(out, in) {
		return fmt.Errorf("%w: %q", ErrRobotUnavailable, name)
	}
	if _, err := g.link.Reset(g.ctx, out); err != nil {
		g.logger.Debug("cannot reset robot", "robot", out.Name, "error", err)
	}
	in.LastLocation = checkpoint
	g.sendAssignment(in, p.Number)
	g.logger.Info("robot swapped", "player", p.Number, "out", out.Name, "in", in.Name)
	return nil
}

// sendAssignment tells a robot its player, retrying within the assign
// window.
func (g *Game) sendAssignment(r *game.Robot, player int) {
	deadline := time.Now().Add(g.pacing.AssignWindow)
	for {
		reply, err := g.link.AssignPlayer(g.ctx, r, player)
		if err == nil && reply == device.OK {
			return
		}
		if time.Now().After(deadline) {
			g.logger.Warn("robot did not accept player assignment", "robot", r.Name, "player", player, "error", err)
			return
		}
		g.pause(g.setupRetryDelay)
	}
}

// ResetGame returns the table to its state before the game started. With
// all set the robots are reset and returned to the pen and the players
// leave. Resetting twice is the same as resetting once.
func (g *Game) ResetGame(all bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	if g.state.Winner == nil && g.state.Started {
		g.gameLog().LogGameEnd(g.state.Players, "")
	}

	for _, r := range g.state.Robots {
		r.Neutral()
		if all {
			if _, err := g.link.Reset(g.ctx, r); err != nil {
				g.logger.Debug("cannot reset robot", "robot", r.Name, "error", err)
			}
		}
	}
	if all {
		g.state.ReturnAllToPen()
	}

	g.state.Winner = nil
	g.state.Unlock()
	g.state.PlayersNeedEntering = false
	g.state.Started = false
	g.state.ClearRound()
	g.timerStarted = false

	if all {
		g.state.Players = nil
		g.state.NumPlayers = 0
		g.ready = false
	} else {
		for _, p := range g.state.Players {
			p.Dead = false
			p.Locked = nil
			p.Program = nil
			p.Cards = nil
			p.Lives = game.StartingLives
			p.Shutdown = false
			p.WillShutdown = false
		}
	}

	g.notifier.Reset(all)
	g.logger.Info("game reset", "all", all)
	g.refreshStatus()
}

// SetTimer turns the last-player countdown on or off.
func (g *Game) SetTimer(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.playerTimer = enabled
}

// RegisterRobot handles a robot announcing itself. A new robot goes to the
// pen; a known one gets its address refreshed and, if it already drives a
// player, its assignment sent again.
func (g *Game) RegisterRobot(name, addr string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupMu.Lock()
	defer g.setupMu.Unlock()

	r := g.state.RobotByName(name)
	if r == nil {
		r = game.NewRobot(-1, name, addr)
		g.state.Pen = append(g.state.Pen, r)
		g.logger.Info("robot registered", "robot", name, "addr", addr)
		g.refreshStatus()
		return
	}

	r.Addr = addr
	g.logger.Info("robot re-registered", "robot", name, "addr", addr)
	if r.Player == nil || g.state.Tuning {
		return
	}
	robot := game.NewRobot(r.Number, r.Name, r.Addr)
	player := r.Player.Number
	go g.resendAssignment(robot, player)
}

// resendAssignment waits for a rebooted robot's server to come up and
// then sends its assignment. It works on a stand-in robot with the same
// name and address so replies never touch the live robot. It takes no
// game lock.
func (g *Game) resendAssignment(r *game.Robot, player int) {
	g.pause(g.pacing.AssignSettle)
	g.sendAssignment(r, player)
}

// RobotDone signals that the robot in slot number finished its move. It
// only takes the roster lock so it never waits for a running round.
func (g *Game) RobotDone(number int) error {
	g.setupMu.Lock()
	r := g.state.InPlay(number)
	g.setupMu.Unlock()
	if r == nil {
		return ErrUnknownRobot
	}
	r.Moving.Fire()
	return nil
}
