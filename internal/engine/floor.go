package engine

import (
	"github.com/ruckusbots/ruckus/internal/board"
	"github.com/ruckusbots/ruckus/internal/core"
	"github.com/ruckusbots/ruckus/internal/game"
)

// floor lets the board effects move and hurt robots through the same
// resolver and dispatcher as card moves. Callers hold the game lock.
type floor struct {
	g *Game
}

var _ board.Mover = floor{}

// Present returns the robots of living players that stand on the board.
func (f floor) Present() []*game.Robot {
	var present []*game.Robot
	for _, r := range f.g.state.Robots {
		if r.Player != nil && !r.Player.Dead && r.OnBoard() {
			present = append(present, r)
		}
	}
	return present
}

func (f floor) Convey(r *game.Robot, dir core.Orientation) int {
	rv := f.g.resolver()
	moved := rv.Resolve(r, dir, 1, true)
	f.g.carryOut(rv)
	return moved
}

func (f floor) Turn(r *game.Robot, clockwise bool) {
	o := game.Order{Robot: r, Move: core.Left, Magnitude: 1}
	if clockwise {
		r.Facing = r.Facing.Right()
		o.Move = core.Right
	} else {
		r.Facing = r.Facing.Left()
	}
	f.g.processOrder(o)
}

func (f floor) Hurt(r *game.Robot, amount int) {
	f.g.hurt(r, amount)
}

func (g *Game) resolver() *Resolver {
	return NewResolver(g.board, g.state.Robots, g.state.Rand())
}

// carryOut dispatches a resolver's orders and then destroys every robot
// that ended in a pit or off the board.
func (g *Game) carryOut(rv *Resolver) {
	for _, o := range rv.Orders() {
		g.processOrder(o)
	}
	for _, r := range rv.Doomed() {
		g.setDamage(r, game.MaxDamage)
	}
}

// hurt adds damage and tells the robot how much it just took.
func (g *Game) hurt(r *game.Robot, amount int) {
	g.setDamage(r, r.Damage+amount)
	if _, err := g.link.TakeDamage(g.ctx, r, amount); err != nil {
		g.logger.Debug("cannot send damage", "robot", r.Name, "error", err)
	}
}

// setDamage writes damage and acts on the resulting events.
func (g *Game) setDamage(r *game.Robot, value int) {
	g.handle(g.state.SetDamage(r, value))
}

func (g *Game) handle(events []game.Event) {
	for _, evt := range events {
		switch e := evt.(type) {
		case game.LocksChanged:
			g.logger.Debug("locked cards changed", "player", e.Player.Number, "locked", e.Locked)
		case game.RobotDestroyed:
			g.kill(e.Player)
		}
	}
}

func (g *Game) kill(p *game.Player) {
	if !g.state.Kill(p) {
		return
	}
	g.logger.Info("robot destroyed", "player", p.Number, "robot", p.Robot.Name, "lives", p.Lives)
	g.gameLog().LogBotDeath(p)
}

// updateHealth broadcasts every player's damage.
func (g *Game) updateHealth() {
	damage := make([]int, len(g.state.Players))
	for i, p := range g.state.Players {
		if p.Robot != nil {
			damage[i] = p.Robot.Damage
		}
	}
	g.notifier.UpdateHealth(damage)
	g.refreshStatus()
}
