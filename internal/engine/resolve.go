package engine

import (
	"golang.org/x/exp/rand"

	"github.com/ruckusbots/ruckus/internal/core"
	"github.com/ruckusbots/ruckus/internal/game"
)

// Terrain is the part of a board the resolver consults.
type Terrain interface {
	FindWall(from, to core.Coord, dir core.Orientation) bool
	OnPit(c core.Coord) bool
	InBounds(c core.Coord) bool
}

// Resolver turns cards into robot orders. It works on an occupancy index
// built from the robots on the floor and moves robots as it resolves, so
// one Resolver serves exactly one card or board push.
type Resolver struct {
	terrain  Terrain
	occupied map[core.Coord]*game.Robot
	rng      *rand.Rand

	orders []game.Order
	doomed []*game.Robot
}

// NewResolver indexes the robots standing on the board.
func NewResolver(t Terrain, robots []*game.Robot, rng *rand.Rand) *Resolver {
	occupied := make(map[core.Coord]*game.Robot, len(robots))
	for _, r := range robots {
		if r.OnBoard() {
			occupied[r.Pos] = r
		}
	}
	return &Resolver{terrain: t, occupied: occupied, rng: rng}
}

// Orders returns the orders emitted so far, in dispatch order.
func (rv *Resolver) Orders() []game.Order {
	return rv.orders
}

// Doomed returns the robots that ended in a pit or off the board.
func (rv *Resolver) Doomed() []*game.Robot {
	return rv.doomed
}

// Calculate resolves one card and returns the orders that carry it out.
// Turns only change facing; forward and backup moves may push other
// robots, whose orders come before the pusher's follow-up order.
func (rv *Resolver) Calculate(m game.Move) []game.Order {
	r := m.Robot
	switch m.Card.Direction {
	case game.DirForward:
		rv.Resolve(r, r.Facing, m.Card.Magnitude, false)
	case game.DirBackup:
		rv.Resolve(r, r.Facing.Opposite(), m.Card.Magnitude, false)
	case game.DirLeft:
		r.Facing = r.Facing.Left()
		rv.orders = append(rv.orders, game.Order{Robot: r, Move: core.Left, Magnitude: 1})
	case game.DirRight:
		r.Facing = r.Facing.Right()
		rv.orders = append(rv.orders, game.Order{Robot: r, Move: core.Right, Magnitude: 1})
	case game.DirUTurn:
		r.Facing = r.Facing.Opposite()
		// The sweep direction only changes how the turn looks.
		sweep := core.Left
		if rv.rng.Intn(2) == 1 {
			sweep = core.Right
		}
		rv.orders = append(rv.orders, game.Order{Robot: r, Move: sweep, Magnitude: 2})
	}
	return rv.orders
}

// Resolve moves r up to magnitude cells in dir and returns the cells it
// actually travelled. Walls stop the robot short of the blocked cell; a pit
// or the board edge ends the move on the hazardous cell and dooms the
// robot. Unless the move comes from a conveyor, a robot in the way is
// pushed with the remaining magnitude and the mover follows it as far as
// it went.
func (rv *Resolver) Resolve(r *game.Robot, dir core.Orientation, magnitude int, onConveyor bool) int {
	start := r.Pos
	reach, hazard, offBoard := rv.scan(start, dir, magnitude)
	if reach == 0 {
		rv.orders = append(rv.orders, game.Order{Robot: r, Move: core.Forward})
		return 0
	}

	own := reach
	var blocker *game.Robot
	if !onConveyor {
		for i := 1; i <= reach; i++ {
			if other := rv.occupied[start.Step(dir, i)]; other != nil && other != r {
				blocker = other
				own = i - 1
				break
			}
		}
	}

	move := core.Relative(r.Facing, dir)
	total := own
	emitted := false
	if own > 0 {
		rv.orders = append(rv.orders, game.Order{Robot: r, Move: move, Magnitude: own, OffBoard: offBoard && own == reach})
		emitted = true
	}
	if blocker != nil {
		if pushed := rv.Resolve(blocker, dir, reach-own, false); pushed > 0 {
			total += pushed
			rv.orders = append(rv.orders, game.Order{Robot: r, Move: move, Magnitude: pushed, OffBoard: offBoard && total == reach})
			emitted = true
		}
	}
	if !emitted {
		rv.orders = append(rv.orders, game.Order{Robot: r, Move: core.Forward})
	}

	if total > 0 {
		rv.place(r, start.Step(dir, total))
	}
	if hazard && total == reach {
		rv.doomed = append(rv.doomed, r)
	}
	return total
}

// scan walks the path cell by cell. Walls are checked first, then pits,
// then the board edge.
func (rv *Resolver) scan(start core.Coord, dir core.Orientation, magnitude int) (reach int, hazard, offBoard bool) {
	for i := 1; i <= magnitude; i++ {
		dest := start.Step(dir, i)
		switch {
		case rv.terrain.FindWall(start, dest, dir):
			return i - 1, false, false
		case rv.terrain.OnPit(dest):
			return i, true, false
		case !rv.terrain.InBounds(dest):
			return i, true, true
		}
	}
	return max(magnitude, 0), false, false
}

func (rv *Resolver) place(r *game.Robot, to core.Coord) {
	if rv.occupied[r.Pos] == r {
		delete(rv.occupied, r.Pos)
	}
	r.Pos = to
	rv.occupied[to] = r
}
