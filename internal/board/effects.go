package board

import (
	"github.com/ruckusbots/ruckus/internal/core"
	"github.com/ruckusbots/ruckus/internal/game"
)

// Mover applies physical consequences on behalf of the board. The round
// engine implements it so every board-driven motion goes through the same
// resolver and device dispatch as a card move.
type Mover interface {
	// Present returns the robots currently on the floor.
	Present() []*game.Robot
	// Convey moves r one cell in dir without pushing other robots.
	Convey(r *game.Robot, dir core.Orientation) int
	// Turn rotates r a quarter turn.
	Turn(r *game.Robot, clockwise bool)
	// Hurt adds damage to r.
	Hurt(r *game.Robot, amount int)
}

// FlagTouch pairs a robot with the index of the flag it stands on.
type FlagTouch struct {
	Robot *game.Robot
	Flag  int
}

// Effects resolves floor elements against the robots on a board.
type Effects struct {
	Board *Board
	Mover Mover
}

// NewEffects binds a board to a mover.
func NewEffects(b *Board, m Mover) *Effects {
	return &Effects{Board: b, Mover: m}
}

func (e *Effects) robotAt(c core.Coord) *game.Robot {
	for _, r := range e.Mover.Present() {
		if r.Pos == c {
			return r
		}
	}
	return nil
}

// MoveConveyors runs one conveyor phase. The express phase moves robots
// on express belts only; the normal phase moves robots on every belt.
// A robot whose destination is occupied stays put.
func (e *Effects) MoveConveyors(express bool) {
	type ride struct {
		robot *game.Robot
		dir   core.Orientation
	}

	var rides []ride
	for _, r := range e.Mover.Present() {
		for _, c := range e.Board.Conveyors {
			if c.At == r.Pos && (c.Express || !express) {
				rides = append(rides, ride{robot: r, dir: c.Dir})
				break
			}
		}
	}

	for _, rd := range rides {
		if !rd.robot.OnBoard() {
			continue
		}
		if other := e.robotAt(rd.robot.Pos.Step(rd.dir, 1)); other != nil {
			continue
		}
		e.Mover.Convey(rd.robot, rd.dir)
	}
}

// ExecuteTurnTables rotates every robot standing on a turntable.
func (e *Effects) ExecuteTurnTables() {
	for _, t := range e.Board.Turntables {
		if r := e.robotAt(t.At); r != nil {
			e.Mover.Turn(r, t.Clockwise)
		}
	}
}

// FireLasers fires every board laser and reports whether any hit a robot.
func (e *Effects) FireLasers() bool {
	hit := false
	for _, l := range e.Board.Lasers {
		cell := l.Start
		for e.Board.InBounds(cell) {
			if r := e.robotAt(cell); r != nil {
				e.Mover.Hurt(r, max(1, l.Strength))
				hit = true
				break
			}
			next := cell.Step(l.Dir, 1)
			if e.Board.Blocked(cell, next) {
				break
			}
			cell = next
		}
	}
	return hit
}

// Wrenches returns the robots standing on repair sites.
func (e *Effects) Wrenches() []*game.Robot {
	var healed []*game.Robot
	for _, w := range e.Board.Wrenches {
		if r := e.robotAt(w); r != nil {
			healed = append(healed, r)
		}
	}
	return healed
}

// FlagsTouched returns the robots standing on flags.
func (e *Effects) FlagsTouched() []FlagTouch {
	var touched []FlagTouch
	for i, f := range e.Board.Flags {
		if r := e.robotAt(f); r != nil {
			touched = append(touched, FlagTouch{Robot: r, Flag: i})
		}
	}
	return touched
}

// FindWall reports whether a wall blocks the path from `from` to `to`.
func (e *Effects) FindWall(from, to core.Coord, dir core.Orientation) bool {
	return e.Board.FindWall(from, to, dir)
}

// OnPit reports whether c is a pit.
func (e *Effects) OnPit(c core.Coord) bool {
	return e.Board.OnPit(c)
}
