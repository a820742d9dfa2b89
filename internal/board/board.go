// Package board models a factory floor: its size, walls and hazards, and
// the effects the floor applies to robots between player moves.
package board

import (
	"github.com/ruckusbots/ruckus/internal/core"
)

// Wall sits on the edge between two orthogonally adjacent cells.
type Wall struct {
	A, B core.Coord
}

// Conveyor moves a robot standing on it one cell per phase.
type Conveyor struct {
	At      core.Coord
	Dir     core.Orientation
	Express bool
}

// Turntable rotates a robot standing on it a quarter turn.
type Turntable struct {
	At        core.Coord
	Clockwise bool
}

// Laser fires from Start towards Dir until it meets a wall or a robot.
type Laser struct {
	Start    core.Coord
	Dir      core.Orientation
	Strength int
}

// Board is an immutable factory floor.
type Board struct {
	Name       string
	Width      int
	Height     int
	Walls      []Wall
	Pits       []core.Coord
	Conveyors  []Conveyor
	Turntables []Turntable
	Lasers     []Laser
	Wrenches   []core.Coord
	Flags      []core.Coord

	FilePath string

	walls map[edge]bool
	pits  map[core.Coord]bool
}

type edge struct {
	a, b core.Coord
}

func newEdge(a, b core.Coord) edge {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	return edge{a: a, b: b}
}

// New creates a board and indexes its walls and pits.
func New(name string, width, height int) *Board {
	b := &Board{Name: name, Width: width, Height: height}
	b.index()
	return b
}

// AddWall places a wall between two adjacent cells.
func (b *Board) AddWall(a, c core.Coord) {
	b.Walls = append(b.Walls, Wall{A: a, B: c})
	b.walls[newEdge(a, c)] = true
}

// AddPit marks a cell as a pit.
func (b *Board) AddPit(c core.Coord) {
	b.Pits = append(b.Pits, c)
	b.pits[c] = true
}

func (b *Board) index() {
	b.walls = make(map[edge]bool, len(b.Walls))
	for _, w := range b.Walls {
		b.walls[newEdge(w.A, w.B)] = true
	}
	b.pits = make(map[core.Coord]bool, len(b.Pits))
	for _, p := range b.Pits {
		b.pits[p] = true
	}
}

// InBounds reports whether c is a cell of the board.
func (b *Board) InBounds(c core.Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < b.Width && c.Y < b.Height
}

// Blocked reports whether a wall separates two adjacent cells.
func (b *Board) Blocked(a, c core.Coord) bool {
	return b.walls[newEdge(a, c)]
}

// FindWall reports whether any wall lies on the straight path from `from`
// to `to` travelling in dir.
func (b *Board) FindWall(from, to core.Coord, dir core.Orientation) bool {
	cur := from
	for cur != to {
		next := cur.Step(dir, 1)
		if b.Blocked(cur, next) {
			return true
		}
		cur = next
		if core.Abs(cur.X-from.X) > b.Width || core.Abs(cur.Y-from.Y) > b.Height {
			// to is not on the line from `from` in dir.
			return false
		}
	}
	return false
}

// OnPit reports whether c is a pit.
func (b *Board) OnPit(c core.Coord) bool {
	return b.pits[c]
}

// FlagIndex returns the position of the flag on c, or -1.
func (b *Board) FlagIndex(c core.Coord) int {
	for i, f := range b.Flags {
		if f == c {
			return i
		}
	}
	return -1
}
