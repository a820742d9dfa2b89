// Package core provides the grid geometry shared by the game model, the
// board and the move resolver. It has no dependencies on game state so the
// arithmetic stays trivially testable.
package core

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Coord is a cell on the board grid. (0,0) is the bottom-left cell.
type Coord struct {
	X, Y int
}

// OffBoard is where a robot sits while it is not on the board.
var OffBoard = Coord{X: -1, Y: -1}

// C is shorthand for Coord{X: x, Y: y}.
func C(x, y int) Coord {
	return Coord{X: x, Y: y}
}

// Add returns the coordinate offset by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{X: c.X + d.X, Y: c.Y + d.Y}
}

// Step returns the coordinate n cells away in direction o.
func (c Coord) Step(o Orientation, n int) Coord {
	d := o.Delta()
	return Coord{X: c.X + d.X*n, Y: c.Y + d.Y*n}
}

// IsOffBoard reports whether c is the parking coordinate.
func (c Coord) IsOffBoard() bool {
	return c == OffBoard
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Clamp restricts a value to be within [lo, hi].
func Clamp[T constraints.Ordered](val, lo, hi T) T {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Abs returns the absolute value of an integer.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
