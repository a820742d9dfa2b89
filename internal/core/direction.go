package core

import (
	"fmt"
	"strings"
)

// Orientation is the absolute heading of a robot on the board.
// The ordinal values are part of the robot wire protocol.
type Orientation int

const (
	PosX Orientation = iota
	PosY
	NegX
	NegY
)

var orientationNames = [...]string{"+X", "+Y", "-X", "-Y"}

func (o Orientation) String() string {
	if o < PosX || o > NegY {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// Valid reports whether o is one of the four headings.
func (o Orientation) Valid() bool {
	return o >= PosX && o <= NegY
}

// Left returns the heading after a quarter-turn counter-clockwise.
func (o Orientation) Left() Orientation {
	return (o + 1) % 4
}

// Right returns the heading after a quarter-turn clockwise.
func (o Orientation) Right() Orientation {
	return (o + 3) % 4
}

// Opposite returns the heading rotated by 180 degrees.
func (o Orientation) Opposite() Orientation {
	return (o + 2) % 4
}

// Delta returns the unit step for one cell of travel.
func (o Orientation) Delta() Coord {
	switch o {
	case PosX:
		return Coord{X: 1}
	case PosY:
		return Coord{Y: 1}
	case NegX:
		return Coord{X: -1}
	case NegY:
		return Coord{Y: -1}
	}
	return Coord{}
}

// ParseOrientation accepts "+x", "x", "-y", "north" style names and ordinals.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "+x", "x", "east", "0":
		return PosX, nil
	case "+y", "y", "north", "1":
		return PosY, nil
	case "-x", "west", "2":
		return NegX, nil
	case "-y", "south", "3":
		return NegY, nil
	}
	return PosX, fmt.Errorf("unknown orientation %q", s)
}

// MarshalText writes the heading name.
func (o Orientation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid orientation %d", int(o))
	}
	return []byte(orientationNames[o]), nil
}

// UnmarshalText lets orientations appear as names in YAML and JSON.
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Movement is the relative motion primitive a robot's firmware executes.
// The ordinal values are part of the robot wire protocol.
type Movement int

const (
	Left Movement = iota
	Right
	Forward
	Backward
	SlideLeft
	SlideRight
)

var movementNames = [...]string{"left", "right", "forward", "backward", "slide-left", "slide-right"}

func (m Movement) String() string {
	if m < Left || m > SlideRight {
		return fmt.Sprintf("Movement(%d)", int(m))
	}
	return movementNames[m]
}

// relativeMoves maps (heading - facing) mod 4 to the motion primitive that
// carries a robot facing `facing` one cell towards `heading`.
var relativeMoves = [4]Movement{
	0: Forward,
	1: SlideLeft,
	2: Backward,
	3: SlideRight,
}

// Relative returns the movement primitive a robot facing `facing` uses to
// travel in absolute direction `heading`.
func Relative(facing, heading Orientation) Movement {
	return relativeMoves[(heading-facing+4)%4]
}
