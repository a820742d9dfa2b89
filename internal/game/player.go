package game

import (
	"fmt"

	"github.com/ruckusbots/ruckus/internal/core"
)

// Player is a seat at the table driving one robot.
type Player struct {
	// Number is zero based.
	Number int
	Robot  *Robot

	Cards   []Card
	Program []Card // nil until the player submits
	Locked  []int  // card numbers, oldest first

	Shutdown     bool
	WillShutdown bool
	Lives        int
	Dead         bool
}

// NewPlayer creates a player with a full set of lives.
func NewPlayer(number int) *Player {
	return &Player{Number: number, Lives: StartingLives}
}

// Submitted reports whether the player has a program for this round.
func (p *Player) Submitted() bool {
	return p.Program != nil
}

// Active reports whether the player's robot takes part in the next register.
func (p *Player) Active() bool {
	return !p.Dead && !p.Shutdown
}

// Finished reports whether the player no longer blocks the round from
// starting: submitted, dead or shut down.
func (p *Player) Finished() bool {
	return p.Submitted() || p.Dead || p.Shutdown
}

// Order is one physical command for one robot.
type Order struct {
	Robot     *Robot
	Move      core.Movement
	Magnitude int
	OffBoard  bool
}

// String encodes the order the way robot firmware reads it: the movement
// ordinal followed by the magnitude.
func (o Order) String() string {
	return fmt.Sprintf("%d%d", int(o.Move), o.Magnitude)
}

// Move pairs a card with the robot it drives.
type Move struct {
	Card  Card
	Robot *Robot
}
