package game

import "github.com/ruckusbots/ruckus/internal/core"

// Mode is how the server reaches a robot.
type Mode int

const (
	ModeIP Mode = iota
	ModeBluetooth
)

func (m Mode) String() string {
	switch m {
	case ModeIP:
		return "ip"
	case ModeBluetooth:
		return "bluetooth"
	default:
		return "unknown"
	}
}

// Signal is a one-slot completion flag. Fire never blocks; Reset drains a
// pending fire so the next Wait only sees new completions.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates an unfired signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Fire marks the signal. Repeated fires collapse into one.
func (s *Signal) Fire() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Reset clears a pending fire.
func (s *Signal) Reset() {
	select {
	case <-s.ch:
	default:
	}
}

// C returns the channel that receives once per fire.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}

// Robot is a physical robot known to the server.
type Robot struct {
	Number int
	Name   string
	Addr   string
	Mode   Mode

	Pos          core.Coord
	Facing       core.Orientation
	Damage       int
	Flags        int
	LastLocation core.Coord

	// Player is nil while the robot sits in the pen.
	Player *Player

	// Moving fires when the robot reports its last move finished.
	Moving *Signal
}

// NewRobot creates a robot parked off the board.
func NewRobot(number int, name, addr string) *Robot {
	return &Robot{
		Number:       number,
		Name:         name,
		Addr:         addr,
		Mode:         ModeIP,
		Pos:          core.OffBoard,
		Facing:       core.PosY,
		LastLocation: core.OffBoard,
		Moving:       NewSignal(),
	}
}

// OnBoard reports whether the robot occupies a board cell.
func (r *Robot) OnBoard() bool {
	return !r.Pos.IsOffBoard()
}

// Place puts the robot on a cell and records it as the checkpoint.
func (r *Robot) Place(at core.Coord, facing core.Orientation) {
	r.Pos = at
	r.Facing = facing
	r.LastLocation = at
}

// Neutral returns the robot to its pre-game state.
func (r *Robot) Neutral() {
	r.Pos = core.OffBoard
	r.LastLocation = core.OffBoard
	r.Damage = 0
	r.Flags = 0
	r.Moving.Reset()
}
