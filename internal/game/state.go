package game

import (
	"errors"
	"slices"
	"time"

	"golang.org/x/exp/rand"

	"github.com/ruckusbots/ruckus/internal/core"
)

// Rules of the game.
const (
	HandSize      = 9
	Registers     = 5
	MaxDamage     = 10
	LockThreshold = 4
	StartingLives = 3
)

// ErrDeckExhausted is returned when a draw finds no free card.
var ErrDeckExhausted = errors.New("not enough cards left in the deck")

// State is the canonical game state: every robot, every player and the
// shared card pool. It is owned by one orchestrator and never shared
// without that owner's lock.
type State struct {
	Deck []Card

	// Robots are in play, either controlled by a player or being tuned.
	Robots []*Robot
	// Pen holds registered robots that are not in play.
	Pen []*Robot

	Players    []*Player
	NumPlayers int

	Started             bool
	Winner              *Robot
	RoundRunning        bool
	PlayersNeedEntering bool
	Tuning              bool

	locked map[int]bool
	dealt  map[int]bool
	rng    *rand.Rand
}

// NewState creates an empty state over deck. A zero seed uses the clock.
func NewState(deck []Card, seed int64) *State {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &State{
		Deck:   deck,
		locked: make(map[int]bool),
		dealt:  make(map[int]bool),
		rng:    rand.New(rand.NewSource(uint64(seed))),
	}
}

// Rand exposes the state's random source for presentation choices that
// must stay reproducible under a fixed seed.
func (s *State) Rand() *rand.Rand {
	return s.rng
}

// IsLocked reports whether card n is locked by any player.
func (s *State) IsLocked(n int) bool {
	return s.locked[n]
}

// IsDealt reports whether card n is in some player's hand this round.
func (s *State) IsDealt(n int) bool {
	return s.dealt[n]
}

// LockedCards returns the number of globally locked cards.
func (s *State) LockedCards() int {
	return len(s.locked)
}

// Player returns the player with the given number.
func (s *State) Player(n int) (*Player, bool) {
	if n < 0 || n >= len(s.Players) {
		return nil, false
	}
	return s.Players[n], true
}

// RobotByName finds a robot in play or in the pen by name.
func (s *State) RobotByName(name string) *Robot {
	for _, r := range s.Robots {
		if r.Name == name {
			return r
		}
	}
	for _, r := range s.Pen {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// TakeFromPen removes r from the pen and puts it in play. A robot in play
// is numbered by its slot, which is how it identifies itself in callbacks.
func (s *State) TakeFromPen(r *Robot) bool {
	for i, p := range s.Pen {
		if p == r {
			s.Pen = append(s.Pen[:i], s.Pen[i+1:]...)
			r.Number = len(s.Robots)
			s.Robots = append(s.Robots, r)
			return true
		}
	}
	return false
}

// SwapRobot puts the pen robot in into the slot of the robot out, which
// goes back to the pen. The newcomer inherits the slot number and the
// player.
func (s *State) SwapRobot(out, in *Robot) bool {
	slot := slices.Index(s.Robots, out)
	pen := slices.Index(s.Pen, in)
	if slot < 0 || pen < 0 {
		return false
	}
	s.Pen = slices.Delete(s.Pen, pen, pen+1)

	in.Number = out.Number
	in.Player = out.Player
	if in.Player != nil {
		in.Player.Robot = in
	}
	s.Robots[slot] = in

	out.Player = nil
	out.Neutral()
	out.Number = -1
	s.Pen = append(s.Pen, out)
	return true
}

// ReturnAllToPen moves every robot out of play, in slot order. Players
// lose their robots.
func (s *State) ReturnAllToPen() {
	for _, r := range s.Robots {
		if r.Player != nil {
			r.Player.Robot = nil
		}
		r.Player = nil
		r.Neutral()
		r.Number = -1
		s.Pen = append(s.Pen, r)
	}
	s.Robots = nil
}

// InPlay returns the robot occupying slot number, if any.
func (s *State) InPlay(number int) *Robot {
	if number < 0 || number >= len(s.Robots) {
		return nil
	}
	return s.Robots[number]
}

// RobotAt returns the robot standing on c, if any.
func (s *State) RobotAt(c core.Coord) *Robot {
	for _, r := range s.Robots {
		if r.Pos == c {
			return r
		}
	}
	return nil
}

// LivingPlayers counts players with at least one life left.
func (s *State) LivingPlayers() int {
	n := 0
	for _, p := range s.Players {
		if p.Lives > 0 {
			n++
		}
	}
	return n
}
