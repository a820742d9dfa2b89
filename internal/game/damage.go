package game

import (
	"slices"

	"github.com/ruckusbots/ruckus/internal/core"
)

// SetDamage stores a robot's new damage, clamped to [0, MaxDamage], and
// brings the owning player's locked cards in line with it. Lock changes and
// destruction are reported as events; a destroyed robot's player is not
// killed here, the caller does that with Kill.
//
// Locking only happens while the game is running and the robot has a
// player. During setup the damage is stored and nothing else changes.
func (s *State) SetDamage(r *Robot, value int) []Event {
	r.Damage = core.Clamp(value, 0, MaxDamage)

	p := r.Player
	if !s.Started || p == nil {
		return nil
	}

	if r.Damage >= MaxDamage {
		return []Event{RobotDestroyed{Player: p, Robot: r}}
	}

	before := len(p.Locked)
	target := max(0, r.Damage-LockThreshold)

	if len(p.Locked) > target {
		s.releaseLocks(p, target)
	} else {
		for i := len(p.Locked); i < target; i++ {
			card, ok := s.lockCandidate(p, i)
			if !ok || s.locked[card] {
				continue
			}
			s.locked[card] = true
			p.Locked = append(p.Locked, card)
		}
	}

	if len(p.Locked) == before {
		return nil
	}
	return []Event{LocksChanged{Player: p, Locked: slices.Clone(p.Locked)}}
}

// lockCandidate picks the card that becomes the i-th lock: the card in
// register 5-i, or a fresh card when the player has no program.
func (s *State) lockCandidate(p *Player, i int) (int, bool) {
	if !p.Shutdown && len(p.Program) == Registers {
		return p.Program[Registers-1-i].Number, true
	}
	free := s.freeCards()
	if len(free) == 0 {
		return 0, false
	}
	return free[s.rng.Intn(len(free))], true
}

// releaseLocks unlocks the most recently locked cards until keep remain.
func (s *State) releaseLocks(p *Player, keep int) {
	for len(p.Locked) > keep {
		last := p.Locked[len(p.Locked)-1]
		delete(s.locked, last)
		p.Locked = p.Locked[:len(p.Locked)-1]
	}
}

// Kill moves a player into the dead state: locks released, robot parked off
// the board, one life spent. It reports whether a transition happened;
// killing a dead player, or any player outside a running game, is a no-op.
func (s *State) Kill(p *Player) bool {
	if !s.Started || p.Dead {
		return false
	}
	s.releaseLocks(p, 0)
	if p.Robot != nil {
		p.Robot.Pos = core.OffBoard
	}
	if p.Lives > 0 {
		p.Lives--
	}
	p.Dead = true
	return true
}
