// Package game holds the mutable entities of a match (robots, players and
// the shared card pool) together with the invariants that bind them: the
// damage to card-lock relation, the death transition and card dealing.
//
// Nothing in this package locks. Callers serialize access to a State.
package game

import (
	"fmt"
	"strings"
)

// Direction is the instruction printed on a program card.
type Direction string

const (
	DirForward Direction = "forward"
	DirLeft    Direction = "left"
	DirRight   Direction = "right"
	DirBackup  Direction = "backup"
	DirUTurn   Direction = "uturn"
)

// Card is one program card. Number is the card's index in the deck and is
// how cards are tracked in the dealt and locked sets.
type Card struct {
	Number    int       `json:"number" yaml:"number"`
	Direction Direction `json:"direction" yaml:"direction"`
	Magnitude int       `json:"magnitude" yaml:"magnitude"`
	Priority  int       `json:"priority" yaml:"priority"`
}

func (c Card) String() string {
	switch c.Direction {
	case DirForward:
		return fmt.Sprintf("move %d (%d)", c.Magnitude, c.Priority)
	case DirBackup:
		return fmt.Sprintf("back up (%d)", c.Priority)
	case DirUTurn:
		return fmt.Sprintf("u-turn (%d)", c.Priority)
	default:
		return fmt.Sprintf("turn %s (%d)", strings.ToLower(string(c.Direction)), c.Priority)
	}
}

// StandardDeck returns the 84 card program deck, ordered by priority.
func StandardDeck() []Card {
	var deck []Card
	add := func(dir Direction, mag, count, first, step int) {
		for i := 0; i < count; i++ {
			deck = append(deck, Card{
				Number:    len(deck),
				Direction: dir,
				Magnitude: mag,
				Priority:  first + i*step,
			})
		}
	}

	add(DirUTurn, 1, 6, 10, 10)
	add(DirLeft, 1, 18, 70, 20)
	add(DirRight, 1, 18, 80, 20)
	add(DirBackup, 1, 6, 430, 10)
	add(DirForward, 1, 18, 490, 10)
	add(DirForward, 2, 12, 670, 10)
	add(DirForward, 3, 6, 790, 10)

	return deck
}
