// Package notify carries presentation events from the round engine to
// observers: player screens, spectator displays and tests.
package notify

import "github.com/ruckusbots/ruckus/internal/game"

// Event is one observer-facing notification.
type Event interface {
	// Type names the event on the wire.
	Type() string
}

// MessageEvent is a banner shown on every screen.
type MessageEvent struct {
	Text  string `json:"text"`
	Sound string `json:"sound,omitempty"`
}

func (MessageEvent) Type() string { return "displayMessage" }

// MoveEvent announces the card being executed.
type MoveEvent struct {
	Card     game.Card `json:"card"`
	Robot    string    `json:"robot"`
	Register int       `json:"register"` // one based
}

func (MoveEvent) Type() string { return "showMove" }

// RegisterEvent shows a whole register in execution order.
type RegisterEvent struct {
	Cards  []game.Card `json:"cards"`
	Robots []string    `json:"robots"`
}

func (RegisterEvent) Type() string { return "showRegister" }

// HealthEvent carries every player's damage, indexed by player number.
type HealthEvent struct {
	Damage []int `json:"damage"`
}

func (HealthEvent) Type() string { return "updateHealth" }

// DealEvent asks a player (or all, when Player is -1) to request cards.
type DealEvent struct {
	Player int `json:"player"`
}

func (DealEvent) Type() string { return "requestDeal" }

// ClearHandsEvent empties every player's hand on screen.
type ClearHandsEvent struct{}

func (ClearHandsEvent) Type() string { return "clearHands" }

// TimerEvent starts the countdown for the last player to submit.
type TimerEvent struct{}

func (TimerEvent) Type() string { return "startTimer" }

// ResetEvent tells screens the game was reset.
type ResetEvent struct {
	All bool `json:"all"`
}

func (ResetEvent) Type() string { return "reset" }
