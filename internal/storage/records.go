package storage

import (
	"github.com/ruckusbots/ruckus/internal/core"
	"github.com/ruckusbots/ruckus/internal/game"
)

// EventKind names a logged game event.
type EventKind string

const (
	EventGameStart      EventKind = "gameStart"
	EventRoundStart     EventKind = "roundStart"
	EventPlayerUpdate   EventKind = "playerUpdate"
	EventPlayerEntering EventKind = "playerEntering"
	EventBotDeath       EventKind = "botDeath"
	EventGameEnd        EventKind = "gameEnd"
)

// PlayerRecord is a player snapshot as stored in the log.
type PlayerRecord struct {
	Number   int              `json:"number"`
	Robot    string           `json:"robot"`
	X        int              `json:"x"`
	Y        int              `json:"y"`
	Facing   core.Orientation `json:"facing"`
	LastX    int              `json:"last_x"`
	LastY    int              `json:"last_y"`
	Damage   int              `json:"damage"`
	Flags    int              `json:"flags"`
	Lives    int              `json:"lives"`
	Dead     bool             `json:"dead,omitempty"`
	Shutdown bool             `json:"shutdown,omitempty"`
	Program  []game.Card      `json:"program,omitempty"`

	// WillShutdown is the shutdown request submitted with the program.
	WillShutdown bool `json:"will_shutdown,omitempty"`
}

// Pos returns the logged position.
func (p PlayerRecord) Pos() core.Coord {
	return core.C(p.X, p.Y)
}

// LastLocation returns the logged checkpoint.
func (p PlayerRecord) LastLocation() core.Coord {
	return core.C(p.LastX, p.LastY)
}

// Snapshot records a player's current state.
func Snapshot(p *game.Player) PlayerRecord {
	rec := PlayerRecord{
		Number:   p.Number,
		X:        core.OffBoard.X,
		Y:        core.OffBoard.Y,
		LastX:    core.OffBoard.X,
		LastY:    core.OffBoard.Y,
		Lives:    p.Lives,
		Dead:     p.Dead,
		Shutdown: p.Shutdown,

		WillShutdown: p.WillShutdown,
	}
	if len(p.Program) > 0 {
		rec.Program = append([]game.Card(nil), p.Program...)
	}
	if r := p.Robot; r != nil {
		rec.Robot = r.Name
		rec.X, rec.Y = r.Pos.X, r.Pos.Y
		rec.LastX, rec.LastY = r.LastLocation.X, r.LastLocation.Y
		rec.Facing = r.Facing
		rec.Damage = r.Damage
		rec.Flags = r.Flags
	}
	return rec
}

// SnapshotAll records every player in order.
func SnapshotAll(players []*game.Player) []PlayerRecord {
	out := make([]PlayerRecord, len(players))
	for i, p := range players {
		out[i] = Snapshot(p)
	}
	return out
}
