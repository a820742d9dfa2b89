package storage

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ruckusbots/ruckus/internal/game"
)

// Journal writes the events of the game currently being played. Write
// failures are logged and never interrupt play.
type Journal struct {
	store  *Store
	logger *log.Logger

	mu     sync.Mutex
	gameID string
}

// NewJournal creates a journal backed by store.
func NewJournal(store *Store, logger *log.Logger) *Journal {
	if logger == nil {
		logger = log.Default()
	}
	return &Journal{store: store, logger: logger}
}

// GameID returns the ID of the game being logged, or "".
func (j *Journal) GameID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.gameID
}

func (j *Journal) LogGameStart(board string, players []*game.Player) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id, err := j.store.CreateGame(board, SnapshotAll(players))
	if err != nil {
		j.logger.Error("cannot log game start", "error", err)
		return
	}
	j.gameID = id
	j.logger.Info("game log started", "game", id, "board", board, "players", len(players))
}

func (j *Journal) LogRoundStart(players []*game.Player) {
	j.append(EventRoundStart, SnapshotAll(players))
}

func (j *Journal) LogPlayerUpdate(p *game.Player) {
	j.append(EventPlayerUpdate, []PlayerRecord{Snapshot(p)})
}

func (j *Journal) LogPlayerEntering(p *game.Player) {
	j.append(EventPlayerEntering, []PlayerRecord{Snapshot(p)})
}

func (j *Journal) LogBotDeath(p *game.Player) {
	j.append(EventBotDeath, []PlayerRecord{Snapshot(p)})
}

// LogGameEnd closes the current game. winner is a robot name or "".
func (j *Journal) LogGameEnd(players []*game.Player, winner string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.gameID == "" {
		return
	}
	if err := j.store.EndGame(j.gameID, winner, SnapshotAll(players)); err != nil {
		j.logger.Error("cannot log game end", "game", j.gameID, "error", err)
	}
	j.gameID = ""
}

func (j *Journal) append(kind EventKind, players []PlayerRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.gameID == "" {
		j.logger.Debug("no game being logged", "event", kind)
		return
	}
	if err := j.store.AppendEvent(j.gameID, kind, players); err != nil {
		j.logger.Error("cannot log event", "game", j.gameID, "event", kind, "error", err)
	}
}
