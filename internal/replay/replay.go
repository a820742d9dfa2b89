// Package replay plays a logged game again on a fresh table. The logged
// programs are submitted as recorded, so the robots retrace the game move
// by move.
package replay

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"

	"github.com/ruckusbots/ruckus/internal/board"
	"github.com/ruckusbots/ruckus/internal/engine"
	"github.com/ruckusbots/ruckus/internal/storage"
)

var (
	// ErrAborted is returned when a replay stops before its last event.
	ErrAborted = errors.New("replay aborted")
	// ErrNoStart is returned for a log without a game start event.
	ErrNoStart = errors.New("game log has no start event")
	// ErrNoRobots is returned when the pen cannot seat every logged player.
	ErrNoRobots = errors.New("not enough robots in the pen")
)

// Log is the read side of the game log.
type Log interface {
	Game(gameID string) (*storage.GameRecord, error)
	Events(gameID string) ([]storage.EventRecord, error)
}

// Boards finds boards by name.
type Boards interface {
	LoadByName(name string) (*board.Board, error)
}

// Runner replays logged games into one Game.
type Runner struct {
	log    Log
	boards Boards
	game   *engine.Game
	logger *log.Logger
	rng    *rand.Rand

	// Step is the pause between two events.
	Step time.Duration
	// OnEvent, when set, is called before each event is applied.
	OnEvent func(storage.EventRecord)

	aborted atomic.Bool
}

// New creates a runner.
func New(l Log, boards Boards, g *engine.Game, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		log:    l,
		boards: boards,
		game:   g,
		logger: logger,
		rng:    rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		Step:   250 * time.Millisecond,
	}
}

// Abort stops a running replay once the current event is done.
func (r *Runner) Abort() {
	r.aborted.Store(true)
}

// Run replays the game with the given ID. Game logging is suspended for
// the length of the replay.
func (r *Runner) Run(ctx context.Context, gameID string) error {
	r.aborted.Store(false)

	rec, err := r.log.Game(gameID)
	if err != nil {
		return err
	}
	events, err := r.log.Events(gameID)
	if err != nil {
		return err
	}
	if len(events) == 0 || events[0].Kind != storage.EventGameStart {
		return ErrNoStart
	}
	b, err := r.boards.LoadByName(rec.Board)
	if err != nil {
		return fmt.Errorf("loading board %q: %w", rec.Board, err)
	}

	r.game.SuspendLogging()
	defer r.game.ResumeLogging()

	if err := r.setup(b, events[0].Players); err != nil {
		return err
	}
	r.logger.Info("replay started", "game", gameID, "board", b.Name, "events", len(events))

	for _, evt := range events[1:] {
		if r.aborted.Load() || ctx.Err() != nil {
			r.logger.Info("replay aborted", "game", gameID, "seq", evt.Seq)
			return ErrAborted
		}
		if r.OnEvent != nil {
			r.OnEvent(evt)
		}
		if err := r.apply(evt); err != nil {
			return fmt.Errorf("event %d (%s): %w", evt.Seq, evt.Kind, err)
		}
		if r.Step > 0 {
			select {
			case <-time.After(r.Step):
			case <-ctx.Done():
			}
		}
	}

	r.logger.Info("replay finished", "game", gameID, "winner", rec.Winner)
	return nil
}

// setup seats the logged players, each on its logged robot when the pen
// still has it and on a random pen robot otherwise.
func (r *Runner) setup(b *board.Board, players []storage.PlayerRecord) error {
	if err := r.game.SetupGame(b, engine.Table{Players: len(players)}); err != nil {
		return err
	}

	for _, p := range players {
		n, err := r.game.AddPlayer()
		if err != nil {
			return err
		}
		name, err := r.pickRobot(p.Robot)
		if err != nil {
			return err
		}
		if err := r.game.SetupPlayer(n, name, p.Pos(), p.Facing); err != nil {
			return fmt.Errorf("seating player %d on %s: %w", n, name, err)
		}
		if last := p.LastLocation(); b.InBounds(last) {
			if err := r.game.SetCheckpoint(n, last); err != nil {
				return err
			}
		}
	}
	return r.game.StartGame()
}

func (r *Runner) pickRobot(logged string) (string, error) {
	pen := r.game.PenRobots()
	for _, name := range pen {
		if name == logged {
			return name, nil
		}
	}
	if len(pen) == 0 {
		return "", fmt.Errorf("%w: no stand-in for %s", ErrNoRobots, logged)
	}
	name := pen[r.rng.Intn(len(pen))]
	r.logger.Warn("logged robot not available, using another", "logged", logged, "robot", name)
	return name, nil
}

func (r *Runner) apply(evt storage.EventRecord) error {
	switch evt.Kind {
	case storage.EventRoundStart:
		for _, p := range evt.Players {
			if len(p.Program) == 0 {
				continue
			}
			if err := r.game.SubmitRecorded(p.Number, p.Program, p.WillShutdown); err != nil {
				return err
			}
		}
	case storage.EventPlayerUpdate:
		for _, p := range evt.Players {
			// A logged swap is replayed only when the robot is in the pen.
			robot := ""
			if slices.Contains(r.game.PenRobots(), p.Robot) {
				robot = p.Robot
			}
			err := r.game.UpdatePlayer(p.Number, engine.PlayerUpdate{
				Lives:  p.Lives,
				Damage: p.Damage,
				At:     p.Pos(),
				Facing: p.Facing,
				Flags:  p.Flags,
				Robot:  robot,
			})
			if err != nil {
				return err
			}
		}
	case storage.EventPlayerEntering:
		entries := make([]engine.Entry, len(evt.Players))
		for i, p := range evt.Players {
			entries[i] = engine.Entry{Player: p.Number, At: p.Pos(), Facing: p.Facing}
		}
		return r.game.EnterPlayers(entries)
	case storage.EventGameEnd:
		r.game.ResumeLogging()
	}
	return nil
}
