// Package engine runs a game: it owns the canonical state, resolves every
// register of a round and drives the robots through the device layer.
//
// All state mutation happens under one game lock. A second, narrower lock
// guards the robot roster for setup and robot callbacks; when both are
// needed the game lock is always taken first.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ruckusbots/ruckus/internal/board"
	"github.com/ruckusbots/ruckus/internal/device"
	"github.com/ruckusbots/ruckus/internal/game"
	"github.com/ruckusbots/ruckus/internal/notify"
)

var (
	ErrNoBoard          = errors.New("no board loaded")
	ErrNotEnoughRobots  = errors.New("not enough robots")
	ErrGameNotStarted   = errors.New("game not started")
	ErrGameStarted      = errors.New("game already started")
	ErrGameFull         = errors.New("game is full")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrUnknownRobot     = errors.New("unknown robot")
	ErrInvalidProgram   = errors.New("invalid program")
	ErrRobotUnavailable = errors.New("robot not available")
	ErrPositionTaken    = errors.New("position taken")
	ErrInvalidPosition  = errors.New("position outside the board")
	ErrBotless          = errors.New("not available without robots")
	ErrNotTuning        = errors.New("robots are not being tuned")
)

// GameLogger records the course of a game.
type GameLogger interface {
	LogGameStart(board string, players []*game.Player)
	LogRoundStart(players []*game.Player)
	LogPlayerUpdate(p *game.Player)
	LogPlayerEntering(p *game.Player)
	LogBotDeath(p *game.Player)
	LogGameEnd(players []*game.Player, winner string)
}

type nopGameLogger struct{}

func (nopGameLogger) LogGameStart(string, []*game.Player) {}
func (nopGameLogger) LogRoundStart([]*game.Player)        {}
func (nopGameLogger) LogPlayerUpdate(*game.Player)        {}
func (nopGameLogger) LogPlayerEntering(*game.Player)      {}
func (nopGameLogger) LogBotDeath(*game.Player)            {}
func (nopGameLogger) LogGameEnd([]*game.Player, string)   {}

// Pacing holds the pauses that let spectators follow the robots.
type Pacing struct {
	Phase        time.Duration // after moves, each conveyor phase and turntables
	LaserFire    time.Duration
	LaserHit     time.Duration
	Wrench       time.Duration
	Flag         time.Duration
	Register     time.Duration // register display
	Winner       time.Duration
	OffBoard     time.Duration
	BotlessMove  time.Duration
	RoundEnd     time.Duration
	AllShutdown  time.Duration
	SetupSettle  time.Duration // after entering setup or a speed test
	AssignSettle time.Duration
	AssignWindow time.Duration
}

// DefaultPacing returns the pauses used at the table.
func DefaultPacing() Pacing {
	return Pacing{
		Phase:        time.Second,
		LaserFire:    800 * time.Millisecond,
		LaserHit:     2 * time.Second,
		Wrench:       1650 * time.Millisecond,
		Flag:         time.Second,
		Register:     7 * time.Second,
		Winner:       250 * time.Millisecond,
		OffBoard:     4 * time.Second,
		BotlessMove:  time.Second,
		RoundEnd:     2 * time.Second,
		AllShutdown:  3 * time.Second,
		SetupSettle:  100 * time.Millisecond,
		AssignSettle: 500 * time.Millisecond,
		AssignWindow: time.Second,
	}
}

// Options configures a Game.
type Options struct {
	Link     device.Link
	Timing   device.Timing
	Notifier notify.Notifier
	Log      GameLogger
	Logger   *log.Logger
	Pacing   Pacing

	// Seed fixes card draws and u-turn sweeps; zero uses the clock.
	Seed    int64
	Botless bool

	ShowRegister bool
	EdgeControl  bool
	PlayerTimer  bool

	SetupAttempts   int
	SetupRetryDelay time.Duration
}

// Game is one table: a board, its players and the robots on it.
type Game struct {
	mu      sync.Mutex
	setupMu sync.Mutex

	state   *game.State
	board   *board.Board
	effects *board.Effects

	link       device.Link
	dispatcher *device.Dispatcher
	notifier   notify.Notifier
	journal    GameLogger
	logging    bool
	logger     *log.Logger
	pacing     Pacing
	ctx        context.Context

	botless      bool
	ready        bool
	showRegister bool
	edgeControl  bool
	playerTimer  bool
	timerStarted bool

	setupAttempts   int
	setupRetryDelay time.Duration

	status atomic.Pointer[Status]
}

// New creates a game with no board and an empty pen.
func New(opts Options) *Game {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Link == nil || opts.Botless {
		opts.Link = device.NewSimLink()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop()
	}
	if opts.Log == nil {
		opts.Log = nopGameLogger{}
	}
	if opts.Timing == (device.Timing{}) {
		opts.Timing = device.DefaultTiming()
	}
	if opts.SetupAttempts < 1 {
		opts.SetupAttempts = 1
	}

	g := &Game{
		state:           game.NewState(game.StandardDeck(), opts.Seed),
		link:            opts.Link,
		dispatcher:      device.NewDispatcher(opts.Link, opts.Timing, opts.Logger),
		notifier:        opts.Notifier,
		journal:         opts.Log,
		logging:         true,
		logger:          opts.Logger,
		pacing:          opts.Pacing,
		ctx:             context.Background(),
		botless:         opts.Botless,
		showRegister:    opts.ShowRegister,
		edgeControl:     opts.EdgeControl,
		playerTimer:     opts.PlayerTimer,
		setupAttempts:   opts.SetupAttempts,
		setupRetryDelay: opts.SetupRetryDelay,
	}
	g.refreshStatus()
	return g
}

// Botless reports whether the game runs without physical robots.
func (g *Game) Botless() bool {
	return g.botless
}

// Board returns the board in use, or nil.
func (g *Game) Board() *board.Board {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board
}

// SuspendLogging stops game log writes, for replaying a logged game.
func (g *Game) SuspendLogging() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logging = false
}

// ResumeLogging restarts game log writes.
func (g *Game) ResumeLogging() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logging = true
}

// gameLog returns the logger to write to, or a no-op while suspended.
func (g *Game) gameLog() GameLogger {
	if !g.logging {
		return nopGameLogger{}
	}
	return g.journal
}

func (g *Game) pause(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (g *Game) player(n int) (*game.Player, error) {
	p, ok := g.state.Player(n)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

func (g *Game) winnerName() string {
	if g.state.Winner == nil {
		return ""
	}
	return g.state.Winner.Name
}
