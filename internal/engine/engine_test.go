package engine

import (
	"context"
	"io"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/ruckusbots/ruckus/internal/board"
	"github.com/ruckusbots/ruckus/internal/core"
	"github.com/ruckusbots/ruckus/internal/device"
	"github.com/ruckusbots/ruckus/internal/game"
	"github.com/ruckusbots/ruckus/internal/notify"
)

type fakeJournal struct {
	mu    sync.Mutex
	calls []string
}

func (j *fakeJournal) add(call string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call)
}

func (j *fakeJournal) Calls() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

func (j *fakeJournal) LogGameStart(string, []*game.Player) { j.add("gameStart") }
func (j *fakeJournal) LogRoundStart([]*game.Player)        { j.add("roundStart") }
func (j *fakeJournal) LogPlayerUpdate(*game.Player)        { j.add("playerUpdate") }
func (j *fakeJournal) LogPlayerEntering(*game.Player)      { j.add("playerEntering") }
func (j *fakeJournal) LogBotDeath(*game.Player)            { j.add("botDeath") }
func (j *fakeJournal) LogGameEnd(_ []*game.Player, winner string) {
	j.add("gameEnd:" + winner)
}

// fakeLink answers like a healthy robot and remembers what it was told.
type fakeLink struct {
	device.SimLink

	mu      sync.Mutex
	assigns []string
	setups  []device.SetupOption
	damages []int
}

func (l *fakeLink) TakeDamage(ctx context.Context, r *game.Robot, delta int) (device.Reply, error) {
	l.mu.Lock()
	l.damages = append(l.damages, delta)
	l.mu.Unlock()
	return l.SimLink.TakeDamage(ctx, r, delta)
}

func (l *fakeLink) AssignPlayer(ctx context.Context, r *game.Robot, player int) (device.Reply, error) {
	l.mu.Lock()
	l.assigns = append(l.assigns, r.Name+"@"+r.Addr)
	l.mu.Unlock()
	return l.SimLink.AssignPlayer(ctx, r, player)
}

func (l *fakeLink) SetupInstruction(ctx context.Context, r *game.Robot, opt device.SetupOption, value string) (device.Reply, error) {
	l.mu.Lock()
	l.setups = append(l.setups, opt)
	l.mu.Unlock()
	return l.SimLink.SetupInstruction(ctx, r, opt, value)
}

func (l *fakeLink) Settings(_ context.Context, r *game.Robot) (device.Reply, error) {
	return device.Reply(`settings:{"motors":{"left":{"trim":3}}}`), nil
}

func (l *fakeLink) Assigns() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.assigns...)
}

func (l *fakeLink) Damages() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.damages...)
}

type table struct {
	g       *Game
	rec     *notify.Recorder
	journal *fakeJournal
}

func newTable(t *testing.T, opts Options) *table {
	t.Helper()
	rec := &notify.Recorder{}
	journal := &fakeJournal{}
	if opts.Link == nil {
		opts.Botless = true
	}
	opts.Notifier = notify.New(rec)
	opts.Log = journal
	opts.Logger = log.New(io.Discard)
	opts.Timing = device.Timing{AckTimeout: 100 * time.Millisecond, CompletionTimeout: 100 * time.Millisecond, PollInterval: time.Millisecond}
	if opts.Seed == 0 {
		opts.Seed = 7
	}
	return &table{g: New(opts), rec: rec, journal: journal}
}

type seat struct {
	name   string
	at     core.Coord
	facing core.Orientation
}

// start registers a robot per seat, seats the players and starts the game.
func (tb *table) start(t *testing.T, b *board.Board, seats ...seat) {
	t.Helper()
	tb.startWith(t, b, Table{Players: len(seats)}, seats...)
}

func (tb *table) startWith(t *testing.T, b *board.Board, tbl Table, seats ...seat) {
	t.Helper()
	for _, s := range seats {
		tb.g.RegisterRobot(s.name, "")
	}
	require.NoError(t, tb.g.SetupGame(b, tbl))
	for _, s := range seats {
		n, err := tb.g.AddPlayer()
		require.NoError(t, err)
		require.NoError(t, tb.g.SetupPlayer(n, s.name, s.at, s.facing))
	}
	require.NoError(t, tb.g.StartGame())
}

func (tb *table) moves() []notify.MoveEvent {
	var out []notify.MoveEvent
	for _, evt := range tb.rec.Events() {
		if m, ok := evt.(notify.MoveEvent); ok {
			out = append(out, m)
		}
	}
	return out
}

func (tb *table) has(evt notify.Event) bool {
	for _, e := range tb.rec.Events() {
		if reflect.DeepEqual(e, evt) {
			return true
		}
	}
	return false
}

// program builds five cards of one kind with descending priorities.
func program(first int, dir game.Direction, priority int) []game.Card {
	cards := make([]game.Card, game.Registers)
	for i := range cards {
		cards[i] = game.Card{Number: first + i, Direction: dir, Magnitude: 1, Priority: priority - i}
	}
	return cards
}

// wiggle keeps a robot in place for a round.
func wiggle(first, priority int) []game.Card {
	cards := program(first, game.DirLeft, priority)
	for i := 1; i < len(cards); i += 2 {
		cards[i].Direction = game.DirRight
	}
	return cards
}

func TestSetupErrors(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	b := board.New("flat", 6, 6)

	_, err := g.AddPlayer()
	require.ErrorIs(t, err, ErrNoBoard)
	require.ErrorIs(t, g.SetupGame(nil, Table{Players: 2}), ErrNoBoard)
	require.ErrorIs(t, g.SetupGame(b, Table{Players: 0}), ErrNotEnoughRobots)
	require.ErrorIs(t, g.SetupGame(b, Table{Players: 10}), game.ErrDeckExhausted)

	g.RegisterRobot("Alpha", "10.0.0.1")
	g.RegisterRobot("Bravo", "10.0.0.2")
	require.NoError(t, g.SetupGame(b, Table{Players: 2}))
	require.ElementsMatch(t, []string{"Alpha", "Bravo"}, g.PenRobots())

	p0, err := g.AddPlayer()
	require.NoError(t, err)
	require.ErrorIs(t, g.StartGame(), ErrNotEnoughRobots)

	p1, err := g.AddPlayer()
	require.NoError(t, err)
	_, err = g.AddPlayer()
	require.ErrorIs(t, err, ErrGameFull)

	require.ErrorIs(t, g.AssignRobot(p0, "Charlie"), ErrRobotUnavailable)
	require.ErrorIs(t, g.AssignRobot(7, "Alpha"), ErrUnknownPlayer)
	require.NoError(t, g.SetupPlayer(p0, "Alpha", core.C(1, 1), core.PosX))
	require.ErrorIs(t, g.AssignRobot(p1, "Alpha"), ErrRobotUnavailable)
	require.NoError(t, g.AssignRobot(p1, "Bravo"))
	require.ErrorIs(t, g.PlaceRobot(p1, core.C(1, 1), core.PosX), ErrPositionTaken)
	require.ErrorIs(t, g.PlaceRobot(p1, core.C(6, 1), core.PosX), ErrInvalidPosition)
	require.NoError(t, g.PlaceRobot(p1, core.C(2, 1), core.PosX))

	require.NoError(t, g.StartGame())
	require.ErrorIs(t, g.StartGame(), ErrGameStarted)
	require.ErrorIs(t, g.SetupGame(b, Table{Players: 2}), ErrGameStarted)
	require.Empty(t, g.PenRobots())

	st := g.Status()
	require.True(t, st.Started)
	require.Equal(t, "flat", st.Board)
	require.Equal(t, "Alpha", st.Players[0].Name)
	require.Equal(t, 1, st.Players[0].X)
	require.Equal(t, []string{"gameStart"}, tb.journal.Calls())
	require.True(t, tb.has(notify.DealEvent{Player: notify.AllPlayers}))
}

func TestSubmitMoveValidation(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	b := board.New("flat", 12, 12)

	g.RegisterRobot("Alpha", "")
	require.NoError(t, g.SetupGame(b, Table{Players: 1}))
	_, err := g.AddPlayer()
	require.NoError(t, err)
	require.NoError(t, g.SetupPlayer(0, "Alpha", core.C(6, 6), core.PosX))

	require.ErrorIs(t, g.SubmitMove(0, []int{0, 1, 2, 3, 4}, false), ErrGameNotStarted)
	hand, err := g.DealPlayer(0)
	require.NoError(t, err)
	require.Nil(t, hand)

	require.NoError(t, g.StartGame())
	hand, err = g.DealPlayer(0)
	require.NoError(t, err)
	require.Len(t, hand, game.HandSize)

	again, err := g.DealPlayer(0)
	require.NoError(t, err)
	require.Equal(t, hand, again)

	nums := func(cards []game.Card) []int {
		out := make([]int, len(cards))
		for i, c := range cards {
			out[i] = c.Number
		}
		return out
	}
	held := nums(hand)
	var stranger int
	for n := 0; n < len(game.StandardDeck()); n++ {
		if !g.state.IsDealt(n) {
			stranger = n
			break
		}
	}

	require.ErrorIs(t, g.SubmitMove(3, held[:5], false), ErrUnknownPlayer)
	require.ErrorIs(t, g.SubmitMove(0, held[:4], false), ErrInvalidProgram)
	require.ErrorIs(t, g.SubmitMove(0, []int{held[0], held[0], held[1], held[2], held[3]}, false), ErrInvalidProgram)
	require.ErrorIs(t, g.SubmitMove(0, []int{stranger, held[1], held[2], held[3], held[4]}, false), ErrInvalidProgram)

	require.NoError(t, g.SubmitMove(0, held[:5], false))
	st := g.Status()
	require.False(t, st.RoundRunning)
	require.False(t, st.Players[0].Submitted)
	require.NotEmpty(t, tb.moves())
	require.Contains(t, tb.journal.Calls(), "roundStart")
}

func TestRoundMovesInPriorityOrder(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	tb.start(t, board.New("flat", 10, 10),
		seat{"Alpha", core.C(1, 1), core.PosX},
		seat{"Bravo", core.C(1, 5), core.PosX},
	)

	require.NoError(t, g.SubmitRecorded(0, program(0, game.DirForward, 300), false))
	require.True(t, g.Status().Players[0].Submitted)
	require.Empty(t, tb.moves())

	require.NoError(t, g.SubmitRecorded(1, program(10, game.DirForward, 600), false))

	st := g.Status()
	require.False(t, st.RoundRunning)
	require.Equal(t, 6, st.Players[0].X)
	require.Equal(t, 6, st.Players[1].X)
	require.Equal(t, 5, st.Players[1].Y)

	moves := tb.moves()
	require.Len(t, moves, 2*game.Registers)
	for reg := 0; reg < game.Registers; reg++ {
		require.Equal(t, "Bravo", moves[2*reg].Robot)
		require.Equal(t, "Alpha", moves[2*reg+1].Robot)
		require.Equal(t, reg+1, moves[2*reg].Register)
	}

	events := tb.rec.Events()
	require.Equal(t, notify.DealEvent{Player: notify.AllPlayers}, events[len(events)-1])
	require.ErrorIs(t, g.SubmitRecorded(0, program(0, game.DirForward, 300)[:3], false), ErrInvalidProgram)
}

func TestFlagWin(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	b := board.New("flags", 10, 10)
	b.Flags = []core.Coord{core.C(3, 1)}
	tb.start(t, b,
		seat{"Alpha", core.C(1, 1), core.PosX},
		seat{"Bravo", core.C(1, 5), core.PosX},
	)

	require.NoError(t, g.SubmitRecorded(0, program(0, game.DirForward, 300), false))
	require.NoError(t, g.SubmitRecorded(1, program(10, game.DirForward, 600), false))

	st := g.Status()
	require.Equal(t, "Alpha", st.Winner)
	require.Equal(t, 1, st.Players[0].Flags)
	require.Equal(t, 1, st.Players[0].TotalFlags)
	require.Equal(t, 3, st.Players[0].X)
	require.Len(t, tb.moves(), 4)
	require.Contains(t, tb.rec.Messages(), "Alpha has won!")
	require.Contains(t, tb.journal.Calls(), "gameEnd:Alpha")

	hand, err := g.DealPlayer(1)
	require.NoError(t, err)
	require.Empty(t, hand)

	require.NoError(t, g.SubmitRecorded(1, program(10, game.DirForward, 600), false))
	require.Len(t, tb.moves(), 4)
}

func TestPitDeathAndReentry(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	b := board.New("pit", 10, 10)
	b.AddPit(core.C(3, 1))
	tb.start(t, b, seat{"Alpha", core.C(1, 1), core.PosX})

	require.NoError(t, g.SubmitRecorded(0, program(0, game.DirForward, 300), false))

	st := g.Status()
	require.True(t, st.Entering)
	require.True(t, st.Players[0].Reenter)
	require.Equal(t, game.StartingLives-1, st.Players[0].Lives)
	require.Equal(t, -1, st.Players[0].X)
	require.Equal(t, 1, st.Players[0].LastX)
	require.Len(t, tb.moves(), 2)
	require.Contains(t, tb.journal.Calls(), "botDeath")
	require.Contains(t, tb.rec.Messages(), "Dead robots re-entering floor, please be patient.")

	hand, err := g.DealPlayer(0)
	require.NoError(t, err)
	require.Empty(t, hand)

	require.ErrorIs(t, g.EnterPlayers([]Entry{{Player: 0, At: core.C(12, 1), Facing: core.PosX}}), ErrInvalidPosition)
	require.NoError(t, g.EnterPlayers([]Entry{{Player: 0, At: core.C(1, 1), Facing: core.PosX}}))

	st = g.Status()
	require.False(t, st.Entering)
	require.False(t, st.Players[0].Reenter)
	require.Equal(t, 0, st.Players[0].Damage)
	require.Equal(t, 1, st.Players[0].X)
	require.Contains(t, tb.journal.Calls(), "playerEntering")

	hand, err = g.DealPlayer(0)
	require.NoError(t, err)
	require.Len(t, hand, game.HandSize)
}

func TestLastRobotStandingWins(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	b := board.New("pit", 10, 10)
	b.AddPit(core.C(2, 5))
	tb.start(t, b,
		seat{"Alpha", core.C(1, 1), core.PosX},
		seat{"Bravo", core.C(1, 5), core.PosX},
	)

	require.NoError(t, g.UpdatePlayer(1, PlayerUpdate{Lives: 1, At: core.C(1, 5), Facing: core.PosX}))
	require.NoError(t, g.SubmitRecorded(0, wiggle(0, 300), false))
	require.NoError(t, g.SubmitRecorded(1, program(10, game.DirForward, 600), false))

	st := g.Status()
	require.Equal(t, "Alpha", st.Winner)
	require.Equal(t, 0, st.Players[1].Lives)
	require.Contains(t, tb.rec.Messages(), "Alpha has won!")
	require.Equal(t, []string{"gameStart", "playerUpdate", "roundStart", "botDeath", "gameEnd:Alpha"}, tb.journal.Calls())
}

func TestLaserDamageLocksCards(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	b := board.New("laser", 8, 8)
	b.Lasers = []board.Laser{{Start: core.C(0, 1), Dir: core.PosX, Strength: 1}}
	tb.start(t, b, seat{"Alpha", core.C(2, 1), core.PosY})

	prog := wiggle(20, 300)
	require.NoError(t, g.SubmitRecorded(0, prog, false))

	p := g.state.Players[0]
	require.Equal(t, 5, p.Robot.Damage)
	require.Equal(t, []int{prog[4].Number}, p.Locked)
	require.True(t, g.state.IsLocked(prog[4].Number))
	require.Equal(t, 5, g.Status().Players[0].Damage)
	require.True(t, tb.has(notify.HealthEvent{Damage: []int{5}}))

	hand, err := g.DealPlayer(0)
	require.NoError(t, err)
	require.Len(t, hand, game.HandSize-5)
}

func TestLaserSendsDamageTaken(t *testing.T) {
	link := &fakeLink{}
	tb := newTable(t, Options{Link: link})
	b := board.New("laser", 8, 8)
	b.Lasers = []board.Laser{{Start: core.C(0, 1), Dir: core.PosX, Strength: 1}}
	tb.start(t, b, seat{"Alpha", core.C(2, 1), core.PosY})

	require.NoError(t, tb.g.SubmitRecorded(0, wiggle(20, 300), false))
	require.Equal(t, 5, tb.g.Status().Players[0].Damage)
	require.Equal(t, []int{1, 1, 1, 1, 1}, link.Damages())
}

func TestWrenchRepairs(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	b := board.New("shop", 8, 8)
	b.Wrenches = []core.Coord{core.C(2, 2)}
	tb.start(t, b, seat{"Alpha", core.C(2, 2), core.PosX})

	require.NoError(t, g.UpdatePlayer(0, PlayerUpdate{Lives: 3, Damage: 3, At: core.C(2, 2), Facing: core.PosX}))
	require.NoError(t, g.SubmitRecorded(0, wiggle(0, 300), false))
	require.Equal(t, 0, g.Status().Players[0].Damage)
}

func TestShutdown(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	tb.start(t, board.New("flat", 10, 10),
		seat{"Alpha", core.C(1, 1), core.PosX},
		seat{"Bravo", core.C(1, 5), core.PosX},
	)
	require.NoError(t, g.UpdatePlayer(0, PlayerUpdate{Lives: 3, Damage: 2, At: core.C(1, 1), Facing: core.PosX}))

	require.NoError(t, g.SubmitRecorded(0, program(0, game.DirForward, 300), true))
	require.NoError(t, g.SubmitRecorded(1, program(10, game.DirForward, 600), false))

	st := g.Status()
	require.True(t, st.Players[0].Shutdown)
	require.Equal(t, 0, st.Players[0].Damage)
	hand, err := g.DealPlayer(0)
	require.NoError(t, err)
	require.Empty(t, hand)

	// The shut down player does not hold up the round and does not move.
	require.NoError(t, g.SubmitRecorded(1, wiggle(10, 600), false))
	st = g.Status()
	require.False(t, st.Players[0].Shutdown)
	require.Equal(t, 6, st.Players[0].X)
}

func TestAllShutdownRunsBoardOnly(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	b := board.New("belt", 10, 10)
	b.Conveyors = []board.Conveyor{
		{At: core.C(6, 1), Dir: core.PosY},
		{At: core.C(6, 2), Dir: core.PosY},
	}
	tb.start(t, b, seat{"Alpha", core.C(1, 1), core.PosX})

	require.NoError(t, g.SubmitRecorded(0, program(0, game.DirForward, 300), true))

	st := g.Status()
	require.False(t, st.Players[0].Shutdown)
	require.Equal(t, 6, st.Players[0].X)
	require.Equal(t, 3, st.Players[0].Y)
	require.True(t, tb.has(notify.ClearHandsEvent{}))
	require.Contains(t, tb.rec.Messages(), "All active players are shutdown, next round starting now.")
}

func TestPlayerTimer(t *testing.T) {
	tb := newTable(t, Options{PlayerTimer: true})
	g := tb.g
	tb.start(t, board.New("flat", 10, 10),
		seat{"Alpha", core.C(1, 1), core.PosX},
		seat{"Bravo", core.C(1, 5), core.PosX},
	)

	require.NoError(t, g.SubmitRecorded(0, wiggle(0, 300), false))
	require.True(t, tb.has(notify.TimerEvent{}))
	require.Empty(t, tb.moves())

	require.NoError(t, g.SubmitRecorded(1, wiggle(10, 600), false))
	require.Len(t, tb.moves(), 2*game.Registers)
}

func TestResetGame(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	tb.start(t, board.New("flat", 10, 10),
		seat{"Alpha", core.C(1, 1), core.PosX},
		seat{"Bravo", core.C(1, 5), core.PosX},
	)
	require.NoError(t, g.SubmitRecorded(0, program(0, game.DirForward, 300), false))

	g.ResetGame(false)
	first := g.Status()
	g.ResetGame(false)
	require.Equal(t, first, g.Status())

	require.False(t, first.Started)
	require.True(t, first.Ready)
	require.Equal(t, -1, first.Players[0].X)
	require.Equal(t, game.StartingLives, first.Players[0].Lives)
	require.Equal(t, []string{"gameStart", "gameEnd:"}, tb.journal.Calls())
	require.True(t, tb.has(notify.ResetEvent{All: false}))

	g.ResetGame(true)
	st := g.Status()
	require.False(t, st.Ready)
	require.Empty(t, st.Players)
	require.ElementsMatch(t, []string{"Alpha", "Bravo"}, st.Pen)
	require.ElementsMatch(t, []string{"Alpha", "Bravo"}, g.PenRobots())
}

func TestUpdatePlayerSwapsRobot(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	g.RegisterRobot("Charlie", "")
	tb.start(t, board.New("flat", 10, 10), seat{"Alpha", core.C(1, 1), core.PosX})

	require.ErrorIs(t, g.UpdatePlayer(0, PlayerUpdate{Lives: 3, Robot: "Delta"}), ErrRobotUnavailable)

	require.NoError(t, g.UpdatePlayer(0, PlayerUpdate{
		Lives: 2, Damage: 3, At: core.C(4, 4), Facing: core.NegX, Flags: 1, Robot: "Charlie",
	}))

	st := g.Status()
	ps := st.Players[0]
	require.Equal(t, "Charlie", ps.Name)
	require.Equal(t, 2, ps.Lives)
	require.Equal(t, 3, ps.Damage)
	require.Equal(t, 4, ps.X)
	require.Equal(t, int(core.NegX), ps.Direction)
	require.Equal(t, 1, ps.Flags)
	require.Equal(t, 1, ps.LastX)
	require.Equal(t, []string{"Alpha"}, st.Pen)
	require.Equal(t, 0, g.state.Players[0].Robot.Number)
	require.True(t, tb.has(notify.HealthEvent{Damage: []int{3}}))
}

func TestUpdatePlayerChecksPosition(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	tb.start(t, board.New("flat", 10, 10),
		seat{"Alpha", core.C(2, 2), core.PosX},
		seat{"Bravo", core.C(4, 4), core.PosX},
	)

	tests := []struct {
		name string
		at   core.Coord
		want error
	}{
		{"occupied", core.C(4, 4), ErrPositionTaken},
		{"off the board", core.C(30, -7), ErrInvalidPosition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.UpdatePlayer(0, PlayerUpdate{Lives: 1, Damage: 4, At: tt.at, Facing: core.NegY, Flags: 1})
			require.ErrorIs(t, err, tt.want)

			ps := g.Status().Players[0]
			require.Equal(t, 2, ps.X)
			require.Equal(t, 2, ps.Y)
			require.Equal(t, 3, ps.Lives)
			require.Zero(t, ps.Damage)
			require.Zero(t, ps.Flags)
		})
	}

	require.NoError(t, g.UpdatePlayer(0, PlayerUpdate{Lives: 3, At: core.C(2, 2), Facing: core.NegY}))
	require.Equal(t, int(core.NegY), g.Status().Players[0].Direction)
}

func TestUpdatePlayerLethalDamage(t *testing.T) {
	tb := newTable(t, Options{})
	g := tb.g
	tb.start(t, board.New("flat", 10, 10),
		seat{"Alpha", core.C(2, 2), core.PosX},
		seat{"Bravo", core.C(1, 2), core.PosX},
	)

	require.NoError(t, g.UpdatePlayer(0, PlayerUpdate{
		Lives: 3, Damage: game.MaxDamage, At: core.C(3, 2), Facing: core.PosX,
	}))

	p := g.state.Players[0]
	require.True(t, p.Dead)
	require.Equal(t, 2, p.Lives)
	require.Equal(t, core.OffBoard, p.Robot.Pos)
	require.Equal(t, []string{"gameStart", "botDeath", "playerUpdate"}, tb.journal.Calls())

	// Bravo drives through the cell the dead robot was sent to.
	require.NoError(t, g.SubmitRecorded(1, program(0, game.DirForward, 300), false))
	require.Equal(t, core.OffBoard, p.Robot.Pos)
	require.Equal(t, 6, g.Status().Players[1].X)
}

func TestRobotCallbacks(t *testing.T) {
	link := &fakeLink{}
	tb := newTable(t, Options{Link: link})
	g := tb.g
	tb.start(t, board.New("flat", 10, 10), seat{"Alpha", core.C(1, 1), core.PosX})
	require.Equal(t, []string{"Alpha@"}, link.Assigns())

	g.state.Players[0].Robot.Moving.Reset()
	g.RegisterRobot("Alpha", "10.0.0.9")
	require.Eventually(t, func() bool {
		return len(link.Assigns()) == 2
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "Alpha@10.0.0.9", link.Assigns()[1])

	// The resent assignment must not complete the robot's moves.
	select {
	case <-g.state.Players[0].Robot.Moving.C():
		t.Fatal("assignment fired the robot's completion signal")
	default:
	}

	require.ErrorIs(t, g.RobotDone(4), ErrUnknownRobot)
	require.NoError(t, g.RobotDone(0))

	require.NoError(t, g.SubmitRecorded(0, program(0, game.DirForward, 300), false))
	require.Equal(t, 6, g.Status().Players[0].X)
}

func TestRoundClosesBeforeNextSubmission(t *testing.T) {
	tb := newTable(t, Options{Pacing: Pacing{RoundEnd: 100 * time.Millisecond}})
	g := tb.g
	tb.start(t, board.New("flat", 10, 10),
		seat{"Alpha", core.C(1, 1), core.PosX},
		seat{"Bravo", core.C(1, 5), core.PosX},
	)

	require.NoError(t, g.SubmitRecorded(0, wiggle(0, 300), false))
	done := make(chan error, 1)
	go func() { done <- g.SubmitRecorded(1, wiggle(10, 600), false) }()

	require.Eventually(t, func() bool {
		return g.Status().RoundRunning
	}, time.Second, time.Millisecond)

	require.NoError(t, g.SubmitRecorded(0, wiggle(20, 300), false))
	require.False(t, g.Status().RoundRunning)
	require.NoError(t, <-done)
	require.Equal(t, 20, g.state.Players[0].Program[0].Number)
	require.Nil(t, g.state.Players[1].Program)
}

func TestTuning(t *testing.T) {
	_, err := newTable(t, Options{}).g.EnterTuning()
	require.ErrorIs(t, err, ErrBotless)

	link := &fakeLink{}
	g := newTable(t, Options{Link: link}).g
	g.RegisterRobot("Alpha", "10.0.0.1")
	g.RegisterRobot("Bravo", "10.0.0.2")

	require.ErrorIs(t, g.EnterSetup(0), ErrNotTuning)

	bench, err := g.EnterTuning()
	require.NoError(t, err)
	require.Equal(t, []TuningRobot{{0, "Alpha"}, {1, "Bravo"}}, bench)
	require.True(t, g.Status().Tuning)
	require.ErrorIs(t, g.SetupGame(board.New("flat", 4, 4), Table{Players: 1}), ErrRobotUnavailable)

	require.NoError(t, g.EnterSetup(1))
	require.ErrorIs(t, g.EnterSetup(5), ErrUnknownRobot)
	require.NoError(t, g.ConfigureRobot(1, device.SetupSave, "", "Zulu"))

	settings, err := g.RobotSettings(0)
	require.NoError(t, err)
	require.Contains(t, settings, "motors")

	again, err := g.EnterTuning()
	require.NoError(t, err)
	require.Equal(t, []TuningRobot{{0, "Alpha"}, {1, "Zulu"}}, again)

	g.FinishTuning()
	st := g.Status()
	require.False(t, st.Tuning)
	require.ElementsMatch(t, []string{"Alpha", "Zulu"}, st.Pen)
	require.Equal(t, []device.SetupOption{device.SetupEnter, device.SetupSave}, link.setups)
}

func TestEdgeControl(t *testing.T) {
	for _, edge := range []bool{false, true} {
		tb := newTable(t, Options{})
		b := board.New("edge", 6, 6)
		tb.startWith(t, b, Table{Players: 2, EdgeControl: edge},
			seat{"Alpha", core.C(4, 1), core.PosX},
			seat{"Bravo", core.C(1, 4), core.PosX},
		)

		require.NoError(t, tb.g.SubmitRecorded(0, program(0, game.DirForward, 600), false))
		require.NoError(t, tb.g.SubmitRecorded(1, wiggle(10, 300), false))

		st := tb.g.Status()
		require.Equal(t, game.StartingLives-1, st.Players[0].Lives)
		require.True(t, st.Players[0].Reenter)
		require.Equal(t, edge, slices.Contains(tb.rec.Messages(), "Alpha is off the board and has died."))
	}
}
