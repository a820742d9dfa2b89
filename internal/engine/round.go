package engine

import (
	"slices"

	"github.com/ruckusbots/ruckus/internal/core"
	"github.com/ruckusbots/ruckus/internal/game"
	"github.com/ruckusbots/ruckus/internal/notify"
)

// SubmitMove stores a player's program for the round: five card numbers
// taken from the player's hand or locked cards. The first submission of a
// round wins. When it completes the table the round runs on the calling
// goroutine and SubmitMove returns once it is over.
func (g *Game) SubmitMove(player int, cards []int, shutdown bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, err := g.player(player)
	if err == nil {
		err = g.checkProgram(p, cards)
	}
	if err != nil {
		return err
	}
	if g.submit(p, g.state.CardsFromNumbers(cards), shutdown) {
		g.afterRound()
	}
	return nil
}

// SubmitRecorded submits a logged program without checking it against
// the player's hand.
func (g *Game) SubmitRecorded(player int, program []game.Card, shutdown bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, err := g.player(player)
	if err == nil && !g.state.Started {
		err = ErrGameNotStarted
	}
	if err == nil && len(program) != game.Registers {
		err = ErrInvalidProgram
	}
	if err != nil {
		return err
	}
	if g.submit(p, slices.Clone(program), shutdown) {
		g.afterRound()
	}
	return nil
}

// CheckProgram reports whether SubmitMove would accept cards from player.
func (g *Game) CheckProgram(player int, cards []int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, err := g.player(player)
	if err != nil {
		return err
	}
	return g.checkProgram(p, cards)
}

func (g *Game) checkProgram(p *game.Player, cards []int) error {
	if !g.state.Started {
		return ErrGameNotStarted
	}
	if len(cards) != game.Registers {
		return ErrInvalidProgram
	}
	seen := make(map[int]bool, len(cards))
	for _, n := range cards {
		held := slices.ContainsFunc(p.Cards, func(c game.Card) bool { return c.Number == n })
		if seen[n] || (!held && !slices.Contains(p.Locked, n)) {
			return ErrInvalidProgram
		}
		seen[n] = true
	}
	return nil
}

// submit records the program and runs the round when every player is
// done. It reports whether a round ran. Called with the game lock held.
func (g *Game) submit(p *game.Player, program []game.Card, shutdown bool) bool {
	if g.state.Winner != nil {
		return false
	}
	if p.Program == nil {
		p.Program = program
		if shutdown {
			p.WillShutdown = true
		}
	}

	if !g.timerStarted && g.checkTimer() {
		return false
	}
	if g.finishedPlayers() < g.state.NumPlayers {
		return false
	}

	g.timerStarted = false
	g.state.RoundRunning = true
	g.refreshStatus()
	g.gameLog().LogRoundStart(g.state.Players)
	g.logger.Info("round started", "players", g.state.NumPlayers)

	g.executeRegisters(false)

	if g.state.Winner == nil {
		g.nextRound()
	} else {
		g.endGame()
	}
	return true
}

// afterRound lets the last moves sink in, rechecks the timer and opens
// the table for the next round. Called with the game lock held so no
// program lands before the round is closed.
func (g *Game) afterRound() {
	g.pause(g.pacing.RoundEnd)
	g.checkTimer()
	g.state.RoundRunning = false
	g.refreshStatus()
}

func (g *Game) finishedPlayers() int {
	n := 0
	for _, p := range g.state.Players {
		if p.Finished() {
			n++
		}
	}
	return n
}

// checkTimer starts the countdown when one living player is left to
// submit. It reports whether the timer started.
func (g *Game) checkTimer() bool {
	living := 0
	for _, p := range g.state.Players {
		if !p.Dead {
			living++
		}
	}
	if g.playerTimer && living > 1 && g.finishedPlayers() == g.state.NumPlayers-1 {
		g.timerStarted = true
		g.notifier.StartTimer()
		return true
	}
	return false
}

// executeRegisters plays the five registers of a round. With effectsOnly
// set, which happens when every remaining player is shut down, board
// effects still run for the robots standing on the floor.
func (g *Game) executeRegisters(effectsOnly bool) {
	f := floor{g: g}
	for reg := 0; reg < game.Registers; reg++ {
		if !g.anyRobotInPlay(effectsOnly) {
			break
		}

		g.executePlayerMoves(reg)
		g.updateHealth()
		g.pause(g.pacing.Phase)

		g.effects.MoveConveyors(true)
		g.updateHealth()
		g.pause(g.pacing.Phase)

		g.effects.MoveConveyors(false)
		g.updateHealth()
		g.pause(g.pacing.Phase)

		g.effects.ExecuteTurnTables()
		g.pause(g.pacing.Phase)

		hit := g.effects.FireLasers()
		g.pause(g.pacing.LaserFire)
		if hit {
			g.updateHealth()
			g.pause(g.pacing.LaserHit)
		}

		if healed := g.effects.Wrenches(); len(healed) > 0 {
			for _, r := range healed {
				g.setDamage(r, r.Damage-1)
				if r.Player != nil && !r.Player.Shutdown {
					r.LastLocation = r.Pos
				}
			}
			g.updateHealth()
			g.pause(g.pacing.Wrench)
		}

		winner := g.touchFlags(f)
		if winner == nil && g.state.NumPlayers > 1 {
			var alive []*game.Player
			for _, p := range g.state.Players {
				if p.Lives > 0 {
					alive = append(alive, p)
				}
			}
			if len(alive) == 1 {
				winner = alive[0].Robot
			}
		}
		if winner != nil {
			g.notifier.ShowMessage(winner.Name+" has won!", "winner")
			g.state.Winner = winner
			g.logger.Info("game won", "robot", winner.Name, "register", reg+1)
			g.pause(g.pacing.Winner)
			g.processOrder(game.Order{Robot: winner, Move: core.Right, Magnitude: 4})
			g.refreshStatus()
			return
		}
	}
	g.refreshStatus()
}

func (g *Game) anyRobotInPlay(effectsOnly bool) bool {
	for _, r := range g.state.Robots {
		p := r.Player
		if p == nil || p.Dead {
			continue
		}
		if effectsOnly || !p.Shutdown {
			return true
		}
	}
	return false
}

// touchFlags credits robots standing on their next flag and returns a
// robot holding every flag, if any.
func (g *Game) touchFlags(f floor) *game.Robot {
	if len(g.board.Flags) == 0 {
		return nil
	}

	touched := false
	for _, t := range g.effects.FlagsTouched() {
		if t.Robot.Flags == t.Flag {
			t.Robot.Flags++
			t.Robot.LastLocation = t.Robot.Pos
			touched = true
		}
	}
	if touched {
		g.notifier.ShowMessage("Touching flags", "flagTouch")
		g.pause(g.pacing.Flag)
	}

	for _, r := range f.Present() {
		if r.Flags == len(g.board.Flags) {
			return r
		}
	}
	return nil
}

// executePlayerMoves plays one register: every active player's card, in
// descending priority, ties kept in player order.
func (g *Game) executePlayerMoves(reg int) {
	var register []game.Move
	for _, p := range g.state.Players {
		if p.Active() && p.Robot != nil && len(p.Program) > reg {
			register = append(register, game.Move{Card: p.Program[reg], Robot: p.Robot})
		}
	}
	slices.SortStableFunc(register, func(a, b game.Move) int {
		return b.Card.Priority - a.Card.Priority
	})

	if g.showRegister && len(register) > 0 {
		g.notifier.DisplayRegister(register)
		g.pause(g.pacing.Register)
	}

	for _, m := range register {
		if p := m.Robot.Player; p != nil && !p.Dead {
			g.notifier.DisplayMove(m, reg)
			rv := g.resolver()
			rv.Calculate(m)
			g.carryOut(rv)
		}
		if g.botless {
			g.pause(g.pacing.BotlessMove)
		}
	}
}

// processOrder dispatches one order and reports whether the robot
// acknowledged it. With edge control a robot leaving the board stops one
// cell short so the game master can pick it up.
func (g *Game) processOrder(o game.Order) bool {
	offBoard := g.edgeControl && o.OffBoard
	if offBoard && o.Magnitude > 0 {
		o.Magnitude--
	}

	out := g.dispatcher.Dispatch(g.ctx, o)
	g.refreshStatus()

	if offBoard {
		g.notifier.ShowMessage(o.Robot.Name+" is off the board and has died.", "")
		g.pause(g.pacing.OffBoard)
	}
	return out.Acked
}

// nextRound clears the table for another round. Pending shutdowns take
// effect and heal the robot; last round's shut down robots come back.
func (g *Game) nextRound() {
	for _, p := range g.state.Players {
		if p.WillShutdown && !p.Dead {
			p.Shutdown = true
			if p.Robot != nil {
				g.setDamage(p.Robot, 0)
			}
			p.WillShutdown = false
		} else {
			p.Shutdown = false
		}
	}
	g.state.ClearRound()
	g.refreshStatus()

	if g.state.Winner != nil {
		return
	}

	reentering := slices.ContainsFunc(g.state.Players, func(p *game.Player) bool {
		return p.Dead && p.Lives > 0
	})
	if reentering {
		g.state.PlayersNeedEntering = true
		g.notifier.ShowMessage("Dead robots re-entering floor, please be patient.", "entering")
		g.refreshStatus()
		return
	}

	g.notifier.ShowMessage("", "")
	allOut := !slices.ContainsFunc(g.state.Players, func(p *game.Player) bool { return p.Lives > 0 })
	allIdle := !slices.ContainsFunc(g.state.Players, func(p *game.Player) bool { return !p.Shutdown && p.Lives > 0 })
	if !allOut && allIdle {
		g.notifier.ClearHands()
		g.notifier.ShowMessage("All active players are shutdown, next round starting now.", "")
		g.pause(g.pacing.AllShutdown)

		g.executeRegisters(true)
		if g.state.Winner == nil {
			g.nextRound()
		} else {
			g.endGame()
		}
		return
	}
	g.notifier.DealPlayers(notify.AllPlayers)
}

func (g *Game) endGame() {
	g.gameLog().LogGameEnd(g.state.Players, g.winnerName())
	g.logger.Info("game over", "winner", g.winnerName())
}
