package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ruckusbots/ruckus/internal/storage"
)

var flagLimit int

var gamesCmd = &cobra.Command{
	Use:   "games [id]",
	Short: "Show the game log",
	Long: `Without an argument, lists the most recent logged games. With a game
ID, lists the events logged for that game.

Examples:
  ruckus games
  ruckus games --limit 50
  ruckus games 4b6f0c1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGames,
}

func init() {
	gamesCmd.Flags().IntVar(&flagLimit, "limit", 20, "Number of games to list")
}

const timeLayout = "2006-01-02 15:04"

func runGames(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(cfg.Game.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		events, err := store.Events(args[0])
		if err != nil {
			return err
		}
		return renderTable(out, []string{"SEQ", "EVENT", "PLAYERS", "AT"}, eventRows(events))
	}

	games, err := store.Games(flagLimit)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Fprintln(out, "No games logged yet.")
		return nil
	}
	return renderTable(out, []string{"ID", "BOARD", "PLAYERS", "WINNER", "STARTED", "ENDED"}, gameRows(games))
}

func gameRows(games []storage.GameRecord) [][]string {
	rows := make([][]string, len(games))
	for i, g := range games {
		ended := "-"
		if g.Finished() {
			ended = g.EndedAt.Local().Format(timeLayout)
		}
		winner := g.Winner
		if winner == "" {
			winner = "-"
		}
		rows[i] = []string{
			g.ID,
			g.Board,
			strconv.Itoa(g.Players),
			winner,
			g.StartedAt.Local().Format(timeLayout),
			ended,
		}
	}
	return rows
}

func eventRows(events []storage.EventRecord) [][]string {
	rows := make([][]string, len(events))
	for i, e := range events {
		robots := make([]string, len(e.Players))
		for j, p := range e.Players {
			robots[j] = fmt.Sprintf("%s(%d,%d)", p.Robot, p.X, p.Y)
		}
		rows[i] = []string{
			strconv.Itoa(e.Seq),
			string(e.Kind),
			strings.Join(robots, " "),
			e.CreatedAt.Local().Format(timeLayout),
		}
	}
	return rows
}
