package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ruckusbots/ruckus/internal/board"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List available boards",
	Long: `Shows every board found under the configured boards directory, with
its size and what is on it.`,
	Args: cobra.NoArgs,
	RunE: runBoards,
}

func runBoards(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	boards, err := board.NewLoader(cfg.Game.BoardsDir).LoadAll()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(boards) == 0 {
		fmt.Fprintf(out, "No boards in %s.\n", cfg.Game.BoardsDir)
		return nil
	}
	return renderTable(out, []string{"NAME", "SIZE", "FLAGS", "WALLS", "PITS", "CONVEYORS", "LASERS", "FILE"}, boardRows(boards))
}

func boardRows(boards []*board.Board) [][]string {
	rows := make([][]string, len(boards))
	for i, b := range boards {
		rows[i] = []string{
			b.Name,
			fmt.Sprintf("%dx%d", b.Width, b.Height),
			strconv.Itoa(len(b.Flags)),
			strconv.Itoa(len(b.Walls)),
			strconv.Itoa(len(b.Pits)),
			strconv.Itoa(len(b.Conveyors)),
			strconv.Itoa(len(b.Lasers)),
			b.FilePath,
		}
	}
	return rows
}
