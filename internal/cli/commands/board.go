package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/kutbudev/cardboard/internal/ui/board"
)

// NewBoardCommand opens the interactive kanban board.
func NewBoardCommand() *cli.Command {
	return &cli.Command{
		Name:    "board",
		Aliases: []string{"kanban"},
		Usage:   "Show your cards as an interactive kanban board",
		Action: func(c *cli.Context) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			p := tea.NewProgram(board.New(client), tea.WithAltScreen(), tea.WithContext(c.Context))
			_, err = p.Run()
			return err
		},
	}
}
