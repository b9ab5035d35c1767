package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/cardboard/internal/cli/commands"
)

// Version will be set during build with ldflags
var Version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "cardboard",
		Usage:   "Kanban cards from the terminal",
		Version: Version,
		Commands: []*cli.Command{
			// Server
			commands.NewServeCommand(),

			// Account
			commands.NewLoginCommand(),
			commands.NewLogoutCommand(),
			commands.NewWhoamiCommand(),

			// Cards
			commands.NewCardCommand(),
			commands.NewTaxonomyCommand(),
			commands.NewBoardCommand(),

			// Meta
			commands.NewMcpCommand(Version),
			commands.NewConfigCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
