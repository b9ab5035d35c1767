package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/cardboard/internal/config"
	"github.com/kutbudev/cardboard/internal/logging"
	"github.com/kutbudev/cardboard/internal/repository"
	"github.com/kutbudev/cardboard/internal/server"
)

// NewServeCommand runs the HTTP API.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the cards API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a config file (default: ./config.yaml)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "override server.host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "override server.port",
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "create or update tables before serving",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("host") {
				cfg.Server.Host = c.String("host")
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log := logging.New(cfg.Log, os.Stderr)

			db, err := repository.Open(cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if c.Bool("migrate") {
				if err := db.Migrate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, db, log).Run(ctx)
		},
	}
}
