// Package admin holds the cardctl commands: operator tasks that talk to
// the database directly instead of going through the API.
package admin

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kutbudev/cardboard/internal/config"
	"github.com/kutbudev/cardboard/internal/logging"
	"github.com/kutbudev/cardboard/internal/repository"
)

type app struct {
	cfgPath string
	cfg     *config.Config
	log     zerolog.Logger
	db      *repository.Database
}

// NewRootCommand builds the cardctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "cardctl",
		Short: "Administer a cardboard server",
		Long: `cardctl manages the cardboard database: it creates tables, adds
users and issues tokens without going through the HTTP API.

Examples:
  cardctl migrate
  cardctl createsuperuser --email admin@example.com
  cardctl createuser --email ada@example.com --name Ada
  cardctl token ada@example.com`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "path to a config file (default: ./config.yaml)")

	cmd.AddCommand(newMigrateCommand(a))
	cmd.AddCommand(newCreateUserCommand(a, false))
	cmd.AddCommand(newCreateUserCommand(a, true))
	cmd.AddCommand(newSetPasswordCommand(a))
	cmd.AddCommand(newTokenCommand(a))

	return cmd
}

func (a *app) open() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cfg.Log, os.Stderr)

	db, err := repository.Open(cfg.Database, a.log)
	if err != nil {
		return err
	}
	a.db = db
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.db.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tables are up to date.")
			return nil
		},
	}
}
