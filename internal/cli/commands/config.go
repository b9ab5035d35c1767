package commands

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/cardboard/internal/config"
)

// NewConfigCommand shows and edits the CLI configuration.
func NewConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change CLI settings",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the current settings",
				Action: func(c *cli.Context) error {
					cfg, err := config.LoadClientConfig()
					if err != nil {
						return err
					}
					path, err := config.GetClientConfigPath()
					if err != nil {
						return err
					}

					loggedIn := "no"
					if _, err := config.LoadCredentials(); err == nil {
						loggedIn = "yes"
					} else if !errors.Is(err, config.ErrNoCredentials) {
						return err
					}

					fmt.Println(headerStyle.Render("cardboard settings"))
					fmt.Printf("  File:      %s\n", path)
					fmt.Printf("  API URL:   %s\n", cfg.BaseURL)
					if cfg.Email != "" {
						fmt.Printf("  Email:     %s\n", cfg.Email)
					}
					fmt.Printf("  Logged in: %s\n", loggedIn)
					return nil
				},
			},
			{
				Name:      "set-url",
				Usage:     "Point the CLI at another API",
				ArgsUsage: "<url>",
				Action: func(c *cli.Context) error {
					raw := strings.TrimRight(c.Args().First(), "/")
					u, err := url.Parse(raw)
					if err != nil || u.Scheme == "" || u.Host == "" {
						return fmt.Errorf("invalid API URL %q", c.Args().First())
					}
					cfg, err := config.LoadClientConfig()
					if err != nil {
						return err
					}
					cfg.BaseURL = raw
					if err := config.SaveClientConfig(cfg); err != nil {
						return err
					}
					success("API URL set to %s", raw)
					return nil
				},
			},
		},
	}
}
