package commands

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/atotto/clipboard"
	"github.com/urfave/cli/v2"

	"github.com/kutbudev/cardboard/internal/api"
	"github.com/kutbudev/cardboard/internal/config"
)

// NewLoginCommand obtains a token pair and stores it in the keyring.
func NewLoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store your tokens",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "account email (prompted when missing)",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "API base URL, saved for later commands",
			},
			&cli.BoolFlag{
				Name:  "copy",
				Usage: "copy the access token to the clipboard",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadClientConfig()
			if err != nil {
				return err
			}
			if c.IsSet("url") {
				cfg.BaseURL = c.String("url")
			}

			email := c.String("email")
			if email == "" {
				if err := survey.AskOne(&survey.Input{Message: "Email:", Default: cfg.Email}, &email, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
			}

			var password string
			if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)); err != nil {
				return err
			}

			client := api.New(cfg.BaseURL, config.Credentials{})
			creds, err := client.Login(c.Context, email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := config.SaveCredentials(creds); err != nil {
				return fmt.Errorf("could not save credentials: %w", err)
			}
			cfg.Email = email
			if err := config.SaveClientConfig(cfg); err != nil {
				return fmt.Errorf("could not save config: %w", err)
			}

			success("Logged in as %s", email)
			if c.Bool("copy") {
				if err := clipboard.WriteAll(creds.Access); err != nil {
					return fmt.Errorf("could not copy token: %w", err)
				}
				fmt.Println(mutedStyle.Render("Access token copied to clipboard."))
			}
			return nil
		},
	}
}

// NewLogoutCommand forgets the stored tokens.
func NewLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Remove stored tokens",
		Action: func(c *cli.Context) error {
			if err := config.ClearCredentials(); err != nil {
				return err
			}
			success("Logged out")
			return nil
		},
	}
}

// NewWhoamiCommand prints the logged in user.
func NewWhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the logged in user",
		Action: func(c *cli.Context) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			user, err := client.Me(c.Context)
			if err != nil {
				return err
			}

			role := "member"
			if user.IsStaff {
				role = "staff"
			}
			fmt.Printf("%s %s\n", headerStyle.Render(user.Email), mutedStyle.Render("("+role+")"))
			return nil
		},
	}
}
