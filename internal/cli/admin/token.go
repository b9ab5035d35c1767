package admin

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kutbudev/cardboard/internal/auth"
	"github.com/kutbudev/cardboard/internal/repository"
)

func newTokenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Issue an access and refresh token pair for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Auth.Secret == "" {
				return fmt.Errorf("auth.secret must be set to issue tokens")
			}

			u, err := repository.NewUsers(a.db.DB).GetByEmail(cmd.Context(), auth.NormalizeEmail(args[0]))
			if err != nil {
				return fmt.Errorf("user %s: %w", args[0], err)
			}
			if !u.IsActive {
				return fmt.Errorf("user %s is inactive", u.Email)
			}

			pair, err := auth.NewTokens(a.cfg.Auth).IssuePair(u.ID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pair)
		},
	}
}
