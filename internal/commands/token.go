package commands

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"max.ks1230/spendings/internal/api"
	"max.ks1230/spendings/internal/config"
)

func newTokenCommand() *cobra.Command {
	var userID int64
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user (development only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return errors.New("--user must be positive")
			}
			conf, err := config.New()
			if err != nil {
				return errors.Wrap(err, "init config")
			}
			if len(conf.App().JWTSecret()) == 0 {
				return errors.New("app.jwt-secret (or JWT_SECRET) is required")
			}
			token, err := api.IssueToken(conf.App().JWTSecret(), userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id to put in the token subject")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
