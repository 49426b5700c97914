package main

import (
	"github.com/spf13/cobra"

	"github.com/you/otams/internal/app"
	"github.com/you/otams/internal/infrastructure/database"
	"github.com/you/otams/internal/infrastructure/repositories"
)

// NewPromoteAdminCmd creates the promote-admin subcommand.
func NewPromoteAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote-admin <email>",
		Short: "Grant the Admin role to a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := app.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			user, err := app.PromoteAdmin(cmd.Context(), repositories.NewUserRepository(db), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
}
