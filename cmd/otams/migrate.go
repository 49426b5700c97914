package main

import (
	"github.com/spf13/cobra"

	"github.com/you/otams/internal/app"
	"github.com/you/otams/internal/infrastructure/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Create or update the users, refresh_tokens and casbin_rule tables.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	cmd.Println("Running migrations...")
	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	cmd.Println("Migrations completed successfully")
	return nil
}
