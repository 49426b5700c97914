package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/you/otams/internal/app"
	"github.com/you/otams/internal/infrastructure/database"
	"github.com/you/otams/internal/infrastructure/repositories"
)

// NewPurgeTokensCmd creates the purge-tokens subcommand.
func NewPurgeTokensCmd() *cobra.Command {
	var retention time.Duration
	cmd := &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete refresh tokens that expired before the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("retention") {
				retention = cfg.JanitorRetention
			}

			db, err := app.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			purged, err := app.PurgeTokens(cmd.Context(), repositories.NewRefreshTokenRepository(db), retention, logger)
			if err != nil {
				return err
			}
			cmd.Printf("Purged %d refresh tokens\n", purged)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", 0, "keep tokens that expired less than this long ago (default janitor.retention)")
	return cmd
}
