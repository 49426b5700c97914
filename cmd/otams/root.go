package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/you/otams/internal/config"
	"github.com/you/otams/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Otams CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otams",
		Short: "Otams - authentication and session service",
		Long: `Otams issues access and refresh tokens, rotates and revokes refresh
tokens, and serves the profile and admin endpoints around them.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $OTAMS_CONFIG or "+config.DefaultPath+")")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewPurgeTokensCmd())
	cmd.AddCommand(NewPromoteAdminCmd())

	return cmd
}

// loadConfig reads the config selected by --config and installs the default logger
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.ResolvePath(configFile))
	if err != nil {
		return nil, nil, err
	}
	logger := logging.SetDefault("otams", version, cfg.LogLevel, cfg.LogFormat)
	return cfg, logger, nil
}
