// Package commands holds the portfolio CLI.
package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-portfolio-crm/internal/config"
	"github.com/goliatone/go-portfolio-crm/internal/logging"
	"github.com/goliatone/go-portfolio-crm/pkg/di"
)

// RootCmd builds the portfolio command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Apartment portfolio CRM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to a YAML config file")

	root.AddCommand(
		ServeCmd(),
		MigrateCmd(),
		SeedCmd(),
	)
	return root
}

// bootstrap loads configuration, builds the logger and wires the container.
// Callers must Close the container and Sync the logger.
func bootstrap(ctx context.Context, cmd *cobra.Command) (*di.Container, *zap.Logger, error) {
	file, _ := cmd.Flags().GetString("config")

	// .env was loaded by main
	cfg, err := config.Load(config.Options{File: file, EnvFiles: []string{}})
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Server.Mode)
	if err != nil {
		return nil, nil, err
	}

	container, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return container, logger, nil
}
