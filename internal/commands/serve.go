package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-portfolio-crm/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			container, logger, err := bootstrap(ctx, cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer container.Close()

			if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
				if err := container.Migrate(ctx); err != nil {
					return err
				}
				logger.Info("schema migrated")
			}

			cfg := container.Config()
			srv := httpapi.NewServer(logger, cfg.Server.Port, cfg.Server.Mode, container.HTTPDeps())

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Run() }()

			select {
			case err := <-errCh:
				if err != nil {
					logger.Error("server stopped", zap.Error(err))
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return <-errCh
		},
	}
	cmd.Flags().Bool("migrate", false, "create the schema before serving")
	return cmd
}
