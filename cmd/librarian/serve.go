package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/libraryhub/library-server/internal/config"
	"github.com/libraryhub/library-server/internal/di"
	"github.com/libraryhub/library-server/internal/logger"
)

func newServeCommand(flags *config.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			injector := di.NewContainer(*flags)

			if err := di.Bootstrap(injector); err != nil {
				return fmt.Errorf("bootstrap server: %w", err)
			}

			log := do.MustInvoke[*logger.Logger](injector)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info("Shutting down server gracefully...")

			// Services implementing do.Shutdownable are closed in reverse
			// dependency order: HTTP server first, database last.
			if err := injector.Shutdown(); err != nil {
				log.WithError(err).Error("Shutdown error")
			}

			log.Info("Server stopped")
			return nil
		},
	}
}
