package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/ironflow/internal/cli"
	"github.com/aretw0/ironflow/internal/presentation/tui"
	httpAdapter "github.com/aretw0/ironflow/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves templates, connection checks, recommendations and stored sessions as a JSON API, with Prometheus metrics at /metrics.`,
	RunE: withStore(func(cmd *cobra.Command, args []string) error {
		port := app.Config.HTTP.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		handler, err := httpAdapter.NewHandler(app.Service,
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithMetrics(app.Metrics.Handler()),
		)
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		if tui.IsTerminal(os.Stderr) {
			tui.PrintBanner(os.Stderr)
		}
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("starting HTTP server", "address", srv.Addr, "store", app.Config.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-sigCtx.Done():
			app.Logger.Info("shutting down", "signal", sigCtx.Signal())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			return nil
		}
	}),
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
