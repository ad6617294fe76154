package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/genewise-api/internal/api"
	"github.com/spf13/cobra"
)

const defaultShutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(runCtx, cfg, os.Stdout, ctx.appOpts...)
			if err != nil {
				return err
			}

			listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
			if err != nil {
				_ = app.shutdown(context.Background())
				return fmt.Errorf("failed to listen on port %d: %w", cfg.Server.Port, err)
			}
			return app.serve(runCtx, listener)
		},
	}
}

// router builds the HTTP handler for the application.
func (app *application) router() http.Handler {
	requestTimeout := app.config.Orchestrator.Timeout()
	if requestTimeout > 0 && app.analyzer != nil {
		// OCR runs before the fan-out on the same request.
		requestTimeout += time.Duration(app.config.DocumentAnalysis.MaxPollAttempts) * app.config.DocumentAnalysis.PollInterval()
	}
	return api.NewRouter(api.RouterDeps{
		Logger:         app.logger,
		Simplifier:     app.simplifier,
		Analyzer:       app.analyzer,
		JWTSecret:      app.config.Auth.JWTSecret,
		RequestTimeout: requestTimeout,
	})
}

// serve runs the HTTP server on listener until ctx is canceled, then shuts it
// down gracefully and releases the application.
func (app *application) serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			app.logger.Error("Server failed", "error", err)
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	timeout := time.Duration(app.config.Server.ShutdownSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown failed: %w", err))
	}
	if err := app.shutdown(shutdownCtx); err != nil {
		app.logger.Error("Application cleanup failed", "error", err)
		runErr = errors.Join(runErr, err)
	}

	app.logger.Info("Server shutdown completed")
	return runErr
}
