package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/herald0/herald/internal/api"
	"github.com/herald0/herald/internal/chat"
	"github.com/herald0/herald/internal/observability"
	"github.com/herald0/herald/internal/session"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // model calls can be slow
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP chat API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires the chat service and runs the HTTP server until a
// shutdown signal arrives.
func runServe(parent context.Context) error {
	d, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := observability.Setup(ctx, observability.Config{
		Enabled:     d.cfg.Tracing.Enabled,
		Endpoint:    d.cfg.Tracing.Endpoint,
		ServiceName: d.cfg.Tracing.ServiceName,
		Environment: d.cfg.Tracing.Environment,
	}, d.logger)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			d.logger.Warn("trace flush failed", "error", err)
		}
	}()

	assistant, err := d.assistantAgent()
	if err != nil {
		return fmt.Errorf("creating assistant agent: %w", err)
	}

	svc, err := chat.New(chat.Config{
		Store:   session.NewStore(),
		Invoker: d.runner,
		Agent:   assistant,
		Run:     d.runCfg,
		Logger:  d.logger,
	})
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:      d.logger,
		Chat:        svc,
		CORSOrigins: d.cfg.CORSOrigins,
		TrustProxy:  d.cfg.TrustProxy,
		RateBurst:   d.cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              d.cfg.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	d.logger.Info("HTTP server ready",
		"addr", d.cfg.Addr,
		"api", "/api/v1/*",
		"health", "/health",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		d.logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
