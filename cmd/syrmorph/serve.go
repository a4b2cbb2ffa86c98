package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brunobiangulo/syrmorph"
	"github.com/brunobiangulo/syrmorph/console"
)

var (
	serveLLM  llmFlags
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve single-sentence decomposition over HTTP",
	Long: `Starts an HTTP server with:

  POST /decompose  {"sentence": "..."} -> trace and counters
  GET  /models     model alias table
  GET  /health     liveness

SYRMORPH_SERVER_API_KEY enables bearer authentication and
SYRMORPH_CORS_ORIGINS (comma-separated) enables CORS.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveLLM.register(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	serveLLM.apply(cmd, &cfg)

	engine, err := syrmorph.New(cfg, syrmorph.WithLogger(logger), syrmorph.WithConsole(console.Discard()))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:        serveAddr,
		Handler:     newServer(engine, logger, os.Getenv("SYRMORPH_SERVER_API_KEY"), os.Getenv("SYRMORPH_CORS_ORIGINS")),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", serveAddr), zap.String("model", engine.Model()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newServer wires the middleware chain: recovery -> cors -> auth -> logging -> mux.
func newServer(e decomposer, log *zap.Logger, apiKey, corsOrigins string) http.Handler {
	var h http.Handler = newHandler(e, log).routes()
	h = logMiddleware(log, h)
	h = authMiddleware(apiKey, h)
	h = corsMiddleware(corsOrigins, h)
	h = recoveryMiddleware(log, h)
	return h
}
