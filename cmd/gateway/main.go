// Command gateway runs the OpenAI-compatible HTTP bridge in front of the
// Claude CLI: it owns process configuration, the session store, the model
// catalog, the auth resolver, and the HTTP server lifecycle.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/claudegateway/openai-bridge/common/helper"
	"github.com/claudegateway/openai-bridge/internal/authresolver"
	"github.com/claudegateway/openai-bridge/internal/claude"
	"github.com/claudegateway/openai-bridge/internal/completion"
	"github.com/claudegateway/openai-bridge/internal/config"
	"github.com/claudegateway/openai-bridge/internal/httpapi"
	"github.com/claudegateway/openai-bridge/internal/logging"
	"github.com/claudegateway/openai-bridge/internal/modelsregistry"
	"github.com/claudegateway/openai-bridge/internal/observability"
	"github.com/claudegateway/openai-bridge/internal/session"
)

// shutdownGrace bounds how long an in-flight streaming completion is given
// to finish once a termination signal arrives before the process exits.
const shutdownGrace = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway exited: %+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogJSON); err != nil {
		return errors.Wrap(err, "init logging")
	}
	logger := logging.Logger
	logger.Info("config loaded", zap.Any("config", cfg.Redacted()))
	if cfg.APIKey != "" {
		logger.Info("API-Key Guard enabled", zap.String("key", helper.MaskAPIKey(cfg.APIKey)))
	}

	claudeClient := claude.NewClient(cfg.ClaudeBinaryPath)
	auth := authresolver.NewResolver(cfg, claudeClient)
	sessions := session.NewStore(cfg.SessionTTL, cfg.SessionCleanupInterval, cfg.SessionMaxTurns)

	models, err := modelsregistry.New()
	if err != nil {
		return errors.Wrap(err, "load model catalog")
	}

	svc, err := completion.NewService(claudeClient, sessions, models, auth, cfg.ClaudeTimeout)
	if err != nil {
		return errors.Wrap(err, "build completion service")
	}

	hooks := observability.New()
	defer func() {
		if err := hooks.Shutdown(context.Background()); err != nil {
			logger.Warn("observability shutdown failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if verify := claudeClient.Verify(ctx); verify.Available {
		hooks.RecordClaudeAvailability(true)
	}

	router := httpapi.NewRouter(cfg, svc, sessions, models, auth, hooks)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", zap.String("addr", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "serve")
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining in-flight requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "graceful shutdown")
		}
	}

	logger.Info("gateway stopped")
	return nil
}
