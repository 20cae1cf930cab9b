package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lemma-network/lemma/lemma-app/config"
	"github.com/lemma-network/lemma/metrics"
	apisrv "github.com/lemma-network/lemma/server/api"
	registryhttp "github.com/lemma-network/lemma/x/registry/http"
	"github.com/lemma-network/lemma/x/submission"
	submissionhttp "github.com/lemma-network/lemma/x/submission/http"
)

// App represents the Lemma submission service
type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	svc     *services
	tracker *submission.Tracker

	// API server (HTTP)
	apiServer   *apisrv.Server
	submissions *submissionhttp.Handler

	startedAt time.Time
	cancel    context.CancelFunc
	runCtx    context.Context
}

// NewApp creates a new application instance
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log.With().Str("component", "app").Logger(),
	}
	app.runCtx, app.cancel = context.WithCancel(ctx)

	if err := app.initialize(app.runCtx); err != nil {
		app.cancel()
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	return app, nil
}

// initialize sets up the application components
func (a *App) initialize(ctx context.Context) error {
	svc, err := newServices(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	a.svc = svc
	a.tracker = submission.NewTracker(a.cfg.Submissions.Retention, a.log)

	if a.cfg.API.Enabled {
		a.initializeAPIServer(ctx)
	}
	return nil
}

// initializeAPIServer sets up the HTTP API server with all endpoints
func (a *App) initializeAPIServer(ctx context.Context) {
	s := apisrv.NewServer(a.cfg.API, a.log)

	// Health/readiness/stats
	s.Router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	s.Router.HandleFunc("/ready", a.handleReady).Methods(http.MethodGet)
	s.Router.HandleFunc("/stats", a.handleStats).Methods(http.MethodGet)

	// Metrics
	if a.cfg.Metrics.Enabled {
		s.Router.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	// Challenges API
	challenges := registryhttp.NewHandler(a.svc.registry, a.svc.ledger, a.svc.signer, a.log)
	challenges.RegisterMux(s.Router)

	// Submissions API
	a.submissions = submissionhttp.NewHandler(ctx, a.svc.orchestrator, a.tracker, a.svc.registry, a.svc.signer, a.log)
	a.submissions.RegisterMux(s.Router)

	a.apiServer = s
}

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	ctx := a.runCtx
	a.startedAt = time.Now()

	if a.cfg.Registry.SyncOnStart {
		go a.initialSync(ctx)
	}

	go a.tracker.Run(ctx, a.cfg.Submissions.StatsInterval)
	go a.metricsReporter(ctx)

	// Start API server
	if a.apiServer != nil {
		go func() {
			if err := a.apiServer.Start(ctx); err != nil {
				a.log.Error().Err(err).Msg("API server error")
				a.cancel()
			}
		}()
	}

	return a.runWithGracefulShutdown(ctx)
}

func (a *App) initialSync(ctx context.Context) {
	if err := a.svc.registry.Synchronize(ctx); err != nil {
		a.log.Error().Err(err).Msg("Initial challenge sync failed, POST /v1/challenges/sync to retry")
		return
	}
	a.log.Info().Int("challenges", a.svc.registry.Len()).Msg("Initial challenge sync complete")
}

// runWithGracefulShutdown handles shutdown signals.
func (a *App) runWithGracefulShutdown(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	a.log.Info().Msg("Lemma service started successfully")

	select {
	case <-ctx.Done():
		a.log.Info().Msg("Context canceled, initiating shutdown")
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	a.cancel()
	return a.shutdown()
}

// shutdown waits for in-flight submissions to observe cancellation, then
// releases the ledger connection.
func (a *App) shutdown() error {
	a.log.Info().Msg("Initiating graceful shutdown")

	if a.submissions != nil {
		done := make(chan struct{})
		go func() {
			a.submissions.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(30 * time.Second):
			a.log.Warn().Msg("Timed out waiting for in-flight submissions")
		}
	}

	a.svc.close()

	a.log.Info().Msg("Graceful shutdown complete")
	return nil
}

// handleHealth responds to health check requests.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	code := http.StatusOK

	if !a.svc.registry.Ready() {
		status = "not_synced"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":"%s","challenges":%d}`, status, a.svc.registry.Len())
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.GetStats())
}

// GetStats returns application statistics.
func (a *App) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"registry":       a.svc.registry.GetStats(),
		"submissions":    a.tracker.GetStats(),
		"signer_enabled": a.svc.signer != nil,
		"uptime_seconds": time.Since(a.startedAt).Seconds(),
	}
	if a.svc.signer != nil {
		stats["signer"] = a.svc.signer.Address().Hex()
	}
	stats["app_version"] = Version
	stats["app_build_time"] = BuildTime
	stats["app_git_commit"] = GitCommit
	return stats
}

// metricsReporter periodically reports application statistics.
func (a *App) metricsReporter(ctx context.Context) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg := a.svc.registry.GetStats()
			a.log.Info().
				Int("challenges", reg["challenges"].(int)).
				Bool("ready", reg["ready"].(bool)).
				Float64("uptime_seconds", time.Since(a.startedAt).Seconds()).
				Msg("Lemma statistics")
		}
	}
}
