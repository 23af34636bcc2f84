// Package main is the entry point for the spawner daemon.
// It exposes the session lifecycle API and drives the Slurm command line
// on behalf of its callers.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slurmspawn/internal/config"
	"slurmspawn/internal/logger"
	"slurmspawn/internal/observability"
	"slurmspawn/internal/server"
	"slurmspawn/internal/server/handlers"
	"slurmspawn/internal/slurm"
	"slurmspawn/internal/spawner"
	"slurmspawn/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Identity store
	identities, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer identities.Close()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "slurmspawn", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	// Scheduler plumbing. All command invocations flow through one pooled
	// runner so the daemon never forks more than ExecutorConcurrency
	// scheduler processes at a time.
	pool := spawner.NewExecutor(cfg.ExecutorConcurrency)
	runner := spawner.NewPooledRunner(pool, slurm.NewExecRunner(slogger))

	monitor := slurm.NewMonitor(runner, cfg.SqueuePath, cfg.CommandTimeout, slogger)
	discovery := slurm.NewDiscovery(runner, cfg.SqueuePath, slogger)
	resolver := slurm.NewResolver(runner, cfg.SqueuePath, cfg.HostPath, slogger)
	canceller := slurm.NewCanceller(runner, cfg.ScancelPath, slogger)

	var hook slurm.AdmissionHook
	if cfg.MarkerDir != "" {
		hook = slurm.NewMarkerFileHook(cfg.MarkerDir)
	}
	submitter := slurm.NewSubmitter(runner, monitor, slurm.SubmitterConfig{
		SbatchPath:         cfg.SbatchPath,
		TemplatePath:       cfg.TemplatePath,
		ProfileTemplateDir: cfg.ProfileTemplateDir,
		PollInterval:       cfg.StatePollInterval,
		MaxWait:            cfg.SubmitTimeout,
	}, hook, slogger)

	manager, err := spawner.NewManager(discovery, submitter, monitor, resolver, canceller,
		identities, spawner.Config{StopRecheckDelay: cfg.StopRecheckDelay}, slogger)
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}

	// Metrics server on its own port so scrapes never contend with
	// session calls.
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsHandler,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := server.New(server.Options{
		Addr:           addr,
		AuthSecret:     cfg.AuthSecret,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
	}, handlers.New(manager, identities, slogger))

	go func() {
		log.Printf("slurmspawn daemon starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down daemon...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Metrics server forced to shutdown: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}
