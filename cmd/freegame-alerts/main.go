package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/api"
	"github.com/bakkerme/freegame-alerts/internal/config"
	"github.com/bakkerme/freegame-alerts/internal/health"
	"github.com/bakkerme/freegame-alerts/internal/observability/otelx"
	"github.com/bakkerme/freegame-alerts/internal/runner"
	"github.com/bakkerme/freegame-alerts/internal/runner/factory"
	"github.com/bakkerme/freegame-alerts/internal/store"
)

func main() {
	env := config.LoadEnv()

	configPath := flag.String("config", firstNonEmpty(env.ConfigPath, "freegame.yaml"), "path to freegame document")
	runOnce := flag.Bool("run-once", env.RunOnce, "run one poll cycle and exit")
	statusAddr := flag.String("status-addr", env.StatusAddr, "listen address for the status endpoint (empty disables it)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(env.LogLevel)}))
	slog.SetDefault(logger)

	doc, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load document: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	client := &http.Client{Timeout: env.HTTP.Timeout}
	defer client.CloseIdleConnections()

	tracked := store.New()
	reporter := health.NewReporter(tracked, logger)

	deps, err := factory.NewFromEnvConfig(logger, env, client).BuildDeps(doc, tracked, reporter)
	if err != nil {
		// Missing chat credentials end up here.
		log.Fatalf("failed to build runner: %v", err)
	}
	r, err := runner.New(deps)
	if err != nil {
		log.Fatalf("failed to build runner: %v", err)
	}

	if *runOnce {
		r.RunCycle(ctx)
		reporter.Report(ctx)
		return
	}

	var status *api.Server
	if *statusAddr != "" {
		status = api.NewServer(reporter, r, logger)
		go func() {
			if err := status.Start(*statusAddr); err != nil {
				logger.Error("status endpoint stopped", "error", err)
			}
		}()
	}

	if err := r.Start(ctx); err != nil {
		log.Fatalf("failed to start runner: %v", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	r.Stop()
	if status != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := status.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status endpoint shutdown failed", "error", err)
		}
	}
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
