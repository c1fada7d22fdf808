// Command checkmated runs the fact-check invocation service: an HTTP
// surface over a circuit-broken, multi-model fallback cascade.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahrav/go-checkmate/internal/cascade"
	"github.com/ahrav/go-checkmate/internal/configuration"
	"github.com/ahrav/go-checkmate/internal/factcheck"
	"github.com/ahrav/go-checkmate/internal/llm"
	"github.com/ahrav/go-checkmate/internal/llm/circuitbreaker"
	"github.com/ahrav/go-checkmate/internal/server"
	"github.com/ahrav/go-checkmate/internal/tracker"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "checkmated: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file directory")
	flag.Parse()

	cfg, err := configuration.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Development {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	client, err := llm.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}

	invoker := cascade.NewInvoker(client, cfg.Cascade, cfg.FactCheck.Temperature)
	breakers := circuitbreaker.NewRegistry(cfg.Breakers)
	trk := tracker.NewLogTracker(logger)
	orchestrator := factcheck.NewOrchestrator(invoker, breakers, trk, cfg.FactCheck)

	srv := server.New(cfg.Server, cfg.Development, orchestrator, breakers)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	if err := srv.Shutdown(shutdownGrace); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
