package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ctacke/DataNav/internal/config"
	"github.com/ctacke/DataNav/internal/engine"
	"github.com/ctacke/DataNav/pkg/logger"

	// Import all database providers to trigger their init() registration
	_ "github.com/ctacke/DataNav/internal/database/cassandra"
	_ "github.com/ctacke/DataNav/internal/database/mysql"
	_ "github.com/ctacke/DataNav/internal/database/postgres"
)

var (
	configPath     = flag.String("config", "datanav.yaml", "Path to the configuration file")
	logLevel       = flag.String("log-level", "", "Override the configured log level")
	serviceVersion = "1.0.0"
)

const shutdownTimeout = 15 * time.Second

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *logLevel != "" {
		cfg.Overlay(map[string]string{"log.level": *logLevel})
	}

	lg := logger.New("datanav", serviceVersion)
	lg.SetLevel(cfg.Service.LogLevel)

	eng := engine.New(cfg, lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		lg.Fatalf("Failed to start service: %v", err)
	}
	lg.Info("Service started with %d registered connections", len(eng.Registry().List()))

	<-ctx.Done()
	stop()
	lg.Info("Shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := eng.Stop(stopCtx); err != nil {
		lg.Error("Shutdown failed: %v", err)
		os.Exit(1)
	}
	lg.Info("Shutdown complete")
}
