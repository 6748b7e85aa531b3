package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wbruntra/texas-holdem/internal/server"
	"github.com/wbruntra/texas-holdem/internal/service"
	"github.com/wbruntra/texas-holdem/internal/store"
	"github.com/wbruntra/texas-holdem/internal/table"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"holdem-server.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Database string `short:"d" long:"database" help:"Path to sqlite database (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := service.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}
	if CLI.Addr != "" {
		if err := cfg.OverrideAddress(CLI.Addr); err != nil {
			fmt.Printf("Invalid address: %v\n", err)
			ctx.Exit(1)
		}
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Database != "" {
		cfg.Server.DatabasePath = CLI.Database
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	st, err := store.Open(cfg.Server.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.Server.DatabasePath)
		ctx.Exit(1)
	}
	defer st.Close()

	registry := prometheus.NewRegistry()
	metrics := table.NewMetrics(registry)

	svc := service.New(cfg, st, logger, quartz.NewReal(), metrics)
	defer svc.Close()

	srv := server.New(cfg.GetServerAddress(), svc, logger, registry)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting holdem server",
		"addr", cfg.GetServerAddress(),
		"database", cfg.Server.DatabasePath)

	if err := srv.Run(runCtx); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
	logger.Info("Server stopped")
}
