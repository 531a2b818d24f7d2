package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rendis/flowscope/internal/logging"
	"github.com/rendis/flowscope/internal/store"
	"github.com/rendis/flowscope/internal/validation"
	"github.com/rendis/flowscope/pkg/mcp"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)

	switch os.Args[1] {
	case "check":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: flowscope check <dir>")
			os.Exit(2)
		}
		os.Exit(runCheck(os.Args[2], os.Stdout, logger))
	case "serve":
		os.Exit(runServe(cfg, logger))
	case "version":
		printVersion()
	default:
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: flowscope <command>

commands:
  check <dir>   validate flow/domain/system documents in a directory
  serve         run the MCP analysis server on stdio
  version       print version`)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// Stderr keeps stdout clean for check output and the stdio transport.
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}

func runServe(cfg Config, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validator, err := validation.NewGraphValidator()
	if err != nil {
		logger.Error("validator init failed", "error", err)
		return 1
	}

	var registry store.RegistryStore
	if cfg.DBPath != "" {
		if err := os.MkdirAll(flowscopeDir(), 0o755); err != nil {
			logger.Warn("cannot create data dir, registries disabled", "error", err)
		} else {
			ls, err := store.NewLibSQLRegistryStore("file:" + cfg.DBPath)
			if err != nil {
				logger.Warn("registry store unavailable, reference checks degrade to structural", "error", err)
			} else if err := ls.Migrate(ctx); err != nil {
				logger.Warn("registry migration failed, registries disabled", "error", err)
				_ = ls.Close()
			} else {
				registry = ls
				defer ls.Close()
			}
		}
	}

	srv := mcp.NewFlowscopeServer(mcp.FlowscopeServerDeps{
		Validator: validator,
		Registry:  registry,
		Logger:    logger,
	})

	logger.Info("flowscope MCP server listening on stdio", "version", version)
	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server stopped", "error", err)
		return 1
	}
	return 0
}
