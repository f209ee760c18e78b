package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modoterra/logkeep/internal/buildinfo"
	"github.com/modoterra/logkeep/pkg/config"
	"github.com/modoterra/logkeep/pkg/daemon"
	"github.com/modoterra/logkeep/pkg/hostlog"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(buildinfo.String("logkeepd"))
		return
	}

	configPath := flag.String("config", config.DefaultFile, "path to logkeep.yaml")
	logLevel := flag.String("log-level", "", "override log_level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logkeepd: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := newLogger(cfg.LogLevel)
	for _, e := range config.Validate(cfg) {
		logger.Warn("config validation", "path", *configPath, "err", e)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	diag := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: hostlog.ReplaceLevel,
	}))
	d := daemon.New(cfg, daemon.Options{
		ConfigPath:  *configPath,
		Diagnostics: diag,
	}, logger)
	defer d.Shutdown()

	watch := daemon.NewWatchLoop(d, cfg.Watch.Interval, logger)
	go watch.Run(ctx)

	logger.Info("starting logkeepd", "version", buildinfo.Version, "logs", d.Service().Registry().Len())
	if err := d.Run(ctx); err != nil {
		logger.Error("daemon error", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
