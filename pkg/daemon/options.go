package daemon

import (
	"log/slog"

	"github.com/modoterra/logkeep/pkg/config"
	"github.com/modoterra/logkeep/pkg/hostlog"
	"github.com/modoterra/logkeep/pkg/maintenance"
)

// JournalIdentifier tags diagnostic messages sent to the systemd journal.
const JournalIdentifier = "logkeep"

// HostLoggers builds the diagnostic loggers described by cfg. The host
// logger appends to the host log file when one is configured; otherwise it
// and the system channel go to logger, or to the journal when enabled.
func HostLoggers(cfg *config.Config, logger *slog.Logger) (hostlog.Logger, hostlog.SystemErrorLogger) {
	fallback := hostlog.NewSlog(logger)
	var host hostlog.Logger = fallback
	var system hostlog.SystemErrorLogger = fallback

	if cfg.Diagnostics.Journal {
		if j := hostlog.NewJournal(JournalIdentifier, logger); j.Enabled() {
			host, system = j, j
		} else {
			logger.Warn("journal requested but not reachable; using process log")
		}
	}
	if path := cfg.HostLogPath(); path != "" {
		host = hostlog.NewSlog(hostlog.NewFileLogger(path))
	}
	return host, system
}

// NewService builds a maintenance service for cfg.
func NewService(cfg *config.Config, opts Options, logger *slog.Logger) *maintenance.Service {
	return maintenance.New(cfg.Registry(), maintenance.Options{
		Host:      opts.Host,
		System:    opts.System,
		HostLog:   cfg.Diagnostics.HostLog,
		SystemLog: cfg.Diagnostics.SystemLog,
		MaxLines:  cfg.Trim.MaxLines,
		Logger:    logger,
	})
}
