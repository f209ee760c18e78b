package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modoterra/logkeep/pkg/config"
	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/hostlog"
	"github.com/modoterra/logkeep/pkg/maintenance"
	"github.com/modoterra/logkeep/pkg/providers/logs/filetail"
	"github.com/modoterra/logkeep/pkg/transport/uds"
)

// Options configures a Daemon.
type Options struct {
	// ConfigPath is re-read by ReloadConfig.
	ConfigPath string
	Host       hostlog.Logger
	System     hostlog.SystemErrorLogger
	// Diagnostics, when set, rebuilds Host and System with HostLoggers on
	// every applied config so diagnostics settings follow a reload.
	Diagnostics *slog.Logger
}

// Daemon is the logkeepd process: it owns the maintenance service and
// serves it over the socket.
type Daemon struct {
	server    *uds.Server
	opts      Options
	cfg       *config.Config
	svc       *maintenance.Service
	tail      *filetail.Provider
	following map[string]follower
	logs      map[string]core.LogFile
	mu        sync.RWMutex
	logger    *slog.Logger
}

type follower struct {
	path string
	ch   <-chan core.LogLine
}

// New creates a daemon listening on cfg.Socket.
func New(cfg *config.Config, opts Options, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{
		server:    uds.NewServer(cfg.Socket, logger),
		opts:      opts,
		tail:      filetail.New(logger),
		following: make(map[string]follower),
		logs:      make(map[string]core.LogFile),
		logger:    logger,
	}
	d.apply(cfg)
	d.registerHandlers()
	return d
}

// Service returns the maintenance service of the current configuration.
func (d *Daemon) Service() *maintenance.Service {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.svc
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Run starts the daemon and blocks until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	return d.server.Start(ctx)
}

// Shutdown cleans up resources.
func (d *Daemon) Shutdown() {
	d.tail.Close()
	d.server.Shutdown()
}

// Server returns the underlying UDS server (for broadcasting events).
func (d *Daemon) Server() *uds.Server {
	return d.server
}

// apply swaps in a service built from cfg.
func (d *Daemon) apply(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Diagnostics != nil {
		d.opts.Host, d.opts.System = HostLoggers(cfg, d.opts.Diagnostics)
	}
	d.cfg = cfg
	d.svc = NewService(cfg, d.opts, d.logger)
}

func (d *Daemon) registerHandlers() {
	d.server.Handle(uds.MethodPing, d.handlePing)
	d.server.Handle(uds.MethodListLogs, d.handleListLogs)
	d.server.Handle(uds.MethodViewLog, d.handleViewLog)
	d.server.Handle(uds.MethodTrimLog, d.handleTrimLog)
	d.server.Handle(uds.MethodTrimAllLogs, d.handleTrimAllLogs)
	d.server.Handle(uds.MethodClearLog, d.handleClearLog)
	d.server.Handle(uds.MethodClearAllLogs, d.handleClearAllLogs)
	d.server.Handle(uds.MethodTestLog, d.handleTestLog)
	d.server.Handle(uds.MethodReloadConfig, d.handleReloadConfig)
	d.server.Handle(uds.MethodLogsSubscribe, d.handleLogsSubscribe)
	d.server.Handle(uds.MethodLogsUnsubscribe, d.handleLogsUnsubscribe)
}

func (d *Daemon) handlePing(_ context.Context, _ uds.Message) (any, error) {
	return uds.PingResponse{Pong: true}, nil
}

func (d *Daemon) handleListLogs(_ context.Context, _ uds.Message) (any, error) {
	return uds.ListLogsResponse{Logs: d.Service().Status()}, nil
}

func decodeLogRequest(msg uds.Message) (uds.LogRequest, error) {
	var req uds.LogRequest
	if err := msg.UnmarshalData(&req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	if req.Name == "" {
		return req, fmt.Errorf("invalid request: name is required")
	}
	return req, nil
}

func (d *Daemon) handleViewLog(_ context.Context, msg uds.Message) (any, error) {
	req, err := decodeLogRequest(msg)
	if err != nil {
		return nil, err
	}
	return d.Service().View(req.Name)
}

func (d *Daemon) handleTrimLog(_ context.Context, msg uds.Message) (any, error) {
	req, err := decodeLogRequest(msg)
	if err != nil {
		return nil, err
	}
	res := d.Service().Trim(req.Name)
	d.refresh()
	return res.Outcome(), nil
}

func (d *Daemon) handleClearLog(_ context.Context, msg uds.Message) (any, error) {
	req, err := decodeLogRequest(msg)
	if err != nil {
		return nil, err
	}
	res := d.Service().Clear(req.Name)
	d.refresh()
	return res.Outcome(), nil
}

func (d *Daemon) handleTrimAllLogs(_ context.Context, _ uds.Message) (any, error) {
	rep := d.Service().TrimAll()
	d.refresh()
	return rep.Outcome(), nil
}

func (d *Daemon) handleClearAllLogs(_ context.Context, _ uds.Message) (any, error) {
	rep := d.Service().ClearAll()
	d.refresh()
	return rep.Outcome(), nil
}

func (d *Daemon) handleTestLog(_ context.Context, msg uds.Message) (any, error) {
	req, err := decodeLogRequest(msg)
	if err != nil {
		return nil, err
	}
	if err := d.Service().Test(req.Name); err != nil {
		return nil, err
	}
	return uds.TestLogResponse{OK: true}, nil
}

func (d *Daemon) handleReloadConfig(_ context.Context, _ uds.Message) (any, error) {
	cfg, err := config.LoadWithEnv(d.opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reload config: %w", err)
	}

	resp := uds.ReloadConfigResponse{OK: true}
	for _, e := range config.Validate(cfg) {
		resp.Warnings = append(resp.Warnings, e.Error())
	}
	if old := d.Config(); old != nil && old.Socket != cfg.Socket {
		resp.Warnings = append(resp.Warnings, "socket change takes effect after restart")
	}

	d.apply(cfg)
	resp.Logs = d.Service().Registry().Len()
	d.logger.Info("config reloaded", "path", d.opts.ConfigPath, "logs", resp.Logs, "warnings", len(resp.Warnings))
	d.refresh()
	return resp, nil
}

func (d *Daemon) handleLogsSubscribe(ctx context.Context, msg uds.Message) (any, error) {
	req, err := decodeLogRequest(msg)
	if err != nil {
		return nil, err
	}
	path, err := d.Service().Registry().Resolve(req.Name)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.following[req.Name]; ok {
		if prev.path == path {
			return map[string]bool{"ok": true}, nil
		}
		// The path changed on reload; drop the stale follower.
		d.tail.Unsubscribe(req.Name, prev.path)
		delete(d.following, req.Name)
	}

	ch, err := d.tail.Subscribe(ctx, req.Name, path)
	if err != nil {
		return nil, err
	}
	d.following[req.Name] = follower{path: path, ch: ch}
	go d.forward(req.Name, ch)
	return map[string]bool{"ok": true}, nil
}

func (d *Daemon) handleLogsUnsubscribe(_ context.Context, msg uds.Message) (any, error) {
	req, err := decodeLogRequest(msg)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	f, ok := d.following[req.Name]
	delete(d.following, req.Name)
	d.mu.Unlock()

	if ok {
		if err := d.tail.Unsubscribe(req.Name, f.path); err != nil {
			return nil, err
		}
	}
	return map[string]bool{"ok": true}, nil
}

// forward broadcasts followed lines until the subscription ends.
func (d *Daemon) forward(name string, ch <-chan core.LogLine) {
	for line := range ch {
		evt, err := uds.NewEvent(uds.EventLogsLine, line)
		if err != nil {
			d.logger.Error("encode log line", "name", name, "err", err)
			continue
		}
		d.server.Broadcast(evt)
	}

	d.mu.Lock()
	if d.following[name].ch == ch {
		delete(d.following, name)
	}
	d.mu.Unlock()
}
