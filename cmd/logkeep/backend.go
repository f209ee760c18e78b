package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/modoterra/logkeep/pkg/config"
	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/daemon"
	"github.com/modoterra/logkeep/pkg/hostlog"
	"github.com/modoterra/logkeep/pkg/maintenance"
	"github.com/modoterra/logkeep/pkg/transport/uds"
)

// backend runs log operations either through the daemon or in-process.
type backend interface {
	List(ctx context.Context) ([]core.LogFile, error)
	View(ctx context.Context, name string) (core.LogView, error)
	Trim(ctx context.Context, name string) (core.Outcome, error)
	Clear(ctx context.Context, name string) (core.Outcome, error)
	TrimAll(ctx context.Context) (core.Report, error)
	ClearAll(ctx context.Context) (core.Report, error)
	Test(ctx context.Context, name string) error
	Close() error
}

func openBackend() (backend, error) {
	if directFlag {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		return newDirect(cfg, os.Stderr), nil
	}
	client, err := dialDaemon()
	if err != nil {
		return nil, err
	}
	return &remote{client: client}, nil
}

type remote struct {
	client *uds.Client
}

func (r *remote) List(ctx context.Context) ([]core.LogFile, error) {
	var resp uds.ListLogsResponse
	err := r.client.Call(ctx, uds.MethodListLogs, nil, &resp)
	return resp.Logs, err
}

func (r *remote) View(ctx context.Context, name string) (core.LogView, error) {
	var v core.LogView
	err := r.client.Call(ctx, uds.MethodViewLog, uds.LogRequest{Name: name}, &v)
	return v, err
}

func (r *remote) Trim(ctx context.Context, name string) (core.Outcome, error) {
	var o core.Outcome
	err := r.client.Call(ctx, uds.MethodTrimLog, uds.LogRequest{Name: name}, &o)
	return o, err
}

func (r *remote) Clear(ctx context.Context, name string) (core.Outcome, error) {
	var o core.Outcome
	err := r.client.Call(ctx, uds.MethodClearLog, uds.LogRequest{Name: name}, &o)
	return o, err
}

func (r *remote) TrimAll(ctx context.Context) (core.Report, error) {
	var rep core.Report
	err := r.client.Call(ctx, uds.MethodTrimAllLogs, nil, &rep)
	return rep, err
}

func (r *remote) ClearAll(ctx context.Context) (core.Report, error) {
	var rep core.Report
	err := r.client.Call(ctx, uds.MethodClearAllLogs, nil, &rep)
	return rep, err
}

func (r *remote) Test(ctx context.Context, name string) error {
	return r.client.Call(ctx, uds.MethodTestLog, uds.LogRequest{Name: name}, nil)
}

func (r *remote) Close() error { return r.client.Close() }

// direct runs operations against a maintenance service built from the
// local configuration.
type direct struct {
	svc *maintenance.Service
}

func newDirect(cfg *config.Config, logOut io.Writer) *direct {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil || lvl < slog.LevelWarn {
		lvl = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	// Diagnostics without a host log file must show every severity.
	diag := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: hostlog.ReplaceLevel,
	}))
	host, system := daemon.HostLoggers(cfg, diag)
	return &direct{svc: daemon.NewService(cfg, daemon.Options{Host: host, System: system}, logger)}
}

func (d *direct) List(context.Context) ([]core.LogFile, error) {
	return d.svc.Status(), nil
}

func (d *direct) View(_ context.Context, name string) (core.LogView, error) {
	return d.svc.View(name)
}

func (d *direct) Trim(_ context.Context, name string) (core.Outcome, error) {
	return d.svc.Trim(name).Outcome(), nil
}

func (d *direct) Clear(_ context.Context, name string) (core.Outcome, error) {
	return d.svc.Clear(name).Outcome(), nil
}

func (d *direct) TrimAll(context.Context) (core.Report, error) {
	return d.svc.TrimAll().Outcome(), nil
}

func (d *direct) ClearAll(context.Context) (core.Report, error) {
	return d.svc.ClearAll().Outcome(), nil
}

func (d *direct) Test(_ context.Context, name string) error {
	return d.svc.Test(name)
}

func (d *direct) Close() error { return nil }
