package daemon

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/transport/uds"
)

// WatchLoop stats every configured log each interval and emits delta events.
type WatchLoop struct {
	daemon   *Daemon
	interval time.Duration
	logger   *slog.Logger
}

// NewWatchLoop creates a watch loop for the given daemon.
func NewWatchLoop(d *Daemon, interval time.Duration, logger *slog.Logger) *WatchLoop {
	return &WatchLoop{daemon: d, interval: interval, logger: logger}
}

// Run starts the watch loop. Blocks until ctx is cancelled.
func (wl *WatchLoop) Run(ctx context.Context) {
	if wl.interval <= 0 {
		wl.logger.Info("watch loop disabled")
		return
	}
	ticker := time.NewTicker(wl.interval)
	defer ticker.Stop()

	wl.daemon.refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wl.daemon.refresh()
		}
	}
}

// refresh re-stats the logs and broadcasts what changed since the last call.
func (d *Daemon) refresh() uds.LogsDelta {
	files := d.Service().Status()
	newLogs := make(map[string]core.LogFile, len(files))
	for _, lf := range files {
		newLogs[lf.Name] = lf
	}

	d.mu.Lock()
	oldLogs := d.logs
	d.logs = newLogs
	d.mu.Unlock()

	delta := computeDelta(oldLogs, newLogs)
	if delta.HasChanges() {
		evt, err := uds.NewEvent(uds.EventLogsDelta, delta)
		if err == nil {
			d.server.Broadcast(evt)
		}
	}
	return delta
}

func computeDelta(old, new map[string]core.LogFile) uds.LogsDelta {
	var d uds.LogsDelta

	for name, lf := range new {
		prev, existed := old[name]
		if !existed {
			d.Added = append(d.Added, lf)
		} else if logChanged(prev, lf) {
			d.Updated = append(d.Updated, lf)
		}
	}

	for name := range old {
		if _, exists := new[name]; !exists {
			d.Removed = append(d.Removed, name)
		}
	}

	byName := func(a, b core.LogFile) int { return strings.Compare(a.Name, b.Name) }
	slices.SortFunc(d.Added, byName)
	slices.SortFunc(d.Updated, byName)
	slices.Sort(d.Removed)
	return d
}

func logChanged(a, b core.LogFile) bool {
	return a.Path != b.Path ||
		a.Exists != b.Exists ||
		a.SizeBytes != b.SizeBytes ||
		a.ModUnixMs != b.ModUnixMs ||
		a.Error != b.Error
}
