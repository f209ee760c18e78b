package hostlog

import (
	"log/slog"

	"github.com/coreos/go-systemd/v22/journal"
)

// Journal writes to the systemd journal. Send failures are reported to a
// fallback slog logger.
type Journal struct {
	identifier string
	fallback   *slog.Logger
}

// NewJournal returns a journal logger tagged with SYSLOG_IDENTIFIER=identifier.
func NewJournal(identifier string, fallback *slog.Logger) *Journal {
	if fallback == nil {
		fallback = slog.Default()
	}
	return &Journal{identifier: identifier, fallback: fallback}
}

// Enabled reports whether the journal socket is reachable.
func (j *Journal) Enabled() bool {
	return journal.Enabled()
}

func (j *Journal) Debug(msg string)    { j.send(journal.PriDebug, msg) }
func (j *Journal) Info(msg string)     { j.send(journal.PriInfo, msg) }
func (j *Journal) Warn(msg string)     { j.send(journal.PriWarning, msg) }
func (j *Journal) Error(msg string)    { j.send(journal.PriErr, msg) }
func (j *Journal) Critical(msg string) { j.send(journal.PriCrit, msg) }
func (j *Journal) Alert(msg string)    { j.send(journal.PriAlert, msg) }

// SystemError sends msg at error priority.
func (j *Journal) SystemError(msg string) { j.send(journal.PriErr, msg) }

func (j *Journal) send(pri journal.Priority, msg string) {
	vars := map[string]string{"SYSLOG_IDENTIFIER": j.identifier}
	if err := journal.Send(msg, pri, vars); err != nil {
		j.fallback.Error("journal send failed", "priority", int(pri), "msg", msg, "err", err)
	}
}
