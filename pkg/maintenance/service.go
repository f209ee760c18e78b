package maintenance

import (
	"errors"
	"html"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/hostlog"
	"github.com/modoterra/logkeep/pkg/registry"
	"github.com/modoterra/logkeep/pkg/trimmer"
)

// DefaultMaxLines is the number of lines a trim keeps.
const DefaultMaxLines = 25

// Options configures a Service. Zero values are usable.
type Options struct {
	// Host receives the six-level diagnostic messages for HostLog.
	Host hostlog.Logger
	// System receives the diagnostic message for SystemLog.
	System hostlog.SystemErrorLogger
	// HostLog and SystemLog are the diagnostic log names.
	HostLog   string
	SystemLog string
	// MaxLines overrides DefaultMaxLines when positive.
	MaxLines int
	Logger   *slog.Logger
}

// Service runs maintenance operations against one registry snapshot.
type Service struct {
	reg       *registry.Registry
	host      hostlog.Logger
	system    hostlog.SystemErrorLogger
	hostLog   string
	systemLog string
	maxLines  int
	logger    *slog.Logger
}

// New creates a service over reg.
func New(reg *registry.Registry, opts Options) *Service {
	if reg == nil {
		reg = registry.New()
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		reg:       reg,
		host:      opts.Host,
		system:    opts.System,
		hostLog:   opts.HostLog,
		systemLog: opts.SystemLog,
		maxLines:  opts.MaxLines,
		logger:    opts.Logger,
	}
}

// Registry returns the registry the service operates on.
func (s *Service) Registry() *registry.Registry { return s.reg }

// TrimPolicy returns the policy used by Trim and TrimAll.
func (s *Service) TrimPolicy() trimmer.Policy { return trimmer.Keep(s.maxLines) }

// View reads a log by name. An unknown name returns registry.ErrNotFound;
// a missing or unreadable file is reported in the view, not as an error.
func (s *Service) View(name string) (core.LogView, error) {
	path, err := s.reg.Resolve(name)
	if err != nil {
		return core.LogView{Name: name}, err
	}
	v := core.LogView{Name: name, Path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		v.Message = "Log file not found: " + path
	case err != nil:
		v.Found = true
		v.Message = "Error reading the log file."
		s.logger.Warn("read log failed", "name", name, "path", path, "err", err)
	default:
		v.Found = true
		v.Content = string(data)
	}
	return v, nil
}

// Escape makes log text safe to embed in HTML.
func Escape(text string) string {
	return html.EscapeString(text)
}

// Trim keeps the last lines of the named log.
func (s *Service) Trim(name string) Result {
	return s.runOne(core.ActionTrim, name, s.TrimPolicy())
}

// Clear empties the named log.
func (s *Service) Clear(name string) Result {
	return s.runOne(core.ActionClear, name, trimmer.Clear())
}

// TrimAll trims every configured log.
func (s *Service) TrimAll() Report {
	return s.runAll(core.ActionTrim, s.TrimPolicy())
}

// ClearAll empties every configured log.
func (s *Service) ClearAll() Report {
	return s.runAll(core.ActionClear, trimmer.Clear())
}

func (s *Service) runOne(action core.Action, name string, p trimmer.Policy) Result {
	var res Result
	if path, err := s.reg.Resolve(name); err != nil {
		res = Result{Action: action, Name: name, Err: err}
	} else {
		res = s.apply(action, name, path, p)
	}
	s.logResult(res, "")
	return res
}

func (s *Service) runAll(action core.Action, p trimmer.Policy) Report {
	rep := Report{RunID: uuid.NewString(), Action: action}
	for _, e := range s.reg.All() {
		res := s.apply(action, e.Name, e.Path, p)
		s.logResult(res, rep.RunID)
		rep.Results = append(rep.Results, res)
	}
	s.logger.Info("bulk run finished", "run", rep.RunID, "action", action,
		"logs", len(rep.Results), "failed", len(rep.Failed()))
	return rep
}

func (s *Service) apply(action core.Action, name, path string, p trimmer.Policy) Result {
	res := Result{Action: action, Name: name, Path: path}
	if path == "" {
		res.Skipped = true
		return res
	}
	res.Err = trimmer.Trim(path, p)
	return res
}

func (s *Service) logResult(res Result, runID string) {
	attrs := []any{"action", res.Action, "name", res.Name, "path", res.Path}
	if runID != "" {
		attrs = append(attrs, "run", runID)
	}
	switch {
	case res.Skipped:
		s.logger.Debug("log skipped", attrs...)
	case res.Err != nil:
		s.logger.Warn("log maintenance failed", append(attrs, "err", res.Err)...)
	default:
		s.logger.Info("log maintained", attrs...)
	}
}
