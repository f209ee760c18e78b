package hostlog

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/modoterra/logkeep/pkg/lockfile"
)

// AppendWriter appends to a log file, taking the same exclusive advisory
// lock the trimmer takes for every write. The file is reopened per write so
// a concurrent trim or deletion is picked up.
type AppendWriter struct {
	path string
	mu   sync.Mutex
}

// NewAppendWriter returns a writer appending to path.
func NewAppendWriter(path string) *AppendWriter {
	return &AppendWriter{path: path}
}

// Path returns the file the writer appends to.
func (w *AppendWriter) Path() string { return w.path }

func (w *AppendWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", w.path, err)
	}
	defer f.Close()

	if err := lockfile.Lock(f); err != nil {
		return 0, err
	}
	defer lockfile.Unlock(f)

	return f.Write(p)
}

// NewFileLogger returns a slog logger writing text records to path through
// an AppendWriter, with all six severities enabled.
func NewFileLogger(path string) *slog.Logger {
	return slog.New(slog.NewTextHandler(NewAppendWriter(path), &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: ReplaceLevel,
	}))
}
