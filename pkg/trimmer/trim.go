package trimmer

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/modoterra/logkeep/pkg/lockfile"
)

// maxLineBytes bounds a single line; longer lines fail the read.
const maxLineBytes = 1024 * 1024

// Trim rewrites the file at path so that only the lines selected by p remain.
//
// Empty lines are dropped and line endings normalized even when every line
// is kept. The file is opened without truncation, locked, and only then
// truncated and written. An empty result leaves a zero-byte file.
func Trim(path string, p Policy) error {
	if err := p.Validate(); err != nil {
		return fail(ErrInvalidPolicy, path, err)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(ErrNotFound, path, nil)
		}
		return fail(ErrRead, path, err)
	}

	lines, err := ReadLines(path)
	if err != nil {
		return err
	}
	return write(path, TrimLines(lines, p))
}

// ReadLines returns the non-empty lines of the file at path with line
// terminators removed.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fail(ErrNotFound, path, nil)
		}
		return nil, fail(ErrRead, path, err)
	}
	defer f.Close()

	lines, err := scanLines(f)
	if err != nil {
		return nil, fail(ErrRead, path, err)
	}
	return lines, nil
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func write(path string, lines []string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fail(ErrOpenForWrite, path, err)
	}
	defer f.Close()

	if err := lockfile.TryLock(f); err != nil {
		return fail(ErrLock, path, err)
	}
	defer func() {
		if uerr := lockfile.Unlock(f); uerr != nil && err == nil {
			err = fail(ErrWrite, path, uerr)
		}
	}()

	if err := f.Truncate(0); err != nil {
		return fail(ErrWrite, path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fail(ErrWrite, path, err)
	}
	if len(lines) == 0 {
		return nil
	}

	w := bufio.NewWriter(f)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteString(lineSeparator)
	}
	if err := w.Flush(); err != nil {
		return fail(ErrWrite, path, err)
	}
	return nil
}
