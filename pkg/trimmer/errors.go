package trimmer

import (
	"errors"
	"fmt"
)

// Failure kinds.
var (
	ErrNotFound      = errors.New("log file does not exist")
	ErrRead          = errors.New("failed to read the log file")
	ErrOpenForWrite  = errors.New("failed to open the log file for writing")
	ErrLock          = errors.New("unable to lock the log file")
	ErrWrite         = errors.New("failed to write the log file")
	ErrInvalidPolicy = errors.New("invalid trim policy")
)

// Error describes a failed trim of a single file.
type Error struct {
	Path string
	Kind error // one of the Err* kinds above
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fail(kind error, path string, cause error) error {
	return &Error{Path: path, Kind: kind, Err: cause}
}
