// Package trimmer reduces a log file to a bounded tail of its lines.
//
// Trim reads the whole file, keeps the last MaxLines non-empty lines,
// optionally re-slices that tail by Length, and rewrites the file while
// holding an exclusive advisory lock (see package lockfile). The lock covers
// only the truncate and write; a line appended between the read and the
// write is lost by the rewrite. Writers that do not take the same lock are
// not excluded at all.
//
// The package never logs. Every failure is an *Error whose kind can be
// tested with errors.Is against ErrNotFound, ErrRead, ErrOpenForWrite,
// ErrLock, ErrWrite and ErrInvalidPolicy.
package trimmer
