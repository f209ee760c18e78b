// Package maintenance implements the operator-facing log operations:
// viewing, trimming and clearing logs by name, in bulk or one at a time,
// and emitting diagnostic test messages.
//
// Bulk operations process every configured log in order. A failure on one
// log is recorded in its Result and never stops the run.
package maintenance
