//go:build !windows

package trimmer

const lineSeparator = "\n"
