//go:build windows

package trimmer

const lineSeparator = "\r\n"
