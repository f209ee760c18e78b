package core

// LogLine is a single line followed from a log file.
type LogLine struct {
	Name     string `json:"name"`
	TsUnixMs int64  `json:"ts_unix_ms"`
	Line     string `json:"line"`
}
