package core

import "fmt"

// Action names a maintenance operation on a log.
type Action string

const (
	ActionView  Action = "view"
	ActionTrim  Action = "trim"
	ActionClear Action = "clear"
	ActionTest  Action = "test"
)

// Past returns the capitalized past tense used in summaries ("Trimmed").
func (a Action) Past() string {
	switch a {
	case ActionTrim:
		return "Trimmed"
	case ActionClear:
		return "Cleared"
	case ActionTest:
		return "Tested"
	case ActionView:
		return "Viewed"
	default:
		return string(a)
	}
}

// LogFile is a status snapshot of a registered log.
type LogFile struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Exists    bool   `json:"exists"`
	SizeBytes int64  `json:"size_bytes"`
	ModUnixMs int64  `json:"mod_unix_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Outcome is the result of a mutating operation on one log.
type Outcome struct {
	Action  Action `json:"action"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
	Summary string `json:"summary"`
}

// Report collects the outcomes of a bulk operation.
type Report struct {
	RunID    string    `json:"run_id"`
	Action   Action    `json:"action"`
	Outcomes []Outcome `json:"outcomes"`
}

// Failed returns the outcomes that did not succeed.
func (r Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK && !o.Skipped {
			failed = append(failed, o)
		}
	}
	return failed
}

// LogView is the content of a log as shown to an operator.
type LogView struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Found   bool   `json:"found"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// Describe renders "name (path)" for notifications.
func Describe(name, path string) string {
	return fmt.Sprintf("%s (%s)", name, path)
}
