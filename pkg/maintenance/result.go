package maintenance

import (
	"fmt"

	"github.com/modoterra/logkeep/pkg/core"
)

// Result is the outcome of a trim or clear on one log.
type Result struct {
	Action  core.Action
	Name    string
	Path    string
	Err     error
	Skipped bool
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Err == nil && !r.Skipped
}

// Summary renders the notification text, e.g. "Trimmed: app (/var/log/app.log)"
// or "Not trimmed: app (/var/log/app.log) => <error>".
func (r Result) Summary() string {
	target := core.Describe(r.Name, r.Path)
	switch {
	case r.Skipped:
		return "Skipped: " + r.Name + " (no path configured)"
	case r.Err != nil:
		return fmt.Sprintf("Not %s: %s => %v", lowerFirst(r.Action.Past()), target, r.Err)
	default:
		return r.Action.Past() + ": " + target
	}
}

// Outcome converts r to its wire form.
func (r Result) Outcome() core.Outcome {
	o := core.Outcome{
		Action:  r.Action,
		Name:    r.Name,
		Path:    r.Path,
		OK:      r.OK(),
		Skipped: r.Skipped,
		Summary: r.Summary(),
	}
	if r.Err != nil {
		o.Error = r.Err.Error()
	}
	return o
}

// Report collects the results of a bulk operation in configuration order.
type Report struct {
	RunID   string
	Action  core.Action
	Results []Result
}

// Failed returns the results that carry an error.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Outcome converts r to its wire form.
func (r Report) Outcome() core.Report {
	out := core.Report{RunID: r.RunID, Action: r.Action, Outcomes: make([]core.Outcome, len(r.Results))}
	for i, res := range r.Results {
		out.Outcomes[i] = res.Outcome()
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
