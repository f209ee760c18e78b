package trimmer

import "fmt"

// Policy selects which lines survive a trim.
//
// MaxLines is the number of trailing lines kept. Length, when set, re-slices
// that tail from its start: a non-negative Length keeps at most Length lines,
// a negative Length drops -Length lines from the end. Length 0 empties the
// file whatever MaxLines is.
type Policy struct {
	MaxLines int
	Length   *int
}

// Keep returns a policy keeping the last n lines.
func Keep(n int) Policy {
	return Policy{MaxLines: n}
}

// Clear returns the policy that empties a file.
func Clear() Policy {
	zero := 0
	return Policy{MaxLines: 0, Length: &zero}
}

// WithLength returns a copy of p with Length set to n.
func (p Policy) WithLength(n int) Policy {
	p.Length = &n
	return p
}

// Validate rejects policies with a negative MaxLines.
func (p Policy) Validate() error {
	if p.MaxLines < 0 {
		return fmt.Errorf("max lines must be >= 0, got %d", p.MaxLines)
	}
	return nil
}

func (p Policy) String() string {
	if p.Length == nil {
		return fmt.Sprintf("last %d lines", p.MaxLines)
	}
	return fmt.Sprintf("last %d lines, length %d", p.MaxLines, *p.Length)
}

// TrimLines applies p to lines and returns the surviving lines.
// The result shares storage with lines.
//
// The two stages are kept apart on purpose: Length is applied to the
// already-cut tail, not to the original slice.
func TrimLines(lines []string, p Policy) []string {
	n := p.MaxLines
	if n <= 0 {
		return lines[:0:0]
	}
	tail := lines
	if n < len(lines) {
		tail = lines[len(lines)-n:]
	}
	if p.Length == nil {
		return tail
	}

	length := *p.Length
	switch {
	case length >= len(tail):
		return tail
	case length >= 0:
		return tail[:length]
	case -length >= len(tail):
		return tail[:0]
	default:
		return tail[:len(tail)+length]
	}
}
