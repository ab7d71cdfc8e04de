package record

import (
	"fmt"
	"strings"
)

// MalformedPolicy decides what happens to a line that cannot be parsed.
type MalformedPolicy string

const (
	// MalformedFail aborts the pass at the first malformed line (default).
	MalformedFail MalformedPolicy = "fail"

	// MalformedSkip drops malformed lines and keeps going.
	MalformedSkip MalformedPolicy = "skip"
)

// ParseMalformedPolicy converts a config or flag value into a policy.
// An empty string yields MalformedFail.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MalformedFail:
		return MalformedFail, nil
	case MalformedSkip:
		return MalformedSkip, nil
	default:
		return "", fmt.Errorf("invalid malformed policy %q (must be fail or skip)", s)
	}
}

// ValueError describes a single field that could not be read.
type ValueError struct {
	Column string
	Text   string
	Reason string
	Err    error
}

func (e *ValueError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("column %s: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("column %s: %s (%q)", e.Column, e.Reason, e.Text)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

// MalformedError attributes a parse failure to a specific line of a source.
type MalformedError struct {
	Source  string
	LineNum int
	Line    string
	Err     error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed record at %s:%d: %v: %q",
		e.Source, e.LineNum, e.Err, strings.TrimRight(e.Line, "\r\n"))
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
