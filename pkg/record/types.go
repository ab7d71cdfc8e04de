// Package record splits yaw tracking log lines into labelled fields and maps
// them onto named columns.
package record

import (
	"strconv"
	"strings"
)

const (
	// Delimiter separates fields within a log line.
	Delimiter = ", "

	// LabelSeparator separates a field's label from its value.
	LabelSeparator = ": "

	// IDPrefix marks the identifier field.
	IDPrefix = "ID: "
)

// Field is one "Label: value" entry of a log line.
type Field struct {
	// Raw is the field text exactly as it appeared in the line.
	Raw string

	// Label is the text before the first ": ", or the whole field if there
	// is no separator.
	Label string

	// Value is the second ": "-separated component. Empty when the field has
	// no separator.
	Value string

	// HasValue reports whether the field contained a separator.
	HasValue bool
}

// Split breaks a raw line into fields on ", ". The line is used as-is, so a
// trailing newline stays attached to the last field's Raw text.
func Split(line string) []Field {
	parts := strings.Split(line, Delimiter)
	fields := make([]Field, len(parts))
	for i, p := range parts {
		fields[i] = parseField(p)
	}
	return fields
}

func parseField(raw string) Field {
	f := Field{Raw: raw}
	pieces := strings.Split(raw, LabelSeparator)
	f.Label = strings.TrimSpace(pieces[0])
	if len(pieces) > 1 {
		f.Value = pieces[1]
		f.HasValue = true
	}
	return f
}

// FindID returns the identifier from the first field starting with "ID: ".
// ok is false when no such field exists. The identifier is the second
// whitespace-separated token of that field; an error is returned when it is
// missing or not an integer.
func FindID(fields []Field) (id int64, ok bool, err error) {
	for _, f := range fields {
		if !strings.HasPrefix(f.Raw, IDPrefix) {
			continue
		}
		tokens := strings.Fields(f.Raw)
		if len(tokens) < 2 {
			return 0, true, &ValueError{Column: "id", Text: f.Raw, Reason: "missing identifier value"}
		}
		id, err := strconv.ParseInt(tokens[1], 10, 64)
		if err != nil {
			return 0, true, &ValueError{Column: "id", Text: tokens[1], Reason: "identifier is not an integer", Err: err}
		}
		return id, true, nil
	}
	return 0, false, nil
}
