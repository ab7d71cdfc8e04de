package record

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Built-in schema names.
const (
	SchemaNameYaw       = "yaw"
	SchemaNameStateMeas = "state_meas"
)

// Column maps a named numeric series onto a log field.
type Column struct {
	// Name identifies the series (time, yaw, cx, ...).
	Name string `yaml:"name" json:"name"`

	// Label is the field label looked up first ("Yaw" for "Yaw: 0.2").
	Label string `yaml:"label,omitempty" json:"label,omitempty"`

	// Index is the fixed field position used when Label is empty or absent
	// from the line.
	Index int `yaml:"index" json:"index"`
}

// Schema describes one log layout as an ordered set of columns. The first
// column is the x axis (time).
type Schema struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []Column `yaml:"columns" json:"columns"`
}

// SchemaYaw is the yaw-only layout: time, tracker yaw and 3D yaw.
var SchemaYaw = &Schema{
	Name: SchemaNameYaw,
	Columns: []Column{
		{Name: "time", Label: "Time", Index: 0},
		{Name: "yaw", Label: "Yaw", Index: 2},
		{Name: "yaw3d", Label: "Yaw3D", Index: 3},
	},
}

// SchemaStateMeas is the filter state layout: time, state, predicted and
// measured yaw, and the C*X term.
var SchemaStateMeas = &Schema{
	Name: SchemaNameStateMeas,
	Columns: []Column{
		{Name: "time", Label: "Time", Index: 0},
		{Name: "state_yaw", Label: "StateYaw", Index: 2},
		{Name: "pred_yaw", Label: "PredYaw", Index: 3},
		{Name: "meas_yaw", Label: "MeasYaw", Index: 4},
		{Name: "cx", Label: "CX", Index: 5},
	},
}

var builtinSchemas = map[string]*Schema{
	SchemaNameYaw:       SchemaYaw,
	SchemaNameStateMeas: SchemaStateMeas,
}

// Schemas returns the built-in schemas sorted by name.
func Schemas() []*Schema {
	out := make([]*Schema, 0, len(builtinSchemas))
	for _, s := range builtinSchemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupSchema returns the built-in schema with the given name.
func LookupSchema(name string) (*Schema, error) {
	s, ok := builtinSchemas[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (must be %s or %s)", name, SchemaNameYaw, SchemaNameStateMeas)
	}
	return s, nil
}

// Validate checks that column names are unique and indices non-negative.
func (s *Schema) Validate() error {
	if len(s.Columns) < 2 {
		return fmt.Errorf("schema %s: at least two columns are required", s.Name)
	}
	seen := make(map[string]bool, len(s.Columns))
	for i, c := range s.Columns {
		if c.Name == "" {
			return fmt.Errorf("schema %s: columns[%d]: name is required", s.Name, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("schema %s: duplicate column %q", s.Name, c.Name)
		}
		seen[c.Name] = true
		if c.Index < 0 {
			return fmt.Errorf("schema %s: column %s: index must be >= 0", s.Name, c.Name)
		}
	}
	return nil
}

// ColumnNames returns the column names in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Resolve parses one float per column from the fields of a line. Each column
// is found by label when the line carries that label, and by position
// otherwise.
func (s *Schema) Resolve(fields []Field) ([]float64, error) {
	byLabel := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := byLabel[f.Label]; !dup {
			byLabel[f.Label] = i
		}
	}

	values := make([]float64, len(s.Columns))
	for i, c := range s.Columns {
		idx := c.Index
		if c.Label != "" {
			if at, ok := byLabel[c.Label]; ok {
				idx = at
			}
		}
		if idx >= len(fields) {
			return nil, &ValueError{
				Column: c.Name,
				Reason: fmt.Sprintf("field %d missing, line has %d fields", idx, len(fields)),
			}
		}
		f := fields[idx]
		if !f.HasValue {
			return nil, &ValueError{Column: c.Name, Text: f.Raw, Reason: "field has no value"}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
		if err != nil {
			return nil, &ValueError{Column: c.Name, Text: f.Value, Reason: "not a number", Err: err}
		}
		values[i] = v
	}
	return values, nil
}
