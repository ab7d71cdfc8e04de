// Package series extracts parallel numeric series from filtered yaw logs.
package series

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ccollicutt/yawlog/pkg/record"
)

// Series holds one slice per schema column, all of equal length, in file
// order. Column 0 is the x axis.
type Series struct {
	Schema  string      `json:"schema"`
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`

	// Skipped holds malformed lines dropped under MalformedSkip.
	Skipped []*record.MalformedError `json:"-"`
}

func newSeries(schema *record.Schema) *Series {
	return &Series{
		Schema:  schema.Name,
		Columns: schema.ColumnNames(),
		Data:    make([][]float64, len(schema.Columns)),
	}
}

// Len returns the number of samples.
func (s *Series) Len() int {
	if len(s.Data) == 0 {
		return 0
	}
	return len(s.Data[0])
}

// Column returns the values of the named column, or nil if there is none.
func (s *Series) Column(name string) []float64 {
	for i, c := range s.Columns {
		if c == name {
			return s.Data[i]
		}
	}
	return nil
}

// X returns the first column.
func (s *Series) X() []float64 {
	if len(s.Data) == 0 {
		return nil
	}
	return s.Data[0]
}

// Sample returns all column values for sample i.
func (s *Series) Sample(i int) []float64 {
	out := make([]float64, len(s.Data))
	for c := range s.Data {
		out[c] = s.Data[c][i]
	}
	return out
}

func (s *Series) append(values []float64) {
	for i, v := range values {
		s.Data[i] = append(s.Data[i], v)
	}
}

// Option configures extraction.
type Option func(*options)

type options struct {
	policy record.MalformedPolicy
}

// WithMalformedPolicy sets how unparsable lines are handled. The default is
// record.MalformedFail.
func WithMalformedPolicy(p record.MalformedPolicy) Option {
	return func(o *options) {
		if p != "" {
			o.policy = p
		}
	}
}

// Extract parses every non-blank line of r with schema. source names r in
// error messages.
func Extract(ctx context.Context, r io.Reader, source string, schema *record.Schema, opts ...Option) (*Series, error) {
	o := &options{policy: record.MalformedFail}
	for _, opt := range opts {
		opt(o)
	}

	s := newSeries(schema)
	lr := record.NewLineReader(r, source)

	for {
		line, err := lr.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line.Raw) == "" {
			continue
		}

		values, err := schema.Resolve(record.Split(line.Raw))
		if err != nil {
			merr := &record.MalformedError{Source: line.Source, LineNum: line.LineNum, Line: line.Raw, Err: err}
			if o.policy == record.MalformedSkip {
				s.Skipped = append(s.Skipped, merr)
				continue
			}
			return nil, merr
		}
		s.append(values)
	}

	return s, nil
}

// ExtractFile opens path and extracts its series.
func ExtractFile(ctx context.Context, path string, schema *record.Schema, opts ...Option) (*Series, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided path is expected
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return Extract(ctx, f, path, schema, opts...)
}
