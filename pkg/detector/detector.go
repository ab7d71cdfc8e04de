// Package detector identifies which record layout a yaw log uses.
package detector

import (
	"bufio"
	"context"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/ccollicutt/yawlog/pkg/record"
)

// ErrNoMatch is returned by Best when no schema parsed any sampled line.
var ErrNoMatch = errors.New("no record layout matched the sampled lines")

// DetectionResult holds the result of analyzing a log file.
type DetectionResult struct {
	Matches      []SchemaMatch // Schemas that parsed at least one line, best first
	SampledLines int           // Number of non-blank lines sampled
}

// SchemaMatch scores one schema against the sample.
type SchemaMatch struct {
	Schema       *record.Schema
	Confidence   float64 // fraction of sampled lines parsed cleanly
	LabelMatches float64 // fraction of column lookups satisfied by label
	MatchCount   int
	SampleLine   string
	SampleValues []float64
}

// Detector samples log lines and scores candidate schemas.
type Detector struct {
	schemas    []*record.Schema
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithSchemas replaces the built-in candidates.
func WithSchemas(schemas ...*record.Schema) Option {
	return func(d *Detector) {
		if len(schemas) > 0 {
			d.schemas = schemas
		}
	}
}

// New creates a new Detector with the built-in schemas.
func New(opts ...Option) *Detector {
	d := &Detector{
		schemas:    record.Schemas(),
		sampleSize: 100,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples path and scores it.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines scores a slice of log lines.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	var sample []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			sample = append(sample, line)
		}
	}

	result := &DetectionResult{SampledLines: len(sample)}
	if len(sample) == 0 {
		return result
	}

	for _, schema := range d.schemas {
		m := SchemaMatch{Schema: schema}
		labelHits := 0
		for _, line := range sample {
			fields := record.Split(line)
			values, err := schema.Resolve(fields)
			if err != nil {
				continue
			}
			m.MatchCount++
			labelHits += countLabelHits(schema, fields)
			if m.SampleLine == "" {
				m.SampleLine = line
				m.SampleValues = values
			}
		}
		if m.MatchCount == 0 {
			continue
		}
		m.Confidence = float64(m.MatchCount) / float64(len(sample))
		m.LabelMatches = float64(labelHits) / float64(m.MatchCount*len(schema.Columns))
		result.Matches = append(result.Matches, m)
	}

	// Most lines parsed first, then most columns found by label, then the
	// schema that reads more columns.
	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.LabelMatches != b.LabelMatches {
			return a.LabelMatches > b.LabelMatches
		}
		return len(a.Schema.Columns) > len(b.Schema.Columns)
	})

	return result
}

func countLabelHits(schema *record.Schema, fields []record.Field) int {
	labels := make(map[string]bool, len(fields))
	for _, f := range fields {
		labels[f.Label] = true
	}
	hits := 0
	for _, c := range schema.Columns {
		if c.Label != "" && labels[c.Label] {
			hits++
		}
	}
	return hits
}

// sampleFile reads up to sampleSize non-blank lines from a file.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for len(lines) < d.sampleSize && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// BestMatch returns the highest scoring match, or nil if none found.
func (r *DetectionResult) BestMatch() *SchemaMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one schema matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

// Best samples path and returns the winning schema.
func (d *Detector) Best(ctx context.Context, path string) (*record.Schema, error) {
	result, err := d.DetectFromFile(ctx, path)
	if err != nil {
		return nil, err
	}
	best := result.BestMatch()
	if best == nil {
		return nil, ErrNoMatch
	}
	return best.Schema, nil
}
