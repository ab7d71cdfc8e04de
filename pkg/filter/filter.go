// Package filter keeps the log lines whose track identifier is on an
// allow-list, dropping byte-identical repeats.
package filter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ccollicutt/yawlog/pkg/ids"
	"github.com/ccollicutt/yawlog/pkg/record"
)

// Stats summarises one filter pass.
type Stats struct {
	// LinesRead is the number of input lines examined.
	LinesRead int `json:"lines_read"`

	// Kept is the number of lines written to the output.
	Kept int `json:"kept"`

	// Duplicates counts accepted lines dropped because the identical text was
	// already written.
	Duplicates int `json:"duplicates"`

	// Rejected counts lines whose identifier is not accepted.
	Rejected int `json:"rejected"`

	// NoID counts lines without an "ID: " field.
	NoID int `json:"no_id"`

	// Malformed counts lines skipped because the identifier was unreadable.
	Malformed int `json:"malformed"`

	// Skipped holds the errors for malformed lines under MalformedSkip.
	Skipped []*record.MalformedError `json:"-"`
}

// Option configures a filter pass.
type Option func(*options)

type options struct {
	policy record.MalformedPolicy
	source string
}

// WithMalformedPolicy sets how unreadable identifiers are handled.
func WithMalformedPolicy(p record.MalformedPolicy) Option {
	return func(o *options) {
		if p != "" {
			o.policy = p
		}
	}
}

// WithSource names the input in error messages when filtering a reader.
func WithSource(name string) Option {
	return func(o *options) {
		o.source = name
	}
}

func newOptions(opts []Option) *options {
	o := &options{policy: record.MalformedFail, source: "input"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Filter copies the accepted lines of r to w in input order. Each line is kept
// when its first "ID: " field holds an accepted identifier and the exact line
// text has not been written before in this pass.
func Filter(ctx context.Context, r io.Reader, w io.Writer, accepted ids.Set, opts ...Option) (*Stats, error) {
	o := newOptions(opts)
	stats := &Stats{}
	seen := make(map[string]struct{})

	bw := bufio.NewWriter(w)
	lr := record.NewLineReader(r, o.source)

	for {
		line, err := lr.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.LinesRead++

		id, ok, err := record.FindID(record.Split(line.Raw))
		if err != nil {
			merr := &record.MalformedError{Source: line.Source, LineNum: line.LineNum, Line: line.Raw, Err: err}
			if o.policy == record.MalformedSkip {
				stats.Malformed++
				stats.Skipped = append(stats.Skipped, merr)
				continue
			}
			return stats, merr
		}
		if !ok {
			stats.NoID++
			continue
		}
		if !accepted.Contains(id) {
			stats.Rejected++
			continue
		}
		if _, dup := seen[line.Raw]; dup {
			stats.Duplicates++
			continue
		}

		if _, err := bw.WriteString(line.Raw); err != nil {
			return stats, fmt.Errorf("writing output: %w", err)
		}
		seen[line.Raw] = struct{}{}
		stats.Kept++
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("writing output: %w", err)
	}
	return stats, nil
}

// FilterFile filters inPath into outPath. The output is written to a temporary
// file in the same directory and renamed into place, so a failed pass never
// leaves a partial output behind. Missing parent directories are created.
func FilterFile(ctx context.Context, inPath, outPath string, accepted ids.Set, opts ...Option) (stats *Stats, err error) {
	in, err := os.Open(inPath) // #nosec G304 -- user-provided log path is expected
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outPath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	opts = append([]Option{WithSource(inPath)}, opts...)
	stats, err = Filter(ctx, in, tmp, accepted, opts...)
	if err != nil {
		return stats, err
	}

	if err = tmp.Close(); err != nil {
		return stats, fmt.Errorf("closing output: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return stats, fmt.Errorf("setting output permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), outPath); err != nil {
		return stats, fmt.Errorf("replacing output: %w", err)
	}
	return stats, nil
}

// IsMalformed reports whether err was caused by a malformed record.
func IsMalformed(err error) bool {
	var merr *record.MalformedError
	return errors.As(err, &merr)
}
