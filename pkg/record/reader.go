package record

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Line is one raw line read from a source.
type Line struct {
	// Raw is the line content including its trailing newline, if any.
	Raw string

	// Source names the file (or stream) the line came from.
	Source string

	// LineNum is the 1-based line number in the source.
	LineNum int
}

// LineReader yields raw lines from a reader with their line numbers.
// It is not safe for concurrent use.
type LineReader struct {
	r       *bufio.Reader
	source  string
	lineNum int
}

// NewLineReader wraps r. source is only used for attribution.
func NewLineReader(r io.Reader, source string) *LineReader {
	return &LineReader{
		r:      bufio.NewReaderSize(r, 64*1024),
		source: source,
	}
}

// Next returns the next line. Returns io.EOF when the reader is exhausted.
// A final line without a newline is returned as-is.
func (lr *LineReader) Next(ctx context.Context) (*Line, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	raw, err := lr.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading %s: %w", lr.source, err)
	}
	if raw == "" {
		return nil, io.EOF
	}

	lr.lineNum++
	return &Line{
		Raw:     raw,
		Source:  lr.source,
		LineNum: lr.lineNum,
	}, nil
}
