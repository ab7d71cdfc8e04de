// Package ids loads the allow-list of track identifiers a filter pass keeps.
package ids

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrFileNotFound is returned alongside an empty set when the ID file does
// not exist. Callers treat it as a warning.
var ErrFileNotFound = errors.New("id file not found")

// Set is an unordered set of accepted identifiers.
type Set map[int64]struct{}

// NewSet builds a set from the given identifiers.
func NewSet(values ...int64) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts id.
func (s Set) Add(id int64) {
	s[id] = struct{}{}
}

// Contains reports whether id is accepted.
func (s Set) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of identifiers.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the identifiers in ascending order.
func (s Set) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) String() string {
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// TokenError reports a token in an ID source that is not an integer.
type TokenError struct {
	Source  string
	LineNum int
	Token   string
	Err     error
}

func (e *TokenError) Error() string {
	if e.LineNum > 0 {
		return fmt.Sprintf("%s:%d: invalid id %q", e.Source, e.LineNum, e.Token)
	}
	return fmt.Sprintf("%s: invalid id %q", e.Source, e.Token)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Load reads whitespace-separated integers from path. A missing file yields an
// empty set and an error matching ErrFileNotFound. Any non-integer token
// fails the whole load.
func Load(ctx context.Context, path string) (Set, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided id file path is expected
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Set{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("opening id file: %w", err)
	}
	defer f.Close()

	return Parse(ctx, f, path)
}

// Parse reads identifiers from r. source is used in error messages.
func Parse(ctx context.Context, r io.Reader, source string) (Set, error) {
	set := Set{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		lineNum++
		for _, tok := range strings.Fields(scanner.Text()) {
			id, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return nil, &TokenError{Source: source, LineNum: lineNum, Token: tok, Err: err}
			}
			set.Add(id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}

	return set, nil
}

// ParseList parses a single list of identifiers separated by spaces or
// commas, as typed on a command line.
func ParseList(s string) (Set, error) {
	set := Set{}
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	for _, tok := range tokens {
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, &TokenError{Source: "id list", Token: tok, Err: err}
		}
		set.Add(id)
	}
	return set, nil
}

// Merge loads file, when set, and unions it with extra. A missing file and an
// empty result come back as warnings; only unreadable or malformed files are
// errors.
func Merge(ctx context.Context, file string, extra ...Set) (Set, []string, error) {
	var warnings []string
	accepted := NewSet()

	if file != "" {
		loaded, err := Load(ctx, file)
		switch {
		case errors.Is(err, ErrFileNotFound):
			warnings = append(warnings, fmt.Sprintf("id file %s not found; continuing with no ids from it", file))
		case err != nil:
			return nil, nil, err
		}
		for id := range loaded {
			accepted.Add(id)
		}
	}
	for _, s := range extra {
		for id := range s {
			accepted.Add(id)
		}
	}

	if accepted.Len() == 0 {
		warnings = append(warnings, "accepted id set is empty; no records will be kept")
	}
	return accepted, warnings, nil
}
