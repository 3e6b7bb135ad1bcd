// Package lines turns a byte stream into the sequence of record lines a
// fixed-width decoder consumes.
//
// Sequences are lazy and forward-only. Line terminators (\n or \r\n) are
// stripped and blank lines never reach the consumer. A read error is
// yielded once, after which the sequence ends.
package lines

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/agilebank/seqfile/internal/options"
)

// DefaultMaxLineSize bounds the length of a single line.
const DefaultMaxLineSize = 1024 * 1024

// Line is a non-blank line and its 1-based position in the input.
type Line struct {
	Number int
	Text   string
}

type config struct {
	maxLineSize int
}

// Option configures a scan.
type Option = options.Option[*config]

// WithMaxLineSize sets the longest accepted line in bytes.
func WithMaxLineSize(n int) Option {
	return options.New(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("max line size must be positive, got %d", n)
		}
		c.maxLineSize = n

		return nil
	})
}

// Scan yields the non-blank lines of r.
func Scan(r io.Reader, opts ...Option) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for line, err := range ScanNumbered(r, opts...) {
			if !yield(line.Text, err) {
				return
			}
		}
	}
}

// ScanNumbered yields the non-blank lines of r with their line numbers.
func ScanNumbered(r io.Reader, opts ...Option) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		cfg := &config{maxLineSize: DefaultMaxLineSize}
		if err := options.Apply(cfg, opts...); err != nil {
			yield(Line{}, err)
			return
		}

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, min(64*1024, cfg.maxLineSize)), cfg.maxLineSize)

		n := 0
		for sc.Scan() {
			n++
			text := sc.Text()
			if isBlank(text) {
				continue
			}
			if !yield(Line{Number: n, Text: text}, nil) {
				return
			}
		}

		if err := sc.Err(); err != nil {
			yield(Line{Number: n + 1}, fmt.Errorf("read line %d: %w", n+1, err))
		}
	}
}

// FromStrings yields the non-blank entries of ls.
func FromStrings(ls ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, l := range ls {
			if isBlank(l) {
				continue
			}
			if !yield(l, nil) {
				return
			}
		}
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
