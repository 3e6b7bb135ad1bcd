package record

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/agilebank/seqfile/compress"
	"github.com/agilebank/seqfile/field"
	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/layout"
	"github.com/agilebank/seqfile/lines"
)

// Decoder turns fixed-width lines into Records.
type Decoder struct {
	codec   *field.Codec
	logger  *zap.Logger
	workers int
}

// NewDecoder creates a Decoder. Without options fields are decoded with
// field.NewCodec defaults.
func NewDecoder(opts ...Option) (*Decoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Decoder{
		codec:   cfg.codec,
		logger:  cfg.logger,
		workers: cfg.workers,
	}, nil
}

// Codec returns the field codec.
func (d *Decoder) Codec() *field.Codec {
	return d.codec
}

// Resolver compiles set with the decoder's codec and logger.
func (d *Decoder) Resolver(set layout.Set) (*layout.Resolver, error) {
	return layout.NewResolver(set, d.codec, layout.WithLogger(d.logger))
}

// DecodeRow decodes a single line. Use DecodeRowWith or the batch methods
// to decode many lines against the same set.
func (d *Decoder) DecodeRow(line string, set layout.Set) (Record, error) {
	r, err := d.Resolver(set)
	if err != nil {
		return nil, err
	}

	return d.DecodeRowWith(line, r)
}

// DecodeRowWith decodes a single line with a compiled resolver.
//
// Each field is read from its rune columns; columns past the end of the
// line read as empty. When two fields share a name the later one wins.
func (d *Decoder) DecodeRowWith(line string, r *layout.Resolver) (Record, error) {
	runes := []rune(line)

	fields, err := r.ResolveRunes(runes)
	if err != nil {
		return nil, err
	}

	rec := make(Record, len(fields))
	for _, f := range fields {
		v, err := d.codec.Parse(f.Type, f.Slice(runes))
		if err != nil {
			return nil, &FieldError{Field: f.Name, Type: f.Type, Err: err}
		}
		rec[f.Name] = v
	}

	return rec, nil
}

// All decodes every non-blank line of src.
//
// A line that fails to decode yields a *LineError and decoding continues
// with the next line. An error from src is yielded as is and ends the
// sequence. An invalid set yields a single error.
func (d *Decoder) All(src iter.Seq2[string, error], set layout.Set) iter.Seq2[Record, error] {
	return d.decode(numbered(src), set)
}

// DecodeReader decodes the lines read from r. LineError.Line is the
// physical line number in r.
func (d *Decoder) DecodeReader(r io.Reader, set layout.Set, opts ...lines.Option) iter.Seq2[Record, error] {
	return d.decode(lines.ScanNumbered(r, opts...), set)
}

// DecodeCompressed decompresses payload and decodes its lines.
func (d *Decoder) DecodeCompressed(payload []byte, compression format.CompressionType, set layout.Set) iter.Seq2[Record, error] {
	codec, err := compress.CreateCodec(compression, "batch")
	if err != nil {
		return single(err)
	}

	data, err := codec.Decompress(payload)
	if err != nil {
		return single(fmt.Errorf("decompress batch: %w", err))
	}

	return d.DecodeReader(bytes.NewReader(data), set)
}

// DecodeLines decodes ls concurrently.
//
// The lines are split into contiguous chunks, one per worker (see
// WithWorkers). Blank entries are skipped; the results of the others keep
// input order and carry their 1-based index in ls as Line.
//
// Parameters:
//   - ls: Lines to decode, already split
//   - set: Layout to decode against
//
// Returns:
//   - []Result: One result per non-blank line; a failed line has Err set
//     to a *LineError and a nil Record
//   - error: The set is invalid
func (d *Decoder) DecodeLines(ls []string, set layout.Set) ([]Result, error) {
	r, err := d.Resolver(set)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(ls))
	for i, l := range ls {
		if strings.TrimSpace(l) != "" {
			results = append(results, Result{Line: i + 1})
		}
	}

	workers := min(d.workers, len(results))
	if workers <= 1 {
		for i := range results {
			d.decodeResult(&results[i], ls, r)
		}

		return results, nil
	}

	chunk := (len(results) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(results); start += chunk {
		part := results[start:min(start+chunk, len(results))]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range part {
				d.decodeResult(&part[i], ls, r)
			}
		}()
	}
	wg.Wait()

	return results, nil
}

func (d *Decoder) decodeResult(res *Result, ls []string, r *layout.Resolver) {
	raw := ls[res.Line-1]

	rec, err := d.DecodeRowWith(raw, r)
	if err != nil {
		res.Err = &LineError{Line: res.Line, Raw: raw, Err: err}
		return
	}
	res.Record = rec
}

func (d *Decoder) decode(src iter.Seq2[lines.Line, error], set layout.Set) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		r, err := d.Resolver(set)
		if err != nil {
			yield(nil, err)
			return
		}

		var decoded, failed int
		defer func() {
			d.logger.Debug("batch decoded",
				zap.Int("records", decoded),
				zap.Int("failed", failed))
		}()

		for line, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			if strings.TrimSpace(line.Text) == "" {
				continue
			}

			rec, err := d.DecodeRowWith(line.Text, r)
			if err != nil {
				failed++
				d.logger.Debug("line decode failed",
					zap.Int("line", line.Number),
					zap.Error(err))
				if !yield(nil, &LineError{Line: line.Number, Raw: line.Text, Err: err}) {
					return
				}

				continue
			}

			decoded++
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// numbered attaches 1-based positions to the items of src.
func numbered(src iter.Seq2[string, error]) iter.Seq2[lines.Line, error] {
	return func(yield func(lines.Line, error) bool) {
		n := 0
		for text, err := range src {
			n++
			if !yield(lines.Line{Number: n, Text: text}, err) {
				return
			}
		}
	}
}

func single(err error) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		yield(nil, err)
	}
}
