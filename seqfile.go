// Package seqfile reads and writes positional (fixed-width) flat files.
//
// Each line of a seqfile packs several fields at fixed character offsets.
// Files may multiplex several record "sections", told apart by a
// discriminator field at the start of the line, as in bank remittance and
// other EDI-style batch files.
//
// # Core Features
//
//   - Four field types: text, integer, fixed-point decimal and date
//   - Flat or sectioned layouts, with hash-indexed section lookup
//   - Streaming decode with per-line errors that never stop the batch
//   - Parallel decode of in-memory batches
//   - Batch encode with exact column widths and configurable overflow
//   - Optional payload compression (None, Zstd, S2, LZ4)
//   - YAML or JSON layout definition files
//
// # Basic Usage
//
// Decoding a line:
//
//	set := layout.Flat(
//	    layout.Field{Name: "id", Offset: 1, Length: 3, Type: format.TypeNumber},
//	    layout.Field{Name: "date", Offset: 4, Length: 8, Type: format.TypeDate},
//	)
//	rec, _ := seqfile.DecodeRow("00121041989", set)
//	// rec["id"] == int64(1), rec["date"] is 21 April 1989 in America/Sao_Paulo
//
// Decoding a file:
//
//	for rec, err := range seqfile.ReadStream(f, set) {
//	    var lineErr *record.LineError
//	    if errors.As(err, &lineErr) {
//	        log.Printf("skipping line %d: %v", lineErr.Line, lineErr.Err)
//	        continue
//	    }
//	    ...
//	}
//
// Encoding a batch:
//
//	table := record.EncodeTable{"1": fields}
//	var data record.DataTable
//	data.Add("1", record.Record{"id": 10, "name": "CONTELE"})
//	out, _ := seqfile.EncodeBatch(table, data)
//
// # Package Structure
//
// This package provides top-level wrappers around the record package using
// default settings: dates decoded as DDMMYYYY in America/Sao_Paulo, strict
// numerics, overlong values kept whole. Use record.NewDecoder and
// record.NewEncoder for anything else.
package seqfile

import (
	"io"
	"iter"
	"sync"

	"github.com/agilebank/seqfile/field"
	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/layout"
	"github.com/agilebank/seqfile/record"
)

// Field types, numbered as in the file format documentation.
const (
	Text   = format.TypeText
	Number = format.TypeNumber
	Float  = format.TypeFloat
	Date   = format.TypeDate
)

var (
	defaultDecoder = sync.OnceValues(func() (*record.Decoder, error) {
		return record.NewDecoder()
	})
	defaultEncoder = sync.OnceValues(func() (*record.Encoder, error) {
		return record.NewEncoder()
	})
)

// FormatValue decodes one raw column slice with the default codec.
//
// Parameters:
//   - typ: Field type of the column
//   - raw: Column text, exactly as sliced from the line
//
// Returns:
//   - any: string, int64, float64 or time.Time depending on typ
//   - error: errs.ErrInvalidFieldType, errs.ErrMalformedNumeric or
//     errs.ErrMalformedDate
func FormatValue(typ format.FieldType, raw string) (any, error) {
	dec, err := defaultDecoder()
	if err != nil {
		return nil, err
	}

	return dec.Codec().Parse(typ, raw)
}

// NewCodec creates a field codec. See field.NewCodec.
func NewCodec(opts ...field.Option) (*field.Codec, error) {
	return field.NewCodec(opts...)
}

// DecodeRow decodes one line against set with default settings.
//
// The set is compiled on every call. To decode many lines, use ReadStream
// or a record.Decoder with a precompiled resolver.
//
// Returns:
//   - record.Record: Field values keyed by field name
//   - error: *layout.SectionError when no section matches, *record.FieldError
//     when a field does not parse, errs.ErrInvalidLayout for an invalid set
func DecodeRow(line string, set layout.Set) (record.Record, error) {
	dec, err := defaultDecoder()
	if err != nil {
		return nil, err
	}

	return dec.DecodeRow(line, set)
}

// ReadStream decodes the non-blank lines of r against set.
//
// The sequence is lazy and ends at EOF. Lines that fail to decode yield a
// *record.LineError and the stream continues; a read error ends it.
func ReadStream(r io.Reader, set layout.Set) iter.Seq2[record.Record, error] {
	dec, err := defaultDecoder()
	if err != nil {
		return func(yield func(record.Record, error) bool) {
			yield(nil, err)
		}
	}

	return dec.DecodeReader(r, set)
}

// EncodeBatch encodes data against table with default settings.
//
// Each record becomes one line: its type key followed by every field of the
// type's layout present in the record. Lines are joined by '\n' with no
// trailing newline.
//
// Returns:
//   - string: The encoded batch
//   - error: errs.ErrUnknownRecordType if a batch type is missing from
//     table, or the first field error encountered
func EncodeBatch(table record.EncodeTable, data record.DataTable) (string, error) {
	enc, err := defaultEncoder()
	if err != nil {
		return "", err
	}

	return enc.EncodeBatch(table, data)
}
