package record

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/agilebank/seqfile/compress"
	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/field"
	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/internal/pool"
	"github.com/agilebank/seqfile/layout"
)

// Encoder turns typed batches of Records into fixed-width lines.
type Encoder struct {
	codec      *field.Codec
	logger     *zap.Logger
	linePrefix bool
}

// NewEncoder creates an Encoder. Without options overlong values are kept
// whole and every line starts with its record type key.
func NewEncoder(opts ...Option) (*Encoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Encoder{
		codec:      cfg.codec,
		logger:     cfg.logger,
		linePrefix: cfg.linePrefix,
	}, nil
}

// Codec returns the field codec.
func (e *Encoder) Codec() *field.Codec {
	return e.codec
}

// EncodeRow encodes one record of type typ.
//
// Fields absent from rec, or holding nil, are skipped rather than padded.
func (e *Encoder) EncodeRow(typ string, fields []layout.Field, rec Record) (string, error) {
	buf := pool.GetLineBuffer()
	defer pool.PutLineBuffer(buf)

	if err := e.appendRow(buf, typ, fields, rec); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// EncodeBatch encodes data against table and joins the lines with '\n'.
//
// Batches are written in data order and records in batch order. Each line
// is the record type key followed by every field of the type's layout that
// the record holds. There is no trailing newline.
//
// Parameters:
//   - table: Field layout per record type
//   - data: Batches to encode
//
// Returns:
//   - string: The encoded batch, empty if data holds no records
//   - error: errs.ErrUnknownRecordType naming the first type missing from
//     table, or the first field error wrapped with its record position
func (e *Encoder) EncodeBatch(table EncodeTable, data DataTable) (string, error) {
	buf := pool.GetBatchBuffer()
	defer pool.PutBatchBuffer(buf)

	if err := e.encode(buf, table, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// WriteBatch is EncodeBatch writing to w. Nothing is written unless the
// whole batch encodes.
func (e *Encoder) WriteBatch(w io.Writer, table EncodeTable, data DataTable) (int64, error) {
	buf := pool.GetBatchBuffer()
	defer pool.PutBatchBuffer(buf)

	if err := e.encode(buf, table, data); err != nil {
		return 0, err
	}

	return buf.WriteTo(w)
}

// EncodeCompressed is EncodeBatch followed by compression of the whole
// batch.
func (e *Encoder) EncodeCompressed(table EncodeTable, data DataTable, compression format.CompressionType) ([]byte, error) {
	codec, err := compress.CreateCodec(compression, "batch")
	if err != nil {
		return nil, err
	}

	buf := pool.GetBatchBuffer()
	defer pool.PutBatchBuffer(buf)

	if err := e.encode(buf, table, data); err != nil {
		return nil, err
	}

	// the none codec returns its input, which goes back to the pool
	if compression == format.CompressionNone {
		return append([]byte(nil), buf.Bytes()...), nil
	}

	packed, err := codec.Compress(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compress batch: %w", err)
	}

	e.logger.Debug("batch compressed",
		zap.Stringer("compression", compression),
		zap.Int("size", buf.Len()),
		zap.Int("compressed", len(packed)))

	return packed, nil
}

func (e *Encoder) encode(buf *pool.ByteBuffer, table EncodeTable, data DataTable) error {
	for _, b := range data {
		if _, ok := table[b.Type]; !ok {
			return fmt.Errorf("%w: %q", errs.ErrUnknownRecordType, b.Type)
		}
	}

	first := true
	for _, b := range data {
		fields := table[b.Type]
		for i, rec := range b.Records {
			if !first {
				_ = buf.WriteByte('\n')
			}
			first = false

			if err := e.appendRow(buf, b.Type, fields, rec); err != nil {
				return fmt.Errorf("record %q #%d: %w", b.Type, i+1, err)
			}
		}
	}

	e.logger.Debug("batch encoded",
		zap.Int("batches", len(data)),
		zap.Int("records", data.Len()),
		zap.Int("bytes", buf.Len()))

	return nil
}

func (e *Encoder) appendRow(buf *pool.ByteBuffer, typ string, fields []layout.Field, rec Record) error {
	width := 0
	for _, f := range fields {
		width += f.Length
	}
	buf.Grow(len(typ) + width)

	if e.linePrefix {
		_, _ = buf.WriteString(typ)
	}

	for _, f := range fields {
		v, ok := rec[f.Name]
		if !ok || v == nil {
			continue
		}

		s, err := e.codec.Format(v, f.Type, f.Length)
		if err != nil {
			return &FieldError{Field: f.Name, Type: f.Type, Err: err}
		}
		_, _ = buf.WriteString(s)
	}

	return nil
}
