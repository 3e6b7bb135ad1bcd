// Package record transcodes between fixed-width lines and records.
//
// A Decoder turns lines into Records using a layout.Set; an Encoder turns
// typed batches of Records back into lines using an EncodeTable:
//
//	dec, _ := record.NewDecoder()
//	rec, err := dec.DecodeRow("00121041989", layout.Flat(
//	    layout.Field{Name: "id", Offset: 1, Length: 3, Type: format.TypeNumber},
//	    layout.Field{Name: "date", Offset: 4, Length: 8, Type: format.TypeDate},
//	))
//
//	enc, _ := record.NewEncoder()
//	var data record.DataTable
//	data.Add("1", record.Record{"id": 10, "name": "CONTELE"})
//	out, err := enc.EncodeBatch(table, data)
//
// Encoded lines start with their record type key followed by every layout
// field present in the record. Batches are joined by '\n' with no trailing
// newline.
//
// Decoders and Encoders hold no per-call state and are safe for concurrent
// use.
package record

import (
	"fmt"

	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/layout"
)

// Record is one decoded line keyed by field name. Values are string,
// int64, float64 or time.Time depending on the field type.
type Record map[string]any

// Batch is the records of one record type, in output order.
type Batch struct {
	Type    string
	Records []Record
}

// DataTable is the input of an encode. Batches are emitted in slice order.
type DataTable []Batch

// Add appends records to the batch of typ, opening a new batch at the end
// of the table the first time typ is seen.
func (d *DataTable) Add(typ string, records ...Record) {
	for i := range *d {
		if (*d)[i].Type == typ {
			(*d)[i].Records = append((*d)[i].Records, records...)
			return
		}
	}

	*d = append(*d, Batch{Type: typ, Records: records})
}

// Len returns the total number of records across batches.
func (d DataTable) Len() int {
	n := 0
	for _, b := range d {
		n += len(b.Records)
	}

	return n
}

// EncodeTable maps a record type key to the fields written for it.
type EncodeTable map[string][]layout.Field

// Result is the outcome of decoding one line with Decoder.DecodeLines.
type Result struct {
	Line   int
	Record Record
	Err    error
}

// LineError reports a line that could not be decoded. Line is 1-based.
type LineError struct {
	Line int
	Raw  string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// FieldError reports a field whose value could not be parsed or formatted.
type FieldError struct {
	Field string
	Type  format.FieldType
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q (%s): %v", e.Field, e.Type, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
